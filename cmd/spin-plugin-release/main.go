package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/action"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/checksum"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/config"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/gh"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/webhook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}
	cmd := &cobra.Command{
		Use:     "spin-plugin-release",
		Short:   "Publish a Spin plugin manifest for the triggering release",
		Version: version,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(log); err != nil {
				log.Errorf("ERROR: %v", err)
				os.Exit(1)
			}
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	log.Infof("starting spin-plugin-release (version=%s)", version)
	cfg, err := config.NewFromEnv()
	if err != nil {
		return err
	}
	if cfg.GitHubToken == "" {
		log.Warn("no GitHub token configured, using unauthenticated API calls")
	}

	releases, err := gh.NewClient(cfg.CreateGitHubClient(), cfg.Repository)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := action.New(
		log,
		cfg,
		releases,
		checksum.NewResolver(cfg.GitHubToken, cfg.DownloadRetries),
		webhook.New(webhook.DefaultEndpoint),
	)
	return a.Run(ctx)
}
