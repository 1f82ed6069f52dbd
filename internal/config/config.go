package config

import (
	"context"
	"net/http"

	"github.com/google/go-github/v59/github"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/oauth2"
)

// Config collects everything the action reads from its environment. In a CI
// run GITHUB_REF, GITHUB_ACTOR and GITHUB_REPOSITORY come from the runner;
// the rest are operator inputs.
type Config struct {
	GitHubToken     string `envconfig:"GITHUB_TOKEN"`
	EventRef        string `envconfig:"GITHUB_REF" required:"true"`
	Actor           string `envconfig:"GITHUB_ACTOR"`
	Repository      string `envconfig:"GITHUB_REPOSITORY" required:"true"`
	TemplateFile    string `envconfig:"TEMPLATE_FILE" default:".spin-plugin.json.tmpl"`
	PackageFile     string `envconfig:"PACKAGE_FILE" default:"package.json"`
	TrunkBranch     string `envconfig:"TRUNK_BRANCH" default:"main"`
	Indent          int    `envconfig:"INDENT" default:"6"`
	UploadChecksums bool   `envconfig:"UPLOAD_CHECKSUMS"`
	// DownloadRetries defaults to zero so a run either fully delivers or
	// fails on the first error; raising it is an explicit operator choice.
	DownloadRetries int `envconfig:"DOWNLOAD_RETRIES" default:"0"`
}

func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateGitHubClient returns an authenticated client when a token is
// configured and an anonymous one otherwise.
func (c *Config) CreateGitHubClient() *github.Client {
	var httpClient *http.Client
	if c.GitHubToken != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.GitHubToken}))
	}
	return github.NewClient(httpClient)
}
