// Package action wires the release run together: it resolves the release
// channel from the trigger ref, builds the checksum index, renders the
// manifest and delivers it over the channel's publishing path.
package action

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/checksum"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/config"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/gh"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/manifest"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/version"
	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/webhook"
	"github.com/sirupsen/logrus"
)

// Channel is the release channel selected from the trigger ref.
type Channel int

const (
	// ChannelTagged publishes through the release bot, which opens a PR
	// against the plugin index.
	ChannelTagged Channel = iota + 1
	// ChannelRolling publishes the manifest straight onto the canary
	// release, skipping the review workflow.
	ChannelRolling
)

// CanaryTag is the rolling release every trunk build publishes to.
const CanaryTag = "canary"

const (
	tagRefPrefix    = "refs/tags/"
	branchRefPrefix = "refs/heads/"
	archiveSuffix   = ".tar.gz"
)

// ChannelFromRef maps the trigger ref to a channel and the release tag to
// operate on. Anything that is neither a v-prefixed tag nor the trunk branch
// is rejected before any network call happens.
func ChannelFromRef(ref, trunkBranch string) (Channel, string, error) {
	if tag, ok := strings.CutPrefix(ref, tagRefPrefix); ok && strings.HasPrefix(tag, "v") {
		return ChannelTagged, tag, nil
	}
	if branch, ok := strings.CutPrefix(ref, branchRefPrefix); ok && branch == trunkBranch {
		return ChannelRolling, CanaryTag, nil
	}
	return 0, "", fmt.Errorf("invalid ref %q: expected %sv<version> or %s%s", ref, tagRefPrefix, branchRefPrefix, trunkBranch)
}

// Action holds the collaborators for one run. All of them are scoped to the
// run; nothing survives between invocations.
type Action struct {
	log      *logrus.Logger
	cfg      *config.Config
	releases *gh.Client
	resolver *checksum.Resolver
	bot      *webhook.Client
}

func New(log *logrus.Logger, cfg *config.Config, releases *gh.Client, resolver *checksum.Resolver, bot *webhook.Client) *Action {
	return &Action{
		log:      log,
		cfg:      cfg,
		releases: releases,
		resolver: resolver,
		bot:      bot,
	}
}

// Run executes one release publication end to end. Every error is fatal:
// either the selected channel fully delivers or nothing is published.
func (a *Action) Run(ctx context.Context) error {
	channel, tag, err := ChannelFromRef(a.cfg.EventRef, a.cfg.TrunkBranch)
	if err != nil {
		return err
	}
	a.log.Infof("resolved release tag %s from ref %s", tag, a.cfg.EventRef)

	release, err := a.releases.GetReleaseByTag(ctx, tag)
	if err != nil {
		return err
	}

	a.log.Infof("computing checksums for %d release assets", len(release.Assets))
	index, err := a.resolver.Resolve(ctx, release.Assets)
	if err != nil {
		return err
	}

	var releaseVersion string
	if channel == ChannelRolling {
		releaseVersion, err = version.Canary(a.cfg.PackageFile, time.Now())
	} else {
		releaseVersion, err = version.FromTag(tag)
	}
	if err != nil {
		return err
	}
	a.log.Infof("resolved version: %s", releaseVersion)

	templateText, err := os.ReadFile(a.cfg.TemplateFile)
	if err != nil {
		return fmt.Errorf("failed to read manifest template: %w", err)
	}
	renderer := manifest.NewRenderer(manifest.View{TagName: tag, Version: releaseVersion}, index, a.cfg.Indent)
	rendered, err := renderer.Render(string(templateText))
	if err != nil {
		return err
	}
	m, err := manifest.Parse(rendered)
	if err != nil {
		return err
	}

	if channel == ChannelRolling {
		return a.publishRolling(ctx, release, m, rendered)
	}
	return a.publishTagged(ctx, release, tag, index, m, rendered)
}

func (a *Action) publishRolling(ctx context.Context, release *github.RepositoryRelease, m *manifest.Manifest, rendered string) error {
	assetName := m.Name + ".json"
	a.log.Infof("uploading manifest %s to the %s release", assetName, CanaryTag)
	return a.releases.ReplaceAsset(ctx, release, assetName, []byte(rendered))
}

func (a *Action) publishTagged(ctx context.Context, release *github.RepositoryRelease, tag string, index checksum.Index, m *manifest.Manifest, rendered string) error {
	if a.cfg.UploadChecksums {
		listingName := fmt.Sprintf("checksums-%s.txt", tag)
		a.log.Infof("uploading checksum listing %s", listingName)
		err := a.releases.UploadAsset(ctx, release.GetID(), listingName, []byte(index.Listing(archiveSuffix)))
		if err != nil {
			return err
		}
	}

	owner, repo, _ := strings.Cut(a.cfg.Repository, "/")
	releaseRequest := &webhook.ReleaseRequest{
		TagName:            tag,
		PluginName:         m.Name,
		PluginRepo:         repo,
		PluginOwner:        owner,
		PluginReleaseActor: a.cfg.Actor,
		ProcessedTemplate:  base64.StdEncoding.EncodeToString([]byte(rendered)),
	}
	a.log.WithFields(logrus.Fields{
		"tagName":     releaseRequest.TagName,
		"pluginName":  releaseRequest.PluginName,
		"pluginRepo":  releaseRequest.PluginRepo,
		"pluginOwner": releaseRequest.PluginOwner,
		"actor":       releaseRequest.PluginReleaseActor,
	}).Debug("sending release request")
	return a.bot.Send(ctx, releaseRequest)
}
