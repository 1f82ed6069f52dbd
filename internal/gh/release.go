// Package gh wraps the release-hosting API calls: locating a release by tag
// and attaching generated artifacts to it.
package gh

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v59/github"
)

// Client talks to a single repository's releases.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewClient builds a client for the "owner/repo" the action runs against.
func NewClient(ghClient *github.Client, fullRepo string) (*Client, error) {
	owner, repo, found := strings.Cut(fullRepo, "/")
	if !found || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q, expected owner/repo", fullRepo)
	}
	return &Client{
		gh:    ghClient,
		owner: owner,
		repo:  repo,
	}, nil
}

// GetReleaseByTag resolves the release the run operates on. Draft releases
// and releases without assets cannot produce a manifest and are rejected.
func (c *Client) GetReleaseByTag(ctx context.Context, tag string) (*github.RepositoryRelease, error) {
	release, _, err := c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to get release %s: %w", tag, err)
	}
	if release.GetDraft() {
		return nil, fmt.Errorf("release %s is a draft", tag)
	}
	if len(release.Assets) == 0 {
		return nil, fmt.Errorf("release %s has no assets", tag)
	}
	return release, nil
}

// UploadAsset attaches content to the release under the given file name. The
// upload API only accepts files, so the content goes through a temp file.
func (c *Client) UploadAsset(ctx context.Context, releaseID int64, name string, content []byte) error {
	assetFile, err := os.CreateTemp("", "release-asset-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(assetFile.Name())
	defer assetFile.Close()
	if _, err := assetFile.Write(content); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if _, err := assetFile.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind temp file: %w", err)
	}
	_, _, err = c.gh.Repositories.UploadReleaseAsset(ctx, c.owner, c.repo, releaseID, &github.UploadOptions{Name: name}, assetFile)
	if err != nil {
		return fmt.Errorf("failed to upload asset %s: %w", name, err)
	}
	return nil
}

// ReplaceAsset uploads content under the given name, deleting any existing
// asset with that name first. Rolling releases are reused across runs, so the
// previous manifest upload has to make way for the new one.
func (c *Client) ReplaceAsset(ctx context.Context, release *github.RepositoryRelease, name string, content []byte) error {
	for _, asset := range release.Assets {
		if asset.GetName() != name {
			continue
		}
		if _, err := c.gh.Repositories.DeleteReleaseAsset(ctx, c.owner, c.repo, asset.GetID()); err != nil {
			return fmt.Errorf("failed to delete existing asset %s: %w", name, err)
		}
		break
	}
	return c.UploadAsset(ctx, release.GetID(), name, content)
}
