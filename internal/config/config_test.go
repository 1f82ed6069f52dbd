package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("GITHUB_REF", "refs/tags/v1.0.0")
	t.Setenv("GITHUB_REPOSITORY", "fermyon/spin-trigger-sqs")
	t.Setenv("GITHUB_ACTOR", "octocat")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	require.Equal(t, "refs/tags/v1.0.0", cfg.EventRef)
	require.Equal(t, "fermyon/spin-trigger-sqs", cfg.Repository)
	require.Equal(t, "octocat", cfg.Actor)
	require.Equal(t, ".spin-plugin.json.tmpl", cfg.TemplateFile)
	require.Equal(t, "package.json", cfg.PackageFile)
	require.Equal(t, "main", cfg.TrunkBranch)
	require.Equal(t, 6, cfg.Indent)
	require.Equal(t, 0, cfg.DownloadRetries)
	require.False(t, cfg.UploadChecksums)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_REF", "refs/heads/main")
	t.Setenv("GITHUB_REPOSITORY", "fermyon/spin-trigger-sqs")
	t.Setenv("TEMPLATE_FILE", "custom.tmpl")
	t.Setenv("INDENT", "10")
	t.Setenv("UPLOAD_CHECKSUMS", "true")
	t.Setenv("TRUNK_BRANCH", "trunk")
	t.Setenv("DOWNLOAD_RETRIES", "2")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	require.Equal(t, "custom.tmpl", cfg.TemplateFile)
	require.Equal(t, 10, cfg.Indent)
	require.Equal(t, "trunk", cfg.TrunkBranch)
	require.Equal(t, 2, cfg.DownloadRetries)
	require.True(t, cfg.UploadChecksums)
}

func TestNewFromEnvMissingRef(t *testing.T) {
	t.Setenv("GITHUB_REF", "")
	t.Setenv("GITHUB_REPOSITORY", "fermyon/spin-trigger-sqs")
	require.NoError(t, os.Unsetenv("GITHUB_REF"))

	_, err := NewFromEnv()
	require.ErrorContains(t, err, "GITHUB_REF")
}

func TestCreateGitHubClient(t *testing.T) {
	cfg := &Config{}
	require.NotNil(t, cfg.CreateGitHubClient())

	cfg = &Config{GitHubToken: "test-token"}
	require.NotNil(t, cfg.CreateGitHubClient())
}
