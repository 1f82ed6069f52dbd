package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/require"
)

var (
	testFile         = []byte("test-file")
	testFileChecksum = "3fa65313f3ee7c23d31896e7f57af67618b88dff00f6eb7c3aba2d968d6d4b32"
)

func getAssetServer(t *testing.T, failingRequests int) *httptest.Server {
	cnt := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cnt++
		if cnt <= failingRequests {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, err := w.Write([]byte(string(testFile) + r.URL.Path))
		require.NoError(t, err)
	}))
}

func testAsset(serverURL, name string) *github.ReleaseAsset {
	return &github.ReleaseAsset{
		Name:               github.String(name),
		BrowserDownloadURL: github.String(serverURL + "/" + name),
	}
}

func TestResolve(t *testing.T) {
	ts := getAssetServer(t, 0)
	defer ts.Close()

	assets := []*github.ReleaseAsset{
		testAsset(ts.URL, "plugin-linux-amd64.tar.gz"),
		testAsset(ts.URL, "plugin-linux-arm64.tar.gz"),
		testAsset(ts.URL, "plugin-darwin-amd64.tar.gz"),
	}
	index, err := NewResolver("", 0).Resolve(context.Background(), assets)
	require.NoError(t, err)
	require.Len(t, index, len(assets))
	for _, asset := range assets {
		expected := sha256.Sum256([]byte(string(testFile) + "/" + asset.GetName()))
		digest, ok := index.Lookup(asset.GetBrowserDownloadURL())
		require.True(t, ok)
		require.Equal(t, hex.EncodeToString(expected[:]), digest)
	}
}

func TestResolveSendsToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write(testFile)
	}))
	defer ts.Close()

	index, err := NewResolver("test-token", 0).Resolve(context.Background(), []*github.ReleaseAsset{testAsset(ts.URL, "plugin.tar.gz")})
	require.NoError(t, err)
	require.Equal(t, Index{ts.URL + "/plugin.tar.gz": testFileChecksum}, index)
}

func TestResolveFailureAbortsRun(t *testing.T) {
	ts := getAssetServer(t, 0)
	defer ts.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer failing.Close()

	assets := []*github.ReleaseAsset{
		testAsset(ts.URL, "plugin-linux-amd64.tar.gz"),
		testAsset(failing.URL, "plugin-linux-arm64.tar.gz"),
	}
	index, err := NewResolver("", 0).Resolve(context.Background(), assets)
	require.ErrorContains(t, err, "plugin-linux-arm64.tar.gz")
	require.ErrorContains(t, err, "unexpected status code: 404")
	require.Nil(t, index)
}

func TestResolveRetryBudget(t *testing.T) {
	ts := getAssetServer(t, 1)
	defer ts.Close()
	asset := testAsset(ts.URL, "plugin.tar.gz")

	// no retry budget: the first 500 is fatal
	_, err := NewResolver("", 0).Resolve(context.Background(), []*github.ReleaseAsset{asset})
	require.Error(t, err)

	cnt := 0
	ts2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cnt++
		if cnt <= 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(testFile)
	}))
	defer ts2.Close()
	index, err := NewResolver("", 1).Resolve(context.Background(), []*github.ReleaseAsset{testAsset(ts2.URL, "plugin.tar.gz")})
	require.NoError(t, err)
	digest, ok := index.Lookup(ts2.URL + "/plugin.tar.gz")
	require.True(t, ok)
	require.Equal(t, testFileChecksum, digest)
}

func TestListing(t *testing.T) {
	index := Index{
		"https://example.com/v0.5.0/plugin-linux.tar.gz": "aaaa",
		"https://example.com/v0.5.0/plugin-mac.tar.gz":   "bbbb",
		"https://example.com/v0.5.0/checksums.txt":       "cccc",
	}
	listing := index.Listing(".tar.gz")
	require.Equal(t, "aaaa  plugin-linux.tar.gz\nbbbb  plugin-mac.tar.gz", listing)
}

func TestListingSingleAsset(t *testing.T) {
	content := []byte("known bytes")
	expected := sha256.Sum256(content)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(content)
	}))
	defer ts.Close()

	index, err := NewResolver("", 0).Resolve(context.Background(), []*github.ReleaseAsset{testAsset(ts.URL, "plugin-linux.tar.gz")})
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%s  plugin-linux.tar.gz", hex.EncodeToString(expected[:])), index.Listing(".tar.gz"))
}
