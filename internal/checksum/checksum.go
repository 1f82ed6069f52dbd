// Package checksum downloads release assets and computes their SHA-256
// digests, producing the lookup index used during manifest rendering.
package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentDownloads = 4

// Index maps an asset download URL to the lowercase hex SHA-256 of its bytes.
type Index map[string]string

// Lookup returns the digest for the given download URL.
func (idx Index) Lookup(url string) (string, bool) {
	digest, ok := idx[url]
	return digest, ok
}

// Listing formats the index entries whose URL ends with the given suffix as a
// checksum listing, one "<hash>  <filename>" line per asset, sorted by file
// name so repeated runs produce identical artifacts.
func (idx Index) Listing(suffix string) string {
	fileNames := make([]string, 0, len(idx))
	digests := make(map[string]string, len(idx))
	for url, digest := range idx {
		if !strings.HasSuffix(url, suffix) {
			continue
		}
		fileName := path.Base(url)
		fileNames = append(fileNames, fileName)
		digests[fileName] = digest
	}
	sort.Strings(fileNames)
	lines := make([]string, len(fileNames))
	for i, fileName := range fileNames {
		lines[i] = fmt.Sprintf("%s  %s", digests[fileName], fileName)
	}
	return strings.Join(lines, "\n")
}

// Resolver fetches asset bytes and hashes them. Retries are off unless a
// retry budget is configured, to keep delivery strictly all-or-nothing.
type Resolver struct {
	httpClient *retryablehttp.Client
	token      string
}

func NewResolver(token string, retryMax int) *Resolver {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = retryMax
	httpClient.HTTPClient.Timeout = 3 * time.Minute
	return &Resolver{
		httpClient: httpClient,
		token:      token,
	}
}

func (r *Resolver) fetchDigest(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	digest := sha256.New()
	if _, err := io.Copy(digest, resp.Body); err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Resolve downloads every asset and returns the complete index. The first
// failed download cancels the remaining ones and fails the whole resolution,
// so a partial index is never returned.
func (r *Resolver) Resolve(ctx context.Context, assets []*github.ReleaseAsset) (Index, error) {
	digests := make([]string, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			digest, err := r.fetchDigest(gctx, asset.GetBrowserDownloadURL())
			if err != nil {
				return fmt.Errorf("failed to checksum asset %s: %w", asset.GetName(), err)
			}
			digests[i] = digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	idx := make(Index, len(assets))
	for i, asset := range assets {
		idx[asset.GetBrowserDownloadURL()] = digests[i]
	}
	return idx, nil
}
