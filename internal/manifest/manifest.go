// Package manifest renders the plugin manifest template and validates the
// result. The template language is text/template with one extra directive,
// addURLAndSha, which turns a URL fragment into a url+sha256 JSON pair.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/rajatjindal/spin-plugin-release-bot-action/internal/checksum"
)

// DefaultIndent matches the nesting depth of the package entries in the
// standard manifest template layout.
const DefaultIndent = 6

// Manifest holds the fields every rendered manifest must declare. The full
// document keeps whatever else the template author put there.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// View is the data exposed to the template and to the inner URL fragments
// passed to addURLAndSha.
type View struct {
	TagName string
	Version string
}

// Renderer renders a manifest template against a view and a checksum index.
type Renderer struct {
	view   View
	index  checksum.Index
	indent int
}

func NewRenderer(view View, index checksum.Index, indent int) *Renderer {
	return &Renderer{
		view:   view,
		index:  index,
		indent: indent,
	}
}

// addURLAndSha implements the template directive. The argument is itself a
// template fragment producing a download URL; it is rendered against the same
// view first, so tag and version placeholders inside asset file names resolve
// before the checksum lookup. The emitted fragment is
//
//	"url": "<url>",
//	      "sha256": "<hash>"
//
// with the second line indented by the configured width so it lines up with
// the surrounding JSON. A URL with no checksum entry emits an unquoted
// sentinel instead of a hash, which deliberately breaks the JSON parse later:
// a template/asset mismatch must never produce a plausible-looking manifest.
func (r *Renderer) addURLAndSha(urlTemplate string) (string, error) {
	tmpl, err := template.New("url").Parse(urlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse url fragment %q: %w", urlTemplate, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.view); err != nil {
		return "", fmt.Errorf("failed to render url fragment %q: %w", urlTemplate, err)
	}
	url := buf.String()

	indent := strings.Repeat(" ", r.indent)
	digest, ok := r.index.Lookup(url)
	if !ok {
		return fmt.Sprintf("\"url\": %q,\n%s\"sha256\": <no checksum found for %s>", url, indent, url), nil
	}
	return fmt.Sprintf("\"url\": %q,\n%s\"sha256\": %q", url, indent, digest), nil
}

// Render executes the manifest template. It performs no structural
// validation; callers are expected to Parse the result.
func (r *Renderer) Render(templateText string) (string, error) {
	tmpl, err := template.New("manifest").Funcs(template.FuncMap{
		"addURLAndSha": r.addURLAndSha,
	}).Parse(templateText)
	if err != nil {
		return "", fmt.Errorf("failed to parse manifest template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.view); err != nil {
		return "", fmt.Errorf("failed to render manifest template: %w", err)
	}
	return buf.String(), nil
}

// Parse checks that the rendered text is valid JSON and declares the required
// fields. This is where a missed checksum lookup surfaces as an error.
func Parse(rendered string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal([]byte(rendered), &m); err != nil {
		return nil, fmt.Errorf("rendered manifest is not valid JSON: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("rendered manifest has no name")
	}
	if m.Version == "" {
		return nil, fmt.Errorf("rendered manifest has no version")
	}
	return &m, nil
}
