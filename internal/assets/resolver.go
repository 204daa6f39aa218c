// Package assets locates catalog images: where their logical paths come from
// (a directory tree or a Drive folder) and which hosted URL each one maps to.
package assets

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	ampersand  = regexp.MustCompile(`\s*&\s*`)
	imageExt   = regexp.MustCompile(`(?i)\.(webp|jpg|jpeg|png)$`)
	leadingSep = regexp.MustCompile(`^/+`)
)

// MappingEntry is one uploaded asset in a CDN mapping file.
type MappingEntry struct {
	Original   string `json:"original"`
	Cloudinary string `json:"cloudinary"`
	PublicID   string `json:"publicId"`
	Format     string `json:"format"`
	Skipped    bool   `json:"skipped,omitempty"`
}

// Mapping is the upload manifest produced when assets are pushed to the CDN.
type Mapping struct {
	CloudName string                  `json:"cloudName"`
	URLs      map[string]MappingEntry `json:"urls"`
}

// LoadMapping reads a mapping file from disk.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: read mapping %s: %w", path, err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("assets: decode mapping %s: %w", path, err)
	}
	return &m, nil
}

// CDNResolver turns a logical asset path into a hosted image URL. Paths
// present in the mapping use the uploaded URL; the rest get a URL built from
// the CDN naming convention, so Resolve never fails.
type CDNResolver struct {
	cloudName string
	folder    string
	urls      map[string]string
}

// NewCDNResolver creates a resolver. mapping may be nil; a non-empty cloud
// name in the mapping wins over cloudName.
func NewCDNResolver(cloudName, folder string, mapping *Mapping) *CDNResolver {
	r := &CDNResolver{
		cloudName: cloudName,
		folder:    strings.Trim(folder, "/"),
		urls:      make(map[string]string),
	}
	if mapping == nil {
		return r
	}
	if mapping.CloudName != "" {
		r.cloudName = mapping.CloudName
	}
	for p, e := range mapping.URLs {
		if e.Cloudinary != "" {
			r.urls[p] = e.Cloudinary
		}
	}
	return r
}

// Resolve implements catalog.Resolver.
func (r *CDNResolver) Resolve(path string) string {
	p := leadingSep.ReplaceAllString(strings.ReplaceAll(path, `\`, "/"), "")

	if u, ok := r.urls[p]; ok {
		return u
	}
	// uploads replace '&' with 'and' in public ids
	sanitized := ampersand.ReplaceAllString(p, " and ")
	if u, ok := r.urls[sanitized]; ok {
		return u
	}
	return r.fallbackURL(sanitized)
}

// componentUnescape undoes QueryEscape for the characters a URI component
// leaves alone, so public ids match the ones the upload produced.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

func (r *CDNResolver) fallbackURL(p string) string {
	format := "jpg"
	if m := imageExt.FindStringSubmatch(p); m != nil {
		format = strings.ToLower(m[1])
		p = p[:len(p)-len(m[0])]
	}
	if format == "webp" {
		format = "jpg"
	}

	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = escapeComponent(s)
	}
	publicID := strings.Join(segments, "/")
	if r.folder != "" {
		publicID = r.folder + "/" + publicID
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s.%s", r.cloudName, publicID, format)
}
