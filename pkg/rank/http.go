package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Regions maps server codes to the short region names used in public
// profile URLs. Unknown servers map to their lowercased code.
var Regions = map[string]string{
	"TR1":  "tr",
	"EUW1": "euw",
	"EUN1": "eune",
	"NA1":  "na",
}

// Region returns the short region name of server.
func Region(server string) string {
	server = strings.ToUpper(strings.TrimSpace(server))
	if r, ok := Regions[server]; ok {
		return r
	}
	return strings.ToLower(server)
}

// HTTPFetcher reads ranks from a JSON endpoint.
//
// The URL template may contain {region}, {server}, {name}, {tag} and
// {slug} (name-tag); values are path-escaped. The endpoint answers 200 with
// a Result document, or 404 when it knows nothing about the player.
type HTTPFetcher struct {
	template string
	client   *http.Client
}

// NewHTTPFetcher creates a fetcher for template.
func NewHTTPFetcher(template string, timeout time.Duration) (*HTTPFetcher, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		return nil, ErrNoTemplate
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPFetcher{
		template: template,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// URL expands the template for one player.
func (f *HTTPFetcher) URL(server, handle string) (string, error) {
	name, tag, ok := strings.Cut(strings.TrimSpace(handle), "#")
	if !ok || name == "" || tag == "" {
		return "", fmt.Errorf("%w: %q", ErrBadHandle, handle)
	}

	r := strings.NewReplacer(
		"{region}", url.PathEscape(Region(server)),
		"{server}", url.PathEscape(strings.ToUpper(server)),
		"{name}", url.PathEscape(name),
		"{tag}", url.PathEscape(tag),
		"{slug}", url.PathEscape(name+"-"+tag),
	)
	return r.Replace(f.template), nil
}

// FetchRank implements Fetcher.
func (f *HTTPFetcher) FetchRank(ctx context.Context, server, handle string) (*Result, error) {
	target, err := f.URL(server, handle)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rank request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return &res, nil
}
