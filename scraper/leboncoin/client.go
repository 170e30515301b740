package leboncoin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 10 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("leboncoin: GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// browserHeaders sets the headers of a desktop browser navigation. No cookies
// are sent and Accept-Encoding is left to the transport so gzip is decoded
// transparently.
func browserHeaders(req *http.Request, referer string) {
	h := req.Header
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
	h.Set("Referer", referer)
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("sec-ch-ua", `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`)
	h.Set("sec-ch-ua-mobile", "?0")
	h.Set("sec-ch-ua-platform", `"Windows"`)
	h.Set("sec-fetch-dest", "document")
	h.Set("sec-fetch-mode", "navigate")
	h.Set("sec-fetch-site", "same-origin")
	h.Set("sec-fetch-user", "?1")
}

// fetch performs a single GET and returns the body of a 2xx response.
func (s *Scraper) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("leboncoin: build request %s: %w", rawURL, err)
	}
	browserHeaders(req, categoryURL(s.cfg.BaseURL))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("leboncoin: GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("leboncoin: read body %s: %w", rawURL, err)
	}
	return string(body), nil
}

// fetchSearch walks the fallback chain: the resolved URL, then a URL rebuilt
// from its geographic, type and condition parameters, then the bare category
// page. It stops at the first 2xx.
func (s *Scraper) fetchSearch(ctx context.Context, run *RunContext, resolved string) (string, string, bool) {
	tiers := []struct {
		name string
		url  string
	}{
		{"primary", resolved},
		{"filtered", fallbackSearchURL(s.cfg.BaseURL, resolved)},
		{"category", categoryURL(s.cfg.BaseURL)},
	}

	for _, tier := range tiers {
		html, err := s.fetch(ctx, tier.url)
		if err == nil {
			run.logger.Info("[leboncoin] %s fetch ok — %s (%d bytes of HTML)", tier.name, tier.url, len(html))
			return html, tier.url, true
		}
		var se *StatusError
		if errors.As(err, &se) {
			run.logger.Warn("[leboncoin] %s fetch returned status %d — %s", tier.name, se.StatusCode, tier.url)
		} else {
			run.logger.Warn("[leboncoin] %s fetch failed: %v", tier.name, err)
		}
	}

	run.logger.Error("[leboncoin] All search URLs failed for %s", run.req)
	return "", "", false
}
