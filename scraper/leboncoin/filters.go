package leboncoin

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"renov-scraper/models"
	"renov-scraper/services"
	"renov-scraper/utils"
)

// LocationCache memoises folded location strings for the lifetime of one run.
// It is owned by the run and safe for use by the detail workers.
type LocationCache struct {
	mu     sync.Mutex
	folded map[string]string
}

// NewLocationCache creates an empty cache.
func NewLocationCache() *LocationCache {
	return &LocationCache{folded: make(map[string]string)}
}

// Fold returns the accent- and case-folded form of s.
func (c *LocationCache) Fold(s string) string {
	if s == "" {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.folded[s]; ok {
		return f
	}
	f := services.Fold(s)
	c.folded[s] = f
	return f
}

// Len reports the number of memoised entries.
func (c *LocationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.folded)
}

// locationToken renders a free-text location as a vendor locations parameter
// value: the city name with a trailing postal code when one was given.
func locationToken(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	fields := strings.Fields(location)
	last := fields[len(fields)-1]
	if len(fields) > 1 && isPostalCode(last) {
		return strings.Join(fields[:len(fields)-1], " ") + "_" + last
	}
	return location
}

func isPostalCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RunContext is the read-only state shared by every stage of one run.
type RunContext struct {
	req       models.SearchRequest
	locations *LocationCache
	logger    *utils.Logger
	minScore  int
}

// ExtractionContext is built once per fetched page and discarded after
// extraction.
type ExtractionContext struct {
	// Root is the decoded application state, nil when absent or malformed.
	Root map[string]any
	Doc  *goquery.Document
	run  *RunContext
}

func newExtractionContext(html string, run *RunContext) (*ExtractionContext, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}
	ec := &ExtractionContext{Doc: doc, run: run}
	if root, ok := parseStateDoc(doc); ok {
		ec.Root = root
	}
	return ec, true
}

// locationMatches reports whether any location component of l contains the
// requested location, ignoring case and accents.
func (r *RunContext) locationMatches(loc models.Location) bool {
	want := r.locations.Fold(r.req.Location)
	if want == "" {
		return true
	}
	// a trailing postal code in the request also matches the zip code alone
	wantCity := want
	if fields := strings.Fields(want); len(fields) > 1 && isPostalCode(fields[len(fields)-1]) {
		wantCity = strings.Join(fields[:len(fields)-1], " ")
	}
	for _, part := range []string{loc.City, loc.Department, loc.Region, loc.ZipCode} {
		f := r.locations.Fold(part)
		if f == "" {
			continue
		}
		if strings.Contains(f, want) || strings.Contains(f, wantCity) || (len(f) >= 3 && strings.Contains(want, f)) {
			return true
		}
	}
	return false
}

// accept applies the caller's filters to a finished listing. It returns a
// short reason on rejection.
func (r *RunContext) accept(l *models.Listing) (bool, string) {
	if want := r.req.PropertyType; want != "" && l.PropertyType != want {
		return false, "type " + string(l.PropertyType)
	}
	if r.req.MaxPrice > 0 && l.Price > r.req.MaxPrice {
		return false, "price"
	}
	if r.req.Location != "" && !r.req.HasCoords() && !l.Location.Empty() && !r.locationMatches(l.Location) {
		return false, "location"
	}
	return true, ""
}

// prefilter is the lenient check applied to DOM candidates before any detail
// fetch: a field only rejects a candidate when it is known.
func (r *RunContext) prefilter(c models.RawCandidate) (bool, string) {
	if want := r.req.PropertyType; want != "" && c.PropertyType != models.PropertyOther && c.PropertyType != want {
		return false, "type " + string(c.PropertyType)
	}
	if r.req.MaxPrice > 0 && c.Price > r.req.MaxPrice {
		return false, "price"
	}
	loc := models.Location{City: c.City, Department: c.Department, Region: c.Region}
	if r.req.Location != "" && !r.req.HasCoords() && !loc.Empty() && !r.locationMatches(loc) {
		return false, "location"
	}
	return true, ""
}
