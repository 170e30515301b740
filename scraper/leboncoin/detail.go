package leboncoin

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"renov-scraper/models"
	"renov-scraper/services"
)

var (
	surfaceTextRegexp  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*m(?:²|2)(?:[^\p{L}\d]|$)`)
	roomsTextRegexp    = regexp.MustCompile(`(?i)(\d+)\s*pi[eè]ces?\b`)
	bedroomsTextRegexp = regexp.MustCompile(`(?i)(\d+)\s*chambres?\b`)

	priceMetaSelectors = []string{
		`meta[property="product:price:amount"]`,
		`meta[property="og:price:amount"]`,
		`meta[itemprop="price"]`,
		`meta[name="price"]`,
	}
)

// Enrich fetches the candidate's detail page and builds the final listing.
// A structured ad on the page overrides the candidate's fields; otherwise
// og:* meta tags and then a plain-text scan fill the gaps. The caller's
// filters are applied last. Enrich returns nil when the page cannot be
// fetched or parsed, or when the listing is filtered out.
func (s *Scraper) Enrich(ctx context.Context, c models.RawCandidate, run *RunContext) *models.Listing {
	html, err := s.fetch(ctx, c.URL)
	if err != nil {
		run.logger.Debug("[leboncoin] Detail fetch failed for %s: %v", c.URL, err)
		return nil
	}
	ec, ok := newExtractionContext(html, run)
	if !ok {
		run.logger.Debug("[leboncoin] Detail page unparseable: %s", c.URL)
		return nil
	}

	l := listingFromCandidate(c, s.cfg.BaseURL)
	if ad, found := FindAd(ec.Root); found {
		overrideListing(l, NormalizeAd(ad, s.cfg.BaseURL))
	} else {
		backfillFromMeta(l, ec.Doc, s.cfg.BaseURL)
	}
	backfillFromText(l, ec.Doc.Find("body").Text())

	if l.PropertyType == models.PropertyOther {
		l.PropertyType = services.InferPropertyType(l.Title + " " + l.Description)
	}
	if len(l.Images) == 0 {
		l.Images = []string{models.PlaceholderImage}
	}

	applyScore(l)
	return s.finish(l, run)
}

// listingFromCandidate promotes the shallow search-page fields.
func listingFromCandidate(c models.RawCandidate, baseURL string) *models.Listing {
	now := time.Now().UTC()
	id := c.ID
	if id == "" {
		id = listingIDFromPath(c.URL)
	}

	l := &models.Listing{
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		Location: models.Location{
			City:       c.City,
			Department: c.Department,
			Region:     c.Region,
		},
		PropertyType: c.PropertyType.Canonical(),
		SourceID:     models.SourceID,
		SourceName:   models.SourceName,
		SourceURL:    c.URL,
		Images:       append([]string(nil), c.Images...),
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if l.SourceURL == "" && id != "" {
		l.SourceURL = DetailURL(baseURL, id)
	}
	if id != "" {
		l.ExternalID = externalID(id)
	}
	return l
}

// overrideListing copies every known field of detail onto l.
func overrideListing(l, detail *models.Listing) {
	if detail.Title != "" {
		l.Title = detail.Title
	}
	if detail.Description != "" {
		l.Description = detail.Description
	}
	if detail.Price > 0 {
		l.Price = detail.Price
	}
	if detail.Location.City != "" {
		l.Location.City = detail.Location.City
	}
	if detail.Location.Department != "" {
		l.Location.Department = detail.Location.Department
	}
	if detail.Location.Region != "" {
		l.Location.Region = detail.Location.Region
	}
	if detail.Location.ZipCode != "" {
		l.Location.ZipCode = detail.Location.ZipCode
	}
	if detail.Location.Coords != nil {
		l.Location.Coords = detail.Location.Coords
	}
	if detail.PropertyType != models.PropertyOther {
		l.PropertyType = detail.PropertyType
	}
	if detail.Surface != nil {
		l.Surface = detail.Surface
	}
	if detail.Rooms != nil {
		l.Rooms = detail.Rooms
	}
	if detail.Bedrooms != nil {
		l.Bedrooms = detail.Bedrooms
	}
	if detail.ExternalID != "" {
		l.ExternalID = detail.ExternalID
	}
	if len(detail.Images) > 0 && detail.Images[0] != models.PlaceholderImage {
		l.Images = detail.Images
	}
}

// backfillFromMeta fills missing fields from Open Graph and price meta tags.
// og:description replaces a shorter search-page snippet.
func backfillFromMeta(l *models.Listing, doc *goquery.Document, baseURL string) {
	if l.Title == "" {
		l.Title = metaContent(doc, `meta[property="og:title"]`)
	}
	if desc := metaContent(doc, `meta[property="og:description"]`, `meta[name="description"]`); len(desc) > len(l.Description) {
		l.Description = desc
	}
	if len(l.Images) == 0 {
		if img := metaContent(doc, `meta[property="og:image"]`); img != "" {
			l.Images = []string{absoluteURL(baseURL, img)}
		}
	}
	if l.Price == 0 {
		if n, ok := services.ParseInt(metaContent(doc, priceMetaSelectors...)); ok && n > 0 {
			l.Price = n
		}
	}
	if l.Location.City == "" {
		l.Location.City = metaContent(doc, `meta[property="og:locality"]`)
	}
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := attr(doc.Find(sel).First(), "content"); v != "" {
			return v
		}
	}
	return ""
}

// backfillFromText scans the page text for metrics still missing.
func backfillFromText(l *models.Listing, text string) {
	if l.Surface == nil {
		l.Surface = textMetric(surfaceTextRegexp, text)
	}
	if l.Rooms == nil {
		l.Rooms = textMetric(roomsTextRegexp, text)
	}
	if l.Bedrooms == nil {
		l.Bedrooms = textMetric(bedroomsTextRegexp, text)
	}
}

func textMetric(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	n, ok := services.ParseInt(strings.TrimSpace(m[1]))
	if !ok || n <= 0 {
		return nil
	}
	return &n
}
