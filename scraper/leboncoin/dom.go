package leboncoin

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"renov-scraper/models"
	"renov-scraper/services"
	"renov-scraper/utils"
)

const (
	containerSelector = `[data-qa-id="aditem_container"], [data-test-id="ad"], article, li`
	priceSelector     = `[data-qa-id="aditem_price"], [data-test-id="price"], [class*="price"], [class*="Price"]`
	locationSelector  = `[data-qa-id="aditem_location"], [data-test-id="ad-location"], [class*="location"], [class*="Location"]`
)

var (
	// domPriceRegexp only joins digit groups split by a thousands separator,
	// so "75m2 150 000 €" yields 150 000 rather than 2 150 000.
	domPriceRegexp    = regexp.MustCompile(`\b(\d{1,3}(?:[ .\x{a0}\x{202f}\x{2009}]\d{3})+|\d{2,})[\s\x{a0}\x{202f}]*€`)
	trailingZipRegexp = regexp.MustCompile(`\s*\d{5}\s*$`)
)

// ExtractCandidates is the last-resort extractor for pages without usable
// application state. It collects anchors pointing at detail pages, one
// candidate per distinct href, up to limit.
func ExtractCandidates(doc *goquery.Document, baseURL string, limit int) []models.RawCandidate {
	candidates := make([]models.RawCandidate, 0)
	if doc == nil || limit <= 0 {
		return candidates
	}

	base, _ := url.Parse(baseURL)
	seen := utils.NewURLSet()

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		abs, ok := listingHref(base, href)
		if !ok || !seen.Add(abs) {
			return true
		}
		candidates = append(candidates, candidateFromAnchor(a, abs, baseURL))
		return len(candidates) < limit
	})

	return candidates
}

// listingHref resolves href and reports whether it points at a detail page.
// The query string and fragment are dropped.
func listingHref(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if !isListingPath(u.Path) {
		return "", false
	}
	if base != nil && u.Host != base.Host && !strings.HasSuffix(trimWWW(u.Hostname()), "leboncoin.fr") {
		return "", false
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), true
}

func candidateFromAnchor(a *goquery.Selection, href, baseURL string) models.RawCandidate {
	container := a.Closest(containerSelector)
	if container.Length() == 0 {
		container = a.Parent()
	}
	containerText := strings.Join(strings.Fields(container.Text()), " ")

	id := ""
	if u, err := url.Parse(href); err == nil {
		id = listingIDFromPath(u.Path)
	}

	title := firstString(attr(a, "title"), attr(a, "aria-label"), firstTextLine(container))

	return models.RawCandidate{
		ID:           id,
		Title:        title,
		Description:  containerText,
		Price:        domPrice(container),
		City:         domCity(container),
		Images:       domImages(container, baseURL),
		URL:          href,
		PropertyType: services.InferPropertyType(title + " " + containerText),
	}
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

// firstTextLine returns the first non-empty line of text under sel, skipping
// script and style content.
func firstTextLine(sel *goquery.Selection) string {
	var line string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return false
		}
		if n.Type == html.TextNode {
			for _, l := range strings.Split(n.Data, "\n") {
				if l = strings.TrimSpace(l); l != "" {
					line = l
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	for _, n := range sel.Nodes {
		if walk(n) {
			break
		}
	}
	return line
}

// domPrice applies the price regex to a price-labelled element, then to the
// whole container text.
func domPrice(container *goquery.Selection) int {
	texts := []string{}
	container.Find(priceSelector).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, s.Text())
	})
	texts = append(texts, container.Text())

	for _, t := range texts {
		if m := domPriceRegexp.FindStringSubmatch(t); len(m) == 2 {
			if n, ok := services.ParseInt(m[1]); ok {
				return n
			}
		}
	}
	return 0
}

// domCity takes the first comma- or parenthesis-delimited segment of the
// location element, without a trailing postal code.
func domCity(container *goquery.Selection) string {
	raw := strings.TrimSpace(container.Find(locationSelector).First().Text())
	if raw == "" {
		return ""
	}
	if i := strings.IndexAny(raw, ",("); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(trailingZipRegexp.ReplaceAllString(raw, ""))
}

func domImages(container *goquery.Selection, baseURL string) []string {
	var images []string
	seen := make(map[string]struct{})
	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		for _, name := range []string{"src", "data-src"} {
			src := attr(img, name)
			if src == "" || strings.HasPrefix(src, "data:") {
				continue
			}
			src = absoluteURL(baseURL, src)
			if _, dup := seen[src]; dup {
				continue
			}
			seen[src] = struct{}{}
			images = append(images, src)
		}
	})
	return images
}
