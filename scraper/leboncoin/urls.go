package leboncoin

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"renov-scraper/models"
)

const (
	searchPath   = "/recherche"
	categoryPath = "/c/ventes_immobilieres"

	// categoryRealEstateSales is the vendor category id for property sales.
	categoryRealEstateSales = "9"
)

var (
	// listingPathPatterns are the detail-page shapes seen on the vendor site.
	listingPathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^/vi/\d+\.htm/?$`),
		regexp.MustCompile(`^/ad/[a-z_]+/\d+/?$`),
		regexp.MustCompile(`^/ventes_immobilieres/\d+\.htm/?$`),
	}
	listingIDRegexp = regexp.MustCompile(`/(\d+)(?:\.htm)?/?$`)

	// vendorTypeCodes maps canonical types to the real_estate_type parameter.
	vendorTypeCodes = map[models.PropertyType]string{
		models.PropertyHouse:      "1",
		models.PropertyApartment:  "2",
		models.PropertyLand:       "3",
		models.PropertyBuilding:   "5",
		models.PropertyCommercial: "5",
	}

	// fallbackParams survive into the second tier of the fetch chain.
	fallbackParams = []string{"lat", "lng", "radius", "real_estate_type", "global_condition"}
)

// categoryURL is the bare category listing, the last tier of the fetch chain.
func categoryURL(baseURL string) string {
	return baseURL + categoryPath
}

// DetailURL builds the canonical detail-page URL for a vendor id.
func DetailURL(baseURL, id string) string {
	return baseURL + "/vi/" + id + ".htm"
}

// isSearchURL reports whether raw points at a search or category page on the
// vendor host.
func isSearchURL(baseURL, raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	if trimWWW(u.Hostname()) != trimWWW(base.Hostname()) {
		return false
	}
	return u.Path == searchPath || strings.HasPrefix(u.Path, "/c/")
}

func trimWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// resolveSearchURL returns the caller URL when it is a vendor search URL,
// otherwise a URL synthesised from the request fields.
func resolveSearchURL(baseURL string, req models.SearchRequest) string {
	if req.URL != "" && isSearchURL(baseURL, req.URL) {
		return strings.TrimSpace(req.URL)
	}
	return buildSearchURL(baseURL, req)
}

func buildSearchURL(baseURL string, req models.SearchRequest) string {
	q := url.Values{}
	q.Set("category", categoryRealEstateSales)

	if token := locationToken(req.Location); token != "" {
		q.Set("locations", token)
	}
	if code, ok := vendorTypeCodes[req.PropertyType]; ok {
		q.Set("real_estate_type", code)
	}
	if req.MaxPrice > 0 {
		q.Set("price", "min-"+strconv.Itoa(req.MaxPrice))
	}
	if req.HasCoords() {
		q.Set("lat", strconv.FormatFloat(*req.Lat, 'f', -1, 64))
		q.Set("lng", strconv.FormatFloat(*req.Lng, 'f', -1, 64))
		if req.Radius > 0 {
			q.Set("radius", strconv.Itoa(req.Radius))
		}
	}
	if req.SellType != "" {
		q.Set("immo_sell_type", req.SellType)
	}
	if req.Condition != "" {
		q.Set("global_condition", req.Condition)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}

	return baseURL + searchPath + "?" + q.Encode()
}

// fallbackSearchURL rebuilds a search URL keeping only the geographic, type
// and condition parameters of original. Anything else, which may be what
// got the first request rejected, is dropped.
func fallbackSearchURL(baseURL, original string) string {
	q := url.Values{}
	q.Set("category", categoryRealEstateSales)

	if u, err := url.Parse(original); err == nil {
		src := u.Query()
		for _, key := range fallbackParams {
			if v := src.Get(key); v != "" {
				q.Set(key, v)
			}
		}
	}

	return baseURL + searchPath + "?" + q.Encode()
}

// isListingPath reports whether a URL path looks like a vendor detail page.
func isListingPath(path string) bool {
	for _, re := range listingPathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// listingIDFromPath extracts the numeric id from a detail-page path.
func listingIDFromPath(path string) string {
	if m := listingIDRegexp.FindStringSubmatch(path); len(m) == 2 {
		return m[1]
	}
	return ""
}
