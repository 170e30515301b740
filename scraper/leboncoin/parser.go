package leboncoin

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stateScriptSelector locates the serialized application state of a Next.js page.
const stateScriptSelector = `script#__NEXT_DATA__`

// ParseState finds the embedded application-state script in html and decodes
// it. It reports false when the script is missing, empty or not valid JSON.
func ParseState(html string) (map[string]any, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}
	return parseStateDoc(doc)
}

func parseStateDoc(doc *goquery.Document) (map[string]any, bool) {
	raw := strings.TrimSpace(doc.Find(stateScriptSelector).First().Text())
	if raw == "" {
		return nil, false
	}

	var root map[string]any
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil, false
	}
	return root, true
}

// accessor resolves one value out of a decoded JSON object.
type accessor func(map[string]any) (any, bool)

// firstOf tries each accessor in order and returns the first value found.
func firstOf(obj map[string]any, accessors ...accessor) (any, bool) {
	if obj == nil {
		return nil, false
	}
	for _, get := range accessors {
		if v, ok := get(obj); ok {
			return v, true
		}
	}
	return nil, false
}

// path returns an accessor that walks nested object keys. Numeric array
// indexes are written as "[0]".
func path(keys ...string) accessor {
	return func(obj map[string]any) (any, bool) {
		var cur any = obj
		for _, k := range keys {
			switch node := cur.(type) {
			case map[string]any:
				v, ok := node[k]
				if !ok {
					return nil, false
				}
				cur = v
			case []any:
				if k != "[0]" || len(node) == 0 {
					return nil, false
				}
				cur = node[0]
			default:
				return nil, false
			}
		}
		if cur == nil {
			return nil, false
		}
		return cur, true
	}
}

// object returns v as a JSON object.
func object(v any, ok bool) (map[string]any, bool) {
	if !ok {
		return nil, false
	}
	m, isMap := v.(map[string]any)
	return m, isMap
}

// adArrayExtractor locates a list of ads somewhere in the application state.
type adArrayExtractor struct {
	name    string
	extract func(root map[string]any) ([]map[string]any, bool)
}

// adArrayExtractors are tried in order; the first non-empty array wins.
var adArrayExtractors = []adArrayExtractor{
	{"pageProps.searchData.ads", atPath("props", "pageProps", "searchData", "ads")},
	{"pageProps.ads", atPath("props", "pageProps", "ads")},
	{"pageProps.initialProps.searchData.ads", atPath("props", "pageProps", "initialProps", "searchData", "ads")},
	{"dehydratedState.queries", dehydratedAds},
	{"ads", atPath("ads")},
}

func atPath(keys ...string) func(map[string]any) ([]map[string]any, bool) {
	get := path(keys...)
	return func(root map[string]any) ([]map[string]any, bool) {
		return adList(get(root))
	}
}

// dehydratedQueries returns the react-query cache entries, wherever the page
// put them.
func dehydratedQueries(root map[string]any) []any {
	v, ok := firstOf(root,
		path("props", "pageProps", "dehydratedState", "queries"),
		path("props", "dehydratedState", "queries"),
		path("dehydratedState", "queries"),
	)
	if !ok {
		return nil
	}
	queries, _ := v.([]any)
	return queries
}

func dehydratedAds(root map[string]any) ([]map[string]any, bool) {
	for _, q := range dehydratedQueries(root) {
		query, ok := q.(map[string]any)
		if !ok {
			continue
		}
		data, ok := object(path("state", "data")(query))
		if !ok {
			continue
		}
		if ads, ok := adList(firstOf(data,
			path("ads"),
			path("pages", "[0]", "ads"),
			path("searchData", "ads"),
		)); ok {
			return ads, true
		}
	}
	return nil, false
}

// adList keeps the object elements of a JSON array. It reports false when
// v is not an array or holds no objects.
func adList(v any, ok bool) ([]map[string]any, bool) {
	if !ok {
		return nil, false
	}
	arr, isArr := v.([]any)
	if !isArr {
		return nil, false
	}
	ads := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if ad, isMap := item.(map[string]any); isMap {
			ads = append(ads, ad)
		}
	}
	return ads, len(ads) > 0
}

// FindAds returns the first non-empty ad array of root. An empty result means
// the caller should fall through to DOM extraction.
func FindAds(root map[string]any) []map[string]any {
	if root == nil {
		return nil
	}
	for _, ex := range adArrayExtractors {
		if ads, ok := ex.extract(root); ok {
			return ads
		}
	}
	return nil
}

// FindAd returns the single ad object of a detail page.
func FindAd(root map[string]any) (map[string]any, bool) {
	if root == nil {
		return nil, false
	}
	if ad, ok := object(path("props", "pageProps", "ad")(root)); ok && looksLikeAd(ad) {
		return ad, true
	}
	for _, q := range dehydratedQueries(root) {
		query, ok := q.(map[string]any)
		if !ok {
			continue
		}
		data, ok := object(path("state", "data")(query))
		if !ok {
			continue
		}
		if looksLikeAd(data) {
			return data, true
		}
		if ad, ok := object(path("ad")(data)); ok && looksLikeAd(ad) {
			return ad, true
		}
	}
	return nil, false
}

func looksLikeAd(obj map[string]any) bool {
	_, ok := firstOf(obj, path("list_id"), path("subject"), path("ad_id"))
	return ok
}
