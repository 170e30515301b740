package leboncoin

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"renov-scraper/models"
	"renov-scraper/services"
)

// vendorTypeByCode maps real_estate_type attribute codes to canonical types.
var vendorTypeByCode = map[string]models.PropertyType{
	"1": models.PropertyHouse,
	"2": models.PropertyApartment,
	"3": models.PropertyLand,
	"4": models.PropertyOther,
	"5": models.PropertyOther,
}

// vendorLabelTerms are matched against folded vendor labels, in order.
var vendorLabelTerms = []struct {
	term         string
	propertyType models.PropertyType
}{
	{"maison", models.PropertyHouse},
	{"appartement", models.PropertyApartment},
	{"immeuble", models.PropertyBuilding},
	{"batiment", models.PropertyBuilding},
	{"terrain", models.PropertyLand},
	{"local commercial", models.PropertyCommercial},
	{"commerce", models.PropertyCommercial},
	{"bureau", models.PropertyCommercial},
}

// metricMatcher finds a numeric attribute by key or label substring.
type metricMatcher struct {
	fields  []string
	keys    []string
	labels  []string
	exclude []string
}

var (
	surfaceMetric = metricMatcher{
		fields:  []string{"surface", "square", "living_area"},
		keys:    []string{"square", "surface", "living_area"},
		labels:  []string{"surface habitable", "surface"},
		exclude: []string{"land", "plot", "terrain"},
	}
	bedroomsMetric = metricMatcher{
		fields: []string{"bedrooms", "nb_bedrooms"},
		keys:   []string{"bedroom"},
		labels: []string{"chambre"},
	}
	roomsMetric = metricMatcher{
		fields:  []string{"rooms", "nb_rooms"},
		keys:    []string{"rooms"},
		labels:  []string{"piece"},
		exclude: []string{"bed", "bath", "chambre"},
	}
)

// NormalizeAd maps a vendor ad object of unknown shape onto a canonical
// Listing. Every field may be absent or mistyped; missing values become
// zero values, the placeholder image and PropertyOther. Score and
// fingerprint are left to the caller.
func NormalizeAd(ad map[string]any, baseURL string) *models.Listing {
	now := time.Now().UTC()
	id := adID(ad)

	l := &models.Listing{
		Title:        adString(ad, path("subject"), path("title")),
		Description:  adString(ad, path("body"), path("description")),
		Price:        adPrice(ad),
		Location:     adLocation(ad),
		PropertyType: adPropertyType(ad),
		Surface:      adMetric(ad, surfaceMetric),
		Rooms:        adMetric(ad, roomsMetric),
		Bedrooms:     adMetric(ad, bedroomsMetric),
		SourceID:     models.SourceID,
		SourceName:   models.SourceName,
		SourceURL:    adURL(ad, baseURL, id),
		Images:       adImages(ad),
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if id != "" {
		l.ExternalID = externalID(id)
	}
	if l.PropertyType == models.PropertyOther {
		l.PropertyType = services.InferPropertyType(l.Title + " " + l.Description)
	}
	if len(l.Images) == 0 {
		l.Images = []string{models.PlaceholderImage}
	}
	return l
}

func externalID(id string) string {
	return models.SourceID + "-" + id
}

func adID(ad map[string]any) string {
	v, ok := firstOf(ad, path("list_id"), path("id"), path("ad_id"))
	if !ok {
		return ""
	}
	return scalarString(v)
}

func adURL(ad map[string]any, baseURL, id string) string {
	if raw := adString(ad, path("url")); raw != "" {
		return absoluteURL(baseURL, raw)
	}
	if id != "" {
		return DetailURL(baseURL, id)
	}
	return ""
}

// absoluteURL resolves ref against base, returning ref unchanged on error.
func absoluteURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// adPrice resolves the price in priority order; the first non-null scalar wins
// and is coerced to a finite integer or 0. A price object or array whose value
// is null does not stop the chain.
func adPrice(ad map[string]any) int {
	v, ok := firstOf(ad,
		scalar(path("price", "[0]", "value")),
		scalar(path("price", "[0]")),
		scalar(path("price", "value")),
		scalar(path("price")),
		scalar(path("pricing", "price")),
		scalar(path("owner", "price")),
	)
	if !ok {
		return 0
	}
	if n, ok := toInt(v); ok && n > 0 {
		return n
	}
	return 0
}

// scalar narrows get to non-container values.
func scalar(get accessor) accessor {
	return func(obj map[string]any) (any, bool) {
		v, ok := get(obj)
		if !ok {
			return nil, false
		}
		switch v.(type) {
		case map[string]any, []any:
			return nil, false
		}
		return v, true
	}
}

func adLocation(ad map[string]any) models.Location {
	loc, _ := object(path("location")(ad))
	if loc == nil {
		loc = map[string]any{}
	}

	out := models.Location{
		City:       firstString(adString(loc, path("city"), path("city_label")), adString(ad, path("city"))),
		Department: adString(loc, path("department_name"), path("department")),
		Region:     adString(loc, path("region_name"), path("region")),
		ZipCode:    adString(loc, path("zipcode"), path("zip_code")),
	}

	lat, latOK := numberAt(loc, path("lat"), path("latitude"))
	lng, lngOK := numberAt(loc, path("lng"), path("lon"), path("longitude"))
	if latOK && lngOK && (lat != 0 || lng != 0) {
		out.Coords = &models.GeoPoint{Lat: lat, Lng: lng}
	}
	return out
}

// adPropertyType reads the vendor's type code or label. Free-text inference
// is applied by NormalizeAd when this yields PropertyOther.
func adPropertyType(ad map[string]any) models.PropertyType {
	var candidates []any
	if attr, ok := findAttribute(ad, func(key, _ string) bool { return key == "real_estate_type" }); ok {
		candidates = append(candidates, attr["value_label"], attr["value"])
	}
	for _, key := range []string{"real_estate_type", "category_name", "type", "property_type"} {
		candidates = append(candidates, ad[key])
	}

	for _, c := range candidates {
		label := scalarString(c)
		if label == "" {
			continue
		}
		if t, ok := vendorTypeByCode[label]; ok {
			return t
		}
		if t := labelPropertyType(label); t != models.PropertyOther {
			return t
		}
	}
	return models.PropertyOther
}

func labelPropertyType(label string) models.PropertyType {
	folded := services.Fold(label)
	for _, lt := range vendorLabelTerms {
		if strings.Contains(folded, lt.term) {
			return lt.propertyType
		}
	}
	return models.PropertyOther
}

// adMetric reads a metric from the ad's direct fields, then from its
// attributes array.
func adMetric(ad map[string]any, m metricMatcher) *int {
	for _, f := range m.fields {
		if n, ok := toInt(ad[f]); ok && n > 0 {
			return &n
		}
	}

	attr, ok := findAttribute(ad, m.match)
	if !ok {
		return nil
	}
	for _, v := range []any{attr["value"], attr["value_label"], attr["values"]} {
		if n, ok := toInt(v); ok && n > 0 {
			return &n
		}
	}
	return nil
}

func (m metricMatcher) match(key, label string) bool {
	for _, ex := range m.exclude {
		if strings.Contains(key, ex) || strings.Contains(label, ex) {
			return false
		}
	}
	for _, k := range m.keys {
		if strings.Contains(key, k) {
			return true
		}
	}
	for _, l := range m.labels {
		if strings.Contains(label, l) {
			return true
		}
	}
	return false
}

// findAttribute scans the ad's attributes array. match receives the
// lowercased key and the folded label.
func findAttribute(ad map[string]any, match func(key, label string) bool) (map[string]any, bool) {
	arr, _ := ad["attributes"].([]any)
	for _, item := range arr {
		attr, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key := strings.ToLower(scalarString(attr["key"]))
		label := services.Fold(firstString(scalarString(attr["key_label"]), scalarString(attr["label"])))
		if match(key, label) {
			return attr, true
		}
	}
	return nil, false
}

func adImages(ad map[string]any) []string {
	var out []string
	switch imgs := ad["images"].(type) {
	case map[string]any:
		for _, key := range []string{"urls_large", "urls", "urls_thumb"} {
			if list := stringList(imgs[key]); len(list) > 0 {
				return list
			}
		}
		for _, key := range []string{"thumb_url", "small_url"} {
			if s := scalarString(imgs[key]); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		out = stringList(imgs)
	}
	return out
}

// stringList accepts an array of strings or of objects carrying a url.
func stringList(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch x := item.(type) {
		case string:
			if s := strings.TrimSpace(x); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := firstString(scalarString(x["url"]), scalarString(x["src"])); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func adString(obj map[string]any, accessors ...accessor) string {
	for _, get := range accessors {
		v, ok := get(obj)
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

func numberAt(obj map[string]any, accessors ...accessor) (float64, bool) {
	for _, get := range accessors {
		v, ok := get(obj)
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// scalarString renders strings and numbers; other shapes yield "".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	}
	return ""
}

// toFloat coerces JSON numbers and French-formatted numeric strings.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, ok := services.ParseNumber(x)
		if !ok {
			return 0, false
		}
		f = n
	case []any:
		if len(x) == 0 {
			return 0, false
		}
		return toFloat(x[0])
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
