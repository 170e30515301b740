package leboncoin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"renov-scraper/models"
)

func TestEnrichStructuredAdOverridesCandidate(t *testing.T) {
	state := map[string]any{"props": map[string]any{"pageProps": map[string]any{"ad": map[string]any{
		"list_id": float64(77),
		"subject": "Maison de bourg à rénover",
		"body":    "Maison de 1900 dans son jus, gros œuvre sain.",
		"price":   []any{float64(64000)},
		"attributes": []any{
			map[string]any{"key": "real_estate_type", "value": "1"},
			map[string]any{"key": "square", "value": "140"},
		},
		"location": map[string]any{"city": "Uzerche", "department_name": "Corrèze"},
		"images":   map[string]any{"urls_large": []any{"https://img.example/77.jpg"}},
	}}}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, nextDataPage(t, state, "<p>3 pièces</p>"))
	}))
	defer srv.Close()

	c := models.RawCandidate{
		ID:           "77",
		Title:        "Maison",
		Price:        70000,
		City:         "Uzerche 19140",
		URL:          srv.URL + "/ad/ventes_immobilieres/77",
		PropertyType: models.PropertyOther,
	}

	l := newTestScraper(srv.URL).Enrich(context.Background(), c, newTestRun(models.SearchRequest{}))
	if l == nil {
		t.Fatal("expected a listing")
	}
	if l.Title != "Maison de bourg à rénover" || l.Price != 64000 || l.Location.City != "Uzerche" {
		t.Errorf("detail fields should override: %+v", l)
	}
	if l.PropertyType != models.PropertyHouse || l.SurfaceValue() != 140 {
		t.Errorf("type/surface = %q/%d", l.PropertyType, l.SurfaceValue())
	}
	if l.Rooms == nil || *l.Rooms != 3 {
		t.Errorf("rooms should come from page text, got %v", l.Rooms)
	}
	if len(l.Images) != 1 || l.Images[0] != "https://img.example/77.jpg" {
		t.Errorf("Images = %v", l.Images)
	}
	if l.ExternalID != "leboncoin-77" || l.Fingerprint == "" || l.RenovationScore == 0 {
		t.Errorf("identity/score not set: %+v", l)
	}
}

func TestEnrichMetaBackfill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
<meta property="og:title" content="Grange à réhabiliter">
<meta property="og:description" content="Grange en pierre à réhabiliter, 200 m2 au sol, terrain de 3000 m².">
<meta property="og:image" content="/img/grange.jpg">
<meta property="product:price:amount" content="45000">
</head><body><p>Grange en pierre, 200 m2 au sol</p></body></html>`)
	}))
	defer srv.Close()

	c := models.RawCandidate{ID: "88", URL: srv.URL + "/vi/88.htm", PropertyType: models.PropertyOther}
	l := newTestScraper(srv.URL).Enrich(context.Background(), c, newTestRun(models.SearchRequest{}))
	if l == nil {
		t.Fatal("expected a listing")
	}
	if l.Title != "Grange à réhabiliter" || l.Price != 45000 {
		t.Errorf("meta backfill: title=%q price=%d", l.Title, l.Price)
	}
	if len(l.Images) != 1 || l.Images[0] != srv.URL+"/img/grange.jpg" {
		t.Errorf("Images = %v", l.Images)
	}
	if l.SurfaceValue() != 200 {
		t.Errorf("Surface = %d; want 200", l.SurfaceValue())
	}
	if l.SourceURL != c.URL {
		t.Errorf("SourceURL = %q", l.SourceURL)
	}
}

func TestEnrichPlaceholderImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Maison à rénover</h1></body></html>`)
	}))
	defer srv.Close()

	c := models.RawCandidate{ID: "9", Title: "Maison à rénover", URL: srv.URL + "/vi/9.htm"}
	l := newTestScraper(srv.URL).Enrich(context.Background(), c, newTestRun(models.SearchRequest{}))
	if l == nil || len(l.Images) != 1 || l.Images[0] != models.PlaceholderImage {
		t.Fatalf("expected placeholder image, got %+v", l)
	}
	if l.PropertyType != models.PropertyHouse {
		t.Errorf("type should be inferred from text, got %q", l.PropertyType)
	}
}

func TestEnrichDropsOnFailureOrFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/vi/404.htm" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><meta property="og:title" content="Appartement à rénover">
<meta property="og:price:amount" content="300000"></head><body></body></html>`)
	}))
	defer srv.Close()

	s := newTestScraper(srv.URL)
	tests := []struct {
		name string
		id   string
		req  models.SearchRequest
	}{
		{"not found", "404", models.SearchRequest{}},
		{"type mismatch", "1", models.SearchRequest{PropertyType: models.PropertyHouse}},
		{"over budget", "2", models.SearchRequest{MaxPrice: 250000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.RawCandidate{ID: tt.id, URL: srv.URL + "/vi/" + tt.id + ".htm"}
			if l := s.Enrich(context.Background(), c, newTestRun(tt.req)); l != nil {
				t.Errorf("expected nil, got %+v", l)
			}
		})
	}

	unreachable := models.RawCandidate{ID: "5", URL: "http://127.0.0.1:1/vi/5.htm"}
	if l := s.Enrich(context.Background(), unreachable, newTestRun(models.SearchRequest{})); l != nil {
		t.Errorf("expected nil for unreachable host, got %+v", l)
	}
}
