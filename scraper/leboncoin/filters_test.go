package leboncoin

import (
	"sync"
	"testing"

	"renov-scraper/models"
)

func TestAcceptFilters(t *testing.T) {
	lat, lng := 45.0, 1.0
	brive := models.Location{City: "Brive-la-Gaillarde", Department: "Corrèze", Region: "Nouvelle-Aquitaine", ZipCode: "19100"}

	tests := []struct {
		name string
		req  models.SearchRequest
		l    models.Listing
		want bool
	}{
		{"no filters", models.SearchRequest{}, models.Listing{PropertyType: models.PropertyLand, Price: 1e6}, true},
		{"type match", models.SearchRequest{PropertyType: models.PropertyHouse}, models.Listing{PropertyType: models.PropertyHouse}, true},
		{"type mismatch", models.SearchRequest{PropertyType: models.PropertyHouse}, models.Listing{PropertyType: models.PropertyOther}, false},
		{"price at ceiling", models.SearchRequest{MaxPrice: 200000}, models.Listing{Price: 200000}, true},
		{"price over ceiling", models.SearchRequest{MaxPrice: 200000}, models.Listing{Price: 200001}, false},
		{"unknown price passes", models.SearchRequest{MaxPrice: 200000}, models.Listing{Price: 0}, true},
		{"city match folded", models.SearchRequest{Location: "BRIVE"}, models.Listing{Location: brive}, true},
		{"department match", models.SearchRequest{Location: "correze"}, models.Listing{Location: brive}, true},
		{"zip match", models.SearchRequest{Location: "19100"}, models.Listing{Location: brive}, true},
		{"city with zip", models.SearchRequest{Location: "Brive-la-Gaillarde 19100"}, models.Listing{Location: models.Location{City: "Brive-la-Gaillarde"}}, true},
		{"location mismatch", models.SearchRequest{Location: "Lyon"}, models.Listing{Location: brive}, false},
		{"unknown location passes", models.SearchRequest{Location: "Lyon"}, models.Listing{}, true},
		{"coords skip location", models.SearchRequest{Location: "Lyon", Lat: &lat, Lng: &lng}, models.Listing{Location: brive}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.l
			if got, reason := newTestRun(tt.req).accept(&l); got != tt.want {
				t.Errorf("accept = %v (%s); want %v", got, reason, tt.want)
			}
		})
	}
}

func TestPrefilterIsLenient(t *testing.T) {
	run := newTestRun(models.SearchRequest{PropertyType: models.PropertyHouse, MaxPrice: 100000, Location: "Tulle"})

	tests := []struct {
		name string
		c    models.RawCandidate
		want bool
	}{
		{"all unknown", models.RawCandidate{PropertyType: models.PropertyOther}, true},
		{"known type mismatch", models.RawCandidate{PropertyType: models.PropertyApartment}, false},
		{"known price over", models.RawCandidate{PropertyType: models.PropertyOther, Price: 150000}, false},
		{"known city mismatch", models.RawCandidate{PropertyType: models.PropertyOther, City: "Lyon"}, false},
		{"all matching", models.RawCandidate{PropertyType: models.PropertyHouse, Price: 90000, City: "Tulle"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, reason := run.prefilter(tt.c); got != tt.want {
				t.Errorf("prefilter = %v (%s); want %v", got, reason, tt.want)
			}
		})
	}
}

func TestLocationCacheIsPerInstance(t *testing.T) {
	a := NewLocationCache()
	b := NewLocationCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := a.Fold("Saint-Étienne"); got != "saint-etienne" {
				t.Errorf("Fold = %q", got)
			}
		}()
	}
	wg.Wait()

	if a.Len() != 1 {
		t.Errorf("cache a holds %d entries; want 1", a.Len())
	}
	if b.Len() != 0 {
		t.Errorf("cache b should be untouched, holds %d", b.Len())
	}
}

func TestLocationToken(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"Lyon":             "Lyon",
		"  Tulle 19000 ":   "Tulle_19000",
		"Saint Malo 35400": "Saint Malo_35400",
		"Paris 75":         "Paris 75",
	}
	for in, want := range tests {
		if got := locationToken(in); got != want {
			t.Errorf("locationToken(%q) = %q; want %q", in, got, want)
		}
	}
}
