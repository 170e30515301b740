package models

import "testing"

func floatPtr(f float64) *float64 { return &f }

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{"empty", SearchRequest{}, false},
		{"full", SearchRequest{Location: "Lyon", PropertyType: PropertyHouse, MaxPrice: 200000, Lat: floatPtr(45.76), Lng: floatPtr(4.83), Radius: 10000}, false},
		{"unknown type", SearchRequest{PropertyType: "castle"}, true},
		{"negative price", SearchRequest{MaxPrice: -1}, true},
		{"lat out of range", SearchRequest{Lat: floatPtr(120), Lng: floatPtr(2)}, true},
		{"lat without lng", SearchRequest{Lat: floatPtr(45)}, true},
		{"bad url", SearchRequest{URL: "not a url"}, true},
		{"vendor url", SearchRequest{URL: "https://www.leboncoin.fr/recherche?category=9"}, false},
	}

	for _, tt := range tests {
		err := tt.req.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() err = %v; wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestPropertyTypeCanonical(t *testing.T) {
	if got := PropertyType("castle").Canonical(); got != PropertyOther {
		t.Errorf("Canonical(castle) = %q; want other", got)
	}
	if got := PropertyLand.Canonical(); got != PropertyLand {
		t.Errorf("Canonical(land) = %q; want land", got)
	}
}
