package services

import (
	"testing"

	"renov-scraper/models"
)

func sampleListings() []*models.Listing {
	return []*models.Listing{
		{Title: "Villa A", Price: 200000, Location: models.Location{City: "Lyon"}, PropertyType: models.PropertyHouse, RenovationScore: 40},
		{Title: "Studio B", Price: 50000, Location: models.Location{City: "Lyon"}, PropertyType: models.PropertyApartment, RenovationScore: 15},
		{Title: "Loft C", Price: 120000, Location: models.Location{City: "Lille"}, PropertyType: models.PropertyApartment, RenovationScore: 90},
		{Title: "Grange D", Price: 300000, Location: models.Location{City: "Brest"}, PropertyType: models.PropertyHouse, RenovationScore: 60},
		{Title: "Terrain E", Price: 0, Location: models.Location{City: "Lille"}, PropertyType: models.PropertyLand, RenovationScore: 10},
		{Title: "Ruine F", Price: 30000, PropertyType: models.PropertyOther, RenovationScore: 100},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.TotalListings != 6 {
		t.Errorf("TotalListings: got %d, want 6", r.TotalListings)
	}
	if r.PricedListings != 5 {
		t.Errorf("PricedListings: got %d, want 5", r.PricedListings)
	}
	if r.ListingsByType[models.PropertyApartment] != 2 || r.ListingsByType[models.PropertyHouse] != 2 {
		t.Errorf("ListingsByType: got %v", r.ListingsByType)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.AveragePrice != 140000 {
		t.Errorf("AveragePrice: got %.2f, want 140000", r.AveragePrice)
	}
	if r.MinPrice != 30000 {
		t.Errorf("MinPrice: got %d, want 30000", r.MinPrice)
	}
	if r.MaxPrice != 300000 {
		t.Errorf("MaxPrice: got %d, want 300000", r.MaxPrice)
	}
	if r.MostExpensive == nil || r.MostExpensive.Title != "Grange D" {
		t.Errorf("MostExpensive: got %+v, want Grange D", r.MostExpensive)
	}
}

func TestInsightTopRenovation(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if len(r.TopRenovation) != 5 {
		t.Fatalf("TopRenovation len: got %d, want 5", len(r.TopRenovation))
	}
	if r.TopRenovation[0].Title != "Ruine F" {
		t.Errorf("TopRenovation[0]: got %q, want Ruine F", r.TopRenovation[0].Title)
	}
	if r.AverageRenovationScore != 52.5 {
		t.Errorf("AverageRenovationScore: got %.2f, want 52.5", r.AverageRenovationScore)
	}
}

func TestInsightCityGrouping(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.ListingsByCity["Lyon"] != 2 || r.ListingsByCity["Lille"] != 2 {
		t.Errorf("ListingsByCity: got %v", r.ListingsByCity)
	}
	if _, ok := r.ListingsByCity[""]; ok {
		t.Error("empty city should not be counted")
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 || r.MostExpensive != nil {
		t.Errorf("expected empty report for empty input")
	}
}
