package models

import "time"

// PropertyType is the closed set of canonical property categories.
type PropertyType string

const (
	PropertyHouse      PropertyType = "house"
	PropertyApartment  PropertyType = "apartment"
	PropertyBuilding   PropertyType = "building"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
	PropertyOther      PropertyType = "other"
)

// Valid reports whether t is one of the canonical values.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyHouse, PropertyApartment, PropertyBuilding, PropertyLand, PropertyCommercial, PropertyOther:
		return true
	}
	return false
}

// Canonical returns t, or PropertyOther when t is outside the enum.
func (t PropertyType) Canonical() PropertyType {
	if t.Valid() {
		return t
	}
	return PropertyOther
}

const (
	SourceID   = "leboncoin"
	SourceName = "Leboncoin"

	StatusActive = "active"

	// PlaceholderImage is used when a listing has no image at all.
	PlaceholderImage = "/images/placeholder-property.jpg"
)

// RawCandidate is a provisional listing surfaced from a search page before
// its detail page has been fetched.
type RawCandidate struct {
	ID           string
	Title        string
	Description  string
	Price        int
	City         string
	Region       string
	Department   string
	Images       []string
	URL          string
	PropertyType PropertyType
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Location groups the administrative location of a listing.
type Location struct {
	City       string    `json:"city" bson:"city"`
	Department string    `json:"department" bson:"department"`
	Region     string    `json:"region" bson:"region"`
	ZipCode    string    `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
	Coords     *GeoPoint `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

// Empty reports whether no location text is known.
func (l Location) Empty() bool {
	return l.City == "" && l.Department == "" && l.Region == "" && l.ZipCode == ""
}

// Listing is the canonical record emitted by the acquisition pipeline.
type Listing struct {
	Title        string       `json:"title" bson:"title"`
	Description  string       `json:"description" bson:"description"`
	Price        int          `json:"price" bson:"price"`
	Location     Location     `json:"location" bson:"location"`
	PropertyType PropertyType `json:"propertyType" bson:"propertyType"`
	Surface      *int         `json:"surface,omitempty" bson:"surface,omitempty"`
	Rooms        *int         `json:"rooms,omitempty" bson:"rooms,omitempty"`
	Bedrooms     *int         `json:"bedrooms,omitempty" bson:"bedrooms,omitempty"`

	SourceID   string `json:"sourceId" bson:"sourceId"`
	SourceName string `json:"sourceName" bson:"sourceName"`
	SourceURL  string `json:"sourceUrl" bson:"sourceUrl"`
	ExternalID string `json:"externalId" bson:"externalId"`

	Images             []string `json:"images" bson:"images"`
	RenovationScore    int      `json:"renovationScore" bson:"renovationScore"`
	RenovationKeywords []string `json:"renovationKeywords" bson:"renovationKeywords"`
	Fingerprint        string   `json:"fingerprint" bson:"fingerprint"`
	Status             string   `json:"status" bson:"status"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SurfaceValue returns the surface in m², or 0 when unknown.
func (l *Listing) SurfaceValue() int {
	if l.Surface == nil {
		return 0
	}
	return *l.Surface
}

// RenovationScore is the output of the text heuristics engine.
type RenovationScore struct {
	Score    int
	Keywords []string
}

// InsightReport holds the computed analytics over a set of listings.
type InsightReport struct {
	TotalListings          int
	PricedListings         int
	AveragePrice           float64
	MinPrice               int
	MaxPrice               int
	AverageRenovationScore float64
	MostExpensive          *Listing
	TopRenovation          []*Listing
	ListingsByType         map[PropertyType]int
	ListingsByCity         map[string]int
}
