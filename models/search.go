package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SearchRequest is the caller's intent for one pipeline run. It is built once
// and never mutated by the pipeline.
type SearchRequest struct {
	Location     string       `yaml:"location"`
	PropertyType PropertyType `yaml:"propertyType" validate:"omitempty,oneof=house apartment building land commercial other"`
	MaxPrice     int          `yaml:"maxPrice" validate:"min=0"`
	Lat          *float64     `yaml:"lat" validate:"omitempty,latitude"`
	Lng          *float64     `yaml:"lng" validate:"omitempty,longitude"`
	Radius       int          `yaml:"radius" validate:"min=0"`

	// Vendor-specific flags, forwarded verbatim.
	SellType  string `yaml:"sellType"`
	Condition string `yaml:"condition"`
	Sort      string `yaml:"sort"`

	// URL, when it is a vendor search URL, replaces URL synthesis.
	URL string `yaml:"url" validate:"omitempty,url"`
}

// HasCoords reports whether both lat and lng are set.
func (r SearchRequest) HasCoords() bool {
	return r.Lat != nil && r.Lng != nil
}

// Validate checks field ranges and the property type enum.
func (r SearchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("search request: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("search request: %w", err)
	}
	if (r.Lat == nil) != (r.Lng == nil) {
		return fmt.Errorf("search request: lat and lng must be set together")
	}
	return nil
}

// String is used in log lines.
func (r SearchRequest) String() string {
	if r.URL != "" {
		return "url=" + r.URL
	}
	parts := []string{}
	if r.Location != "" {
		parts = append(parts, "location="+r.Location)
	}
	if r.PropertyType != "" {
		parts = append(parts, "type="+string(r.PropertyType))
	}
	if r.MaxPrice > 0 {
		parts = append(parts, fmt.Sprintf("maxPrice=%d", r.MaxPrice))
	}
	if r.HasCoords() {
		parts = append(parts, fmt.Sprintf("lat=%.4f lng=%.4f radius=%d", *r.Lat, *r.Lng, r.Radius))
	}
	if r.Condition != "" {
		parts = append(parts, "condition="+r.Condition)
	}
	if len(parts) == 0 {
		return "(no filters)"
	}
	return strings.Join(parts, " ")
}
