package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"renov-scraper/models"
)

var csvHeader = []string{
	"external_id", "source_id", "title", "price", "property_type",
	"city", "department", "region", "zip_code", "lat", "lng",
	"surface", "rooms", "bedrooms",
	"renovation_score", "renovation_keywords", "fingerprint",
	"source_url", "images", "status", "created_at",
}

// CSVWriter exports canonical listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per listing.
func (c *CSVWriter) Write(_ context.Context, listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		if err := c.writer.Write(listingRecord(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func listingRecord(l *models.Listing) []string {
	lat, lng := "", ""
	if l.Location.Coords != nil {
		lat = strconv.FormatFloat(l.Location.Coords.Lat, 'f', -1, 64)
		lng = strconv.FormatFloat(l.Location.Coords.Lng, 'f', -1, 64)
	}

	return []string{
		l.ExternalID,
		l.SourceID,
		l.Title,
		strconv.Itoa(l.Price),
		string(l.PropertyType),
		l.Location.City,
		l.Location.Department,
		l.Location.Region,
		l.Location.ZipCode,
		lat,
		lng,
		optionalInt(l.Surface),
		optionalInt(l.Rooms),
		optionalInt(l.Bedrooms),
		strconv.Itoa(l.RenovationScore),
		strings.Join(l.RenovationKeywords, ";"),
		l.Fingerprint,
		l.SourceURL,
		strings.Join(l.Images, "|"),
		l.Status,
		l.CreatedAt.Format(time.RFC3339),
	}
}

func optionalInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
