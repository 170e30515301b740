package storage

import (
	"context"

	"renov-scraper/models"
)

// ListingWriter is the interface any storage backend must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.Listing) error
	Close() error
}

// ListingStore is a sink that can also be queried: by fingerprint, to spot a
// property re-listed under a new vendor id, and in full, for insights.
type ListingStore interface {
	ListingWriter

	// FingerprintOwners maps each already-stored fingerprint to the
	// externalId it is stored under.
	FingerprintOwners(ctx context.Context, fingerprints []string) (map[string]string, error)
	FetchAll(ctx context.Context) ([]*models.Listing, error)
}

// DropRelisted removes listings whose fingerprint is already stored under a
// different externalId. Listings updating their own stored row are kept.
func DropRelisted(listings []*models.Listing, owners map[string]string) (kept []*models.Listing, dropped int) {
	kept = make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if owner, ok := owners[l.Fingerprint]; ok && owner != l.ExternalID {
			dropped++
			continue
		}
		kept = append(kept, l)
	}
	return kept, dropped
}

// Fingerprints collects the non-empty fingerprints of listings.
func Fingerprints(listings []*models.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		if l.Fingerprint != "" {
			out = append(out, l.Fingerprint)
		}
	}
	return out
}
