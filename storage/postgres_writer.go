package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"renov-scraper/models"
	"renov-scraper/utils"
)

// listingColumns is the insert column order; listingArgs must match it.
var listingColumns = []string{
	"external_id", "source_id", "source_name", "source_url",
	"title", "description", "price", "property_type",
	"city", "department", "region", "zip_code", "lat", "lng",
	"surface", "rooms", "bedrooms", "images",
	"renovation_score", "renovation_keywords", "fingerprint", "status",
	"created_at", "updated_at",
}

// PostgresWriter persists canonical listings to PostgreSQL, upserting on
// external_id.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                  SERIAL PRIMARY KEY,
			external_id         VARCHAR(64)  UNIQUE NOT NULL,
			source_id           VARCHAR(32)  NOT NULL,
			source_name         VARCHAR(64)  NOT NULL DEFAULT '',
			source_url          TEXT         NOT NULL DEFAULT '',
			title               TEXT         NOT NULL DEFAULT '',
			description         TEXT         NOT NULL DEFAULT '',
			price               INTEGER      NOT NULL DEFAULT 0,
			property_type       VARCHAR(16)  NOT NULL DEFAULT 'other',
			city                TEXT         NOT NULL DEFAULT '',
			department          TEXT         NOT NULL DEFAULT '',
			region              TEXT         NOT NULL DEFAULT '',
			zip_code            VARCHAR(10)  NOT NULL DEFAULT '',
			lat                 DOUBLE PRECISION,
			lng                 DOUBLE PRECISION,
			surface             INTEGER,
			rooms               INTEGER,
			bedrooms            INTEGER,
			images              TEXT[]       NOT NULL DEFAULT '{}',
			renovation_score    SMALLINT     NOT NULL DEFAULT 0,
			renovation_keywords TEXT[]       NOT NULL DEFAULT '{}',
			fingerprint         CHAR(64)     NOT NULL,
			status              VARCHAR(16)  NOT NULL DEFAULT 'active',
			created_at          TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at          TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_fingerprint   ON listings(fingerprint);
		CREATE INDEX IF NOT EXISTS idx_listings_price         ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_city          ON listings(city);
		CREATE INDEX IF NOT EXISTS idx_listings_property_type ON listings(property_type);
		CREATE INDEX IF NOT EXISTS idx_listings_score         ON listings(renovation_score);
	`)
	return err
}

// Write upserts all listings in batches. A listing already stored under the
// same external_id has its content refreshed; created_at is preserved.
func (pw *PostgresWriter) Write(ctx context.Context, listings []*models.Listing) error {
	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		query, args := buildUpsert(listings[i:end])
		if query == "" {
			continue
		}
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch %d: %w", i/batchSize, err)
		}
	}
	return nil
}

// buildUpsert renders a multi-row INSERT ... ON CONFLICT for batch. Repeated
// external ids keep their last occurrence, since Postgres rejects a batch
// touching the same row twice.
func buildUpsert(batch []*models.Listing) (string, []any) {
	last := make(map[string]int, len(batch))
	for i, l := range batch {
		last[l.ExternalID] = i
	}

	n := len(listingColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*n)

	for i, l := range batch {
		if l.ExternalID == "" || last[l.ExternalID] != i {
			continue
		}
		base := len(valueStrings) * n
		placeholders := make([]string, n)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, listingArgs(l)...)
	}
	if len(valueStrings) == 0 {
		return "", nil
	}

	updates := make([]string, 0, n)
	for _, col := range listingColumns {
		if col == "external_id" || col == "created_at" {
			continue
		}
		updates = append(updates, col+" = EXCLUDED."+col)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (%s)
		VALUES %s
		ON CONFLICT (external_id) DO UPDATE SET %s
	`, strings.Join(listingColumns, ", "), strings.Join(valueStrings, ","), strings.Join(updates, ", "))

	return query, valueArgs
}

func listingArgs(l *models.Listing) []any {
	var lat, lng sql.NullFloat64
	if l.Location.Coords != nil {
		lat = sql.NullFloat64{Float64: l.Location.Coords.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: l.Location.Coords.Lng, Valid: true}
	}
	created, updated := l.CreatedAt, l.UpdatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}

	return []any{
		l.ExternalID, l.SourceID, l.SourceName, l.SourceURL,
		l.Title, l.Description, l.Price, string(l.PropertyType),
		l.Location.City, l.Location.Department, l.Location.Region, l.Location.ZipCode, lat, lng,
		nullInt(l.Surface), nullInt(l.Rooms), nullInt(l.Bedrooms), pq.Array(l.Images),
		l.RenovationScore, pq.Array(l.RenovationKeywords), l.Fingerprint, l.Status,
		created, updated,
	}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// FingerprintOwners returns the external id stored for each known fingerprint.
func (pw *PostgresWriter) FingerprintOwners(ctx context.Context, fingerprints []string) (map[string]string, error) {
	owners := make(map[string]string)
	if len(fingerprints) == 0 {
		return owners, nil
	}

	rows, err := pw.db.QueryContext(ctx,
		`SELECT fingerprint, external_id FROM listings WHERE fingerprint = ANY($1) ORDER BY id`,
		pq.Array(fingerprints))
	if err != nil {
		return nil, fmt.Errorf("postgres: fingerprint lookup: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fp, id string
		if err := rows.Scan(&fp, &id); err != nil {
			return nil, fmt.Errorf("postgres: scan fingerprint: %w", err)
		}
		if _, seen := owners[fp]; !seen {
			owners[fp] = id
		}
	}
	return owners, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings for the insight report.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT `+strings.Join(listingColumns, ", ")+`
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var (
			propertyType             string
			lat, lng                 sql.NullFloat64
			surface, rooms, bedrooms sql.NullInt64
		)
		if err := rows.Scan(
			&l.ExternalID, &l.SourceID, &l.SourceName, &l.SourceURL,
			&l.Title, &l.Description, &l.Price, &propertyType,
			&l.Location.City, &l.Location.Department, &l.Location.Region, &l.Location.ZipCode, &lat, &lng,
			&surface, &rooms, &bedrooms, pq.Array(&l.Images),
			&l.RenovationScore, pq.Array(&l.RenovationKeywords), &l.Fingerprint, &l.Status,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.PropertyType = models.PropertyType(propertyType).Canonical()
		if lat.Valid && lng.Valid {
			l.Location.Coords = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		l.Surface = intPtr(surface)
		l.Rooms = intPtr(rooms)
		l.Bedrooms = intPtr(bedrooms)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
