package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"renov-scraper/models"
	"renov-scraper/utils"
)

var (
	// numberRegexp captures the first French-formatted number: digits with
	// optional space/dot thousands separators and an optional comma decimal.
	numberRegexp = regexp.MustCompile(`\d{1,3}(?:[ .]\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?`)

	spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2009", " ", "\t", " ")
)

// Cleaner is the last assembly pass over canonical listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises text fields, enforces the listing invariants and drops
// duplicates: first by externalId, then by fingerprint. The first occurrence
// wins.
func (c *Cleaner) Clean(listings []*models.Listing) []*models.Listing {
	seenIDs := make(map[string]struct{})
	seenPrints := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		if l == nil {
			continue
		}
		if l.ExternalID == "" {
			c.logger.Warn("[cleaner] Dropping listing without external id: %s", l.Title)
			continue
		}
		if _, dup := seenIDs[l.ExternalID]; dup {
			c.logger.Debug("[cleaner] Duplicate external id skipped: %s", l.ExternalID)
			continue
		}
		if l.Fingerprint != "" {
			if _, dup := seenPrints[l.Fingerprint]; dup {
				c.logger.Debug("[cleaner] Duplicate fingerprint skipped: %s (%s)", l.ExternalID, l.Title)
				continue
			}
			seenPrints[l.Fingerprint] = struct{}{}
		}
		seenIDs[l.ExternalID] = struct{}{}

		l.Title = normaliseText(l.Title)
		l.Description = strings.TrimSpace(l.Description)
		l.Location.City = normaliseText(l.Location.City)
		l.PropertyType = l.PropertyType.Canonical()
		if l.Price < 0 {
			l.Price = 0
		}
		l.Images = compactImages(l.Images)

		result = append(result, l)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(listings), len(result), len(listings)-len(result))
	return result
}

// compactImages removes blanks and duplicates, falling back to the placeholder.
func compactImages(images []string) []string {
	seen := make(map[string]struct{}, len(images))
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if _, dup := seen[img]; dup {
			continue
		}
		seen[img] = struct{}{}
		out = append(out, img)
	}
	if len(out) == 0 {
		return []string{models.PlaceholderImage}
	}
	return out
}

// ParseNumber extracts the first number from a French-formatted string.
// Examples:
//
//	"150 000 €"   → 150000
//	"1 234,5 m²"  → 1234.5
//	"85,40"       → 85.4
//	"3 pièces"    → 3
func ParseNumber(raw string) (float64, bool) {
	s := spaceReplacer.Replace(raw)
	match := numberRegexp.FindString(s)
	if match == "" {
		return 0, false
	}

	match = strings.NewReplacer(" ", "", ".", "").Replace(thousandsOnly(match))
	match = strings.Replace(match, ",", ".", 1)

	f, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// thousandsOnly keeps a single-dot decimal such as "85.5" intact by turning
// it into a comma decimal before separators are stripped.
func thousandsOnly(s string) string {
	if strings.Count(s, ".") == 1 && !strings.Contains(s, ",") && !strings.Contains(s, " ") {
		if i := strings.Index(s, "."); len(s)-i-1 != 3 {
			return strings.Replace(s, ".", ",", 1)
		}
	}
	return s
}

// ParseInt is ParseNumber rounded to the nearest integer.
func ParseInt(raw string) (int, bool) {
	f, ok := ParseNumber(raw)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}
