package leboncoin

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"renov-scraper/config"
	"renov-scraper/models"
	"renov-scraper/services"
	"renov-scraper/utils"
)

// Scraper runs searches against leboncoin and turns the results into
// canonical listings.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

// New creates a ready-to-use leboncoin Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Run executes one search and returns the listings that survive extraction,
// scoring and the caller's filters. It never fails: network and parse
// errors yield fewer listings, possibly none. Cancelling ctx aborts pending
// fetches. The result order is unspecified.
func (s *Scraper) Run(ctx context.Context, req models.SearchRequest) []*models.Listing {
	run := &RunContext{
		req:       req,
		locations: NewLocationCache(),
		logger:    s.logger.With("run_id", uuid.NewString()),
		minScore:  s.cfg.MinRenovationScore,
	}
	run.logger.Info("[leboncoin] Run started — %s", req)

	html, _, ok := s.fetchSearch(ctx, run, resolveSearchURL(s.cfg.BaseURL, req))
	if !ok {
		return []*models.Listing{}
	}

	ec, ok := newExtractionContext(html, run)
	if !ok {
		run.logger.Error("[leboncoin] Search page could not be parsed (%d bytes)", len(html))
		return []*models.Listing{}
	}

	var listings []*models.Listing
	if ads := FindAds(ec.Root); len(ads) > 0 {
		run.logger.Info("[leboncoin] Application state holds %d ads", len(ads))
		listings = s.fromAds(ads, run)
	} else {
		if ec.Root == nil {
			run.logger.Warn("[leboncoin] No application state on search page — falling back to DOM (%d bytes)", len(html))
		} else {
			run.logger.Warn("[leboncoin] Application state has no ads — falling back to DOM (%d bytes)", len(html))
		}
		listings = s.fromDOM(ctx, ec)
	}

	result := services.NewCleaner(run.logger).Clean(listings)
	run.logger.Info("[leboncoin] Run complete — %d listings", len(result))
	return result
}

// fromAds promotes structured ads directly, keeping those above the score
// floor that pass the caller's filters.
func (s *Scraper) fromAds(ads []map[string]any, run *RunContext) []*models.Listing {
	listings := make([]*models.Listing, 0, len(ads))
	for _, ad := range ads {
		l := NormalizeAd(ad, s.cfg.BaseURL)
		if l.ExternalID == "" {
			run.logger.Debug("[leboncoin] Ad without id skipped: %s", l.Title)
			continue
		}
		applyScore(l)
		if l.RenovationScore < run.minScore {
			run.logger.Debug("[leboncoin] %s below score floor (%d)", l.ExternalID, l.RenovationScore)
			continue
		}
		if l := s.finish(l, run); l != nil {
			listings = append(listings, l)
		}
	}
	return listings
}

// fromDOM extracts candidates from the page markup, pre-filters them and
// enriches the survivors from their detail pages.
func (s *Scraper) fromDOM(ctx context.Context, ec *ExtractionContext) []*models.Listing {
	run := ec.run
	candidates := ExtractCandidates(ec.Doc, s.cfg.BaseURL, s.cfg.MaxDOMCandidates)

	// the vendor's own condition filter is trusted when the caller set one
	floor := run.minScore
	if run.req.Condition != "" {
		floor = 0
	}

	kept := make([]models.RawCandidate, 0, len(candidates))
	for _, c := range candidates {
		if ok, reason := run.prefilter(c); !ok {
			run.logger.Debug("[leboncoin] Candidate %s dropped: %s", c.URL, reason)
			continue
		}
		if score := services.Score(c.Title, c.Description).Score; score < floor {
			run.logger.Debug("[leboncoin] Candidate %s below score floor (%d)", c.URL, score)
			continue
		}
		kept = append(kept, c)
	}
	run.logger.Info("[leboncoin] DOM yielded %d candidates, %d kept for detail fetch", len(candidates), len(kept))

	pool := utils.NewWorkerPool(s.cfg.DetailConcurrency, s.cfg.RateLimitMs)
	return utils.MapPool(ctx, pool, kept, func(c models.RawCandidate) (*models.Listing, bool) {
		l := s.Enrich(ctx, c, run)
		return l, l != nil
	})
}

// finish applies the caller's filters to a scored listing and stamps the
// fingerprint. It returns nil when l is filtered out.
func (s *Scraper) finish(l *models.Listing, run *RunContext) *models.Listing {
	if ok, reason := run.accept(l); !ok {
		run.logger.Debug("[leboncoin] %s filtered out: %s", l.ExternalID, reason)
		return nil
	}
	l.Fingerprint = services.Fingerprint(l.Title, l.Price, l.Location.City, l.SurfaceValue())
	return l
}

func applyScore(l *models.Listing) {
	rs := services.Score(l.Title, l.Description)
	l.RenovationScore = rs.Score
	l.RenovationKeywords = rs.Keywords
}
