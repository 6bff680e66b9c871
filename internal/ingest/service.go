// Package ingest runs the scrape -> extract/score -> upsert pipeline that
// populates the lead store. It never touches rows beyond the upsert: a failed
// fetch or extraction ends the attempt and leaves stored leads alone.
package ingest

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/internal/entity"
	"github.com/kronos-automations/lead-engine/internal/llm"
	"github.com/kronos-automations/lead-engine/internal/repository"
)

// PageFetcher is the transport collaborator (see scrape.Fetcher).
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Stats summarizes one ingestion run.
type Stats struct {
	Candidates int
	Upserted   int
	Skipped    int
}

type Service struct {
	fetcher   PageFetcher
	extractor llm.LeadExtractor
	leads     repository.LeadRepository
	log       *slog.Logger
}

func NewService(fetcher PageFetcher, extractor llm.LeadExtractor, leads repository.LeadRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{fetcher: fetcher, extractor: extractor, leads: leads, log: log}
}

// RunOnce executes a single scrape run against targetURL. Candidates that
// fail per-row upsert are skipped and counted, not fatal: one bad row must
// not drop the rest of a scraped page.
func (s *Service) RunOnce(ctx context.Context, targetURL string) (Stats, error) {
	var stats Stats

	raw, err := s.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		s.log.Error("ingest.fetch_failed", "url", targetURL, "error", err)
		return stats, err
	}

	candidates, _, err := s.extractor.ExtractLeads(ctx, llm.ExtractRequest{
		RawContent: string(raw),
		SourceURL:  targetURL,
	})
	if err != nil {
		s.log.Error("ingest.extract_failed", "url", targetURL, "error", err)
		return stats, err
	}
	stats.Candidates = len(candidates)

	for _, cand := range candidates {
		sourceURL := CandidateSourceURL(targetURL, cand.AgencyName)
		lead, err := s.leads.UpsertByURL(ctx, sourceURL, entity.LeadFields{
			CompanyName: cand.AgencyName,
			Score:       cand.LeadScore,
			Sector:      constants.Sector(cand.Sector),
			City:        cand.City,
			Phone:       cand.Phone,
		})
		if err != nil {
			stats.Skipped++
			s.log.Warn("ingest.upsert_skipped", "source_url", sourceURL, "error", err)
			continue
		}
		stats.Upserted++
		s.log.Debug("ingest.upserted", "lead_id", lead.ID, "status", lead.Status)
	}

	s.log.Info("ingest.run_complete", "url", targetURL,
		"candidates", stats.Candidates, "upserted", stats.Upserted, "skipped", stats.Skipped)
	return stats, nil
}

// CandidateSourceURL derives the stable upsert key for a candidate: the
// listing URL plus a fragment slug of the agency name. The scraped page has
// no per-agency URL, so the pair is the closest stable identity we have.
func CandidateSourceURL(listingURL, agencyName string) string {
	return listingURL + "#" + slugify(agencyName)
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
