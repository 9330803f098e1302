package insights

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"
)

var ErrInvalidRequest = errors.New("insights: invalid request")

// Repository abstracts data access for dashboard insights.
//
// IMPORTANT:
// - Per-user methods must filter by user; a viewer only ever sees their own data.
// - Funnel counts are product-wide and not user-scoped.
type Repository interface {
	CreditScore(ctx context.Context, username string) (CreditScore, error)
	ListSpending(ctx context.Context, username string, from, to time.Time) ([]SpendingEntry, error)
	CountFunnelStage(ctx context.Context, stage string, from, to time.Time) (int, error)
}

var ErrNotFound = errors.New("insights: not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Gauge returns the credit score with its band classification.
func (s *Service) Gauge(ctx context.Context, username string) (CreditScore, error) {
	if username == "" {
		return CreditScore{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CreditScore{}, errors.New("insights: repository not configured")
	}

	cs, err := s.repo.CreditScore(ctx, username)
	if err != nil {
		return CreditScore{}, err
	}
	cs.Band = Band(cs.Score)
	return cs, nil
}

// Band classifies a 300-850 score for the gauge.
func Band(score int) string {
	switch {
	case score < 580:
		return BandPoor
	case score < 670:
		return BandFair
	case score < 740:
		return BandGood
	case score < 800:
		return BandVeryGood
	default:
		return BandExcellent
	}
}

// SpendingSummary aggregates a viewer's spending by category with percentage
// shares, largest category first.
func (s *Service) SpendingSummary(ctx context.Context, req SpendingSummaryRequest) (SpendingSummary, error) {
	if req.Username == "" {
		return SpendingSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return SpendingSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return SpendingSummary{}, errors.New("insights: repository not configured")
	}

	entries, err := s.repo.ListSpending(ctx, req.Username, req.Range.From, req.Range.To)
	if err != nil {
		return SpendingSummary{}, err
	}

	out := SpendingSummary{Username: req.Username}
	byCategory := map[string]int64{}
	for _, e := range entries {
		if out.Currency == "" {
			out.Currency = e.Currency
		}
		byCategory[e.Category] += e.AmountMinor
		out.TotalMinor += e.AmountMinor
	}

	for cat, amt := range byCategory {
		share := CategoryShare{Category: cat, AmountMinor: amt}
		if out.TotalMinor > 0 {
			share.Percent = round1(float64(amt) / float64(out.TotalMinor) * 100)
		}
		out.Categories = append(out.Categories, share)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		if out.Categories[i].AmountMinor != out.Categories[j].AmountMinor {
			return out.Categories[i].AmountMinor > out.Categories[j].AmountMinor
		}
		return out.Categories[i].Category < out.Categories[j].Category
	})
	return out, nil
}

// ApplicationFunnel computes stage-over-stage conversion for the loan pipeline.
func (s *Service) ApplicationFunnel(ctx context.Context, req FunnelRequest) (FunnelReport, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return FunnelReport{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return FunnelReport{}, errors.New("insights: repository not configured")
	}

	out := FunnelReport{}
	prev := 0
	for i, stage := range FunnelStages {
		n, err := s.repo.CountFunnelStage(ctx, stage, req.Range.From, req.Range.To)
		if err != nil {
			return FunnelReport{}, err
		}
		stats := FunnelStageStats{Stage: stage, Count: n}
		switch {
		case i == 0:
			stats.ConversionPct = 100
		case prev > 0:
			stats.ConversionPct = round1(float64(n) / float64(prev) * 100)
		}
		out.Stages = append(out.Stages, stats)
		prev = n
	}

	submitted := out.Stages[0].Count
	disbursed := out.Stages[len(out.Stages)-1].Count
	if submitted > 0 {
		out.OverallPct = round1(float64(disbursed) / float64(submitted) * 100)
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
