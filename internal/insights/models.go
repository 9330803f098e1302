package insights

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CreditScore feeds the dashboard gauge. Score is on the 300-850 scale.
type CreditScore struct {
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Band      string    `json:"band"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Score bands for the gauge, matching the usual bureau cut-offs.
const (
	BandPoor      = "poor"
	BandFair      = "fair"
	BandGood      = "good"
	BandVeryGood  = "very_good"
	BandExcellent = "excellent"
)

// SpendingEntry is a single categorized expense. Amounts are in minor units.
type SpendingEntry struct {
	Username    string    `json:"username"`
	Category    string    `json:"category"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	SpentAt     time.Time `json:"spent_at"`
}

type SpendingSummaryRequest struct {
	Username string    `json:"username"`
	Range    TimeRange `json:"range"`
}

type CategoryShare struct {
	Category    string  `json:"category"`
	AmountMinor int64   `json:"amount_minor"`
	Percent     float64 `json:"percent"`
}

// SpendingSummary feeds the spending-breakdown chart. Percent values sum to
// ~100 modulo rounding; the chart renders them directly.
type SpendingSummary struct {
	Username   string          `json:"username"`
	Currency   string          `json:"currency"`
	TotalMinor int64           `json:"total_minor"`
	Categories []CategoryShare `json:"categories"`
}

// Loan application funnel stages, in pipeline order.
const (
	StageSubmitted    = "submitted"
	StageDocsVerified = "documents_verified"
	StageUnderwriting = "underwriting"
	StageApproved     = "approved"
	StageDisbursed    = "disbursed"
)

// FunnelStages is the canonical stage order for funnel rendering.
var FunnelStages = []string{
	StageSubmitted,
	StageDocsVerified,
	StageUnderwriting,
	StageApproved,
	StageDisbursed,
}

type FunnelRequest struct {
	Range TimeRange `json:"range"`
}

type FunnelStageStats struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`

	// ConversionPct is relative to the previous stage; 100 for the first.
	ConversionPct float64 `json:"conversion_pct"`
}

// FunnelReport feeds the application-funnel widget.
type FunnelReport struct {
	Stages []FunnelStageStats `json:"stages"`

	// OverallPct is disbursed over submitted.
	OverallPct float64 `json:"overall_pct"`
}
