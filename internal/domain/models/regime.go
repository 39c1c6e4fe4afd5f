package models

import (
	"strings"
	"time"
)

// RegimeAssessment is the bull-run verdict for one instrument.
// Score and Factors expose the weighted inputs behind Confidence.
type RegimeAssessment struct {
	IsBullRun         bool            `json:"is_bull_run"`
	Confidence        float64         `json:"confidence"`
	StopLossPercent   float64         `json:"stop_loss_percent"`
	LastDetectedLabel string          `json:"last_detected_label"`
	Score             float64         `json:"score"`
	Factors           map[string]bool `json:"factors,omitempty"`
}

// Outcome of a positive detection as reported back by the host.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// DetectionRecord is one positive bull-run detection.
type DetectionRecord struct {
	ID              string  `json:"id"`
	Instrument      string  `json:"instrument"`
	Timestamp       int64   `json:"timestamp"`
	Confidence      float64 `json:"confidence"`
	StopLossPercent float64 `json:"stop_loss_percent"`
	Outcome         Outcome `json:"outcome"`
}

// StopLossState is the last regime confidence shared with the dynamic stop-loss strategy.
// Instrument names the instrument the confidence was computed for.
type StopLossState struct {
	Instrument string  `json:"instrument,omitempty"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// InstrumentSnapshot is one row of a cross-sectional market snapshot.
// Change24h is a percentage.
type InstrumentSnapshot struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
	Change24h float64 `json:"change_24h"`
	Volume24h float64 `json:"volume_24h"`
}

// Sentiment is the overall market mood of a report.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// ReportValidity is how long a MarketAnalysisReport stays usable.
const ReportValidity = 24 * time.Hour

// MarketAnalysisReport is a cross-sectional market summary.
type MarketAnalysisReport struct {
	Sentiment            Sentiment `json:"sentiment"`
	SentimentScore       float64   `json:"sentiment_score"`
	Narratives           []string  `json:"narratives"`
	TierOneInstruments   []string  `json:"tier_one_instruments"`
	TierTwoInstruments   []string  `json:"tier_two_instruments"`
	TierThreeInstruments []string  `json:"tier_three_instruments"`
	WhaleBuying          []string  `json:"whale_buying"`
	WhaleSelling         []string  `json:"whale_selling"`
	WhaleNeutral         []string  `json:"whale_neutral"`
	BreakoutInstruments  []string  `json:"breakout_instruments"`
	GeneratedAt          int64     `json:"generated_at"`
}

// Stale reports whether the report is older than ReportValidity at now.
func (r *MarketAnalysisReport) Stale(now time.Time) bool {
	if r == nil {
		return true
	}
	return now.Sub(time.UnixMilli(r.GeneratedAt)) > ReportValidity
}

// Tier returns 1, 2 or 3 for an instrument listed in a tier, 0 otherwise.
func (r *MarketAnalysisReport) Tier(instrument string) int {
	if r == nil || instrument == "" {
		return 0
	}
	switch {
	case contains(r.TierOneInstruments, instrument):
		return 1
	case contains(r.TierTwoInstruments, instrument):
		return 2
	case contains(r.TierThreeInstruments, instrument):
		return 3
	}
	return 0
}

// IsBreakout reports whether the instrument is on the breakout list.
func (r *MarketAnalysisReport) IsBreakout(instrument string) bool {
	return r != nil && instrument != "" && contains(r.BreakoutInstruments, instrument)
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
