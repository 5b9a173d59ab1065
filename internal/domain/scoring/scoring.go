// Package scoring derives the ranking metrics of analysts and stocks from
// raw report and price data.
package scoring

import (
	"math"

	"github.com/okian/aimrank/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultBuyThreshold  = 0.75 // hidden opinion at or above reads as BUY
	defaultHoldThreshold = 0.4  // hidden opinion at or above reads as HOLD
	defaultHoldBand      = 0.75 // actual price at or above this share of target reads as HOLD
	bullishThreshold     = 0.5
	percent              = 100.0
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithOpinionThresholds sets the hidden opinion cut-offs for BUY and HOLD.
func WithOpinionThresholds(buy, hold float64) Option {
	return func(s *Scorer) {
		if buy > hold && hold > 0 && buy <= 1 {
			s.buyThreshold = buy
			s.holdThreshold = hold
		}
	}
}

// WithHoldBand sets the share of the target price at which an outcome still
// counts as HOLD.
func WithHoldBand(band float64) Option {
	return func(s *Scorer) {
		if band > 0 && band < 1 {
			s.holdBand = band
		}
	}
}

// Evaluation is the outcome of one report.
type Evaluation struct {
	Correct    bool
	ReturnRate float64
	// TargetDiffRate is nil when the published opinion contradicts the
	// hidden one; such reports are left out of the target error average.
	TargetDiffRate *float64
}

// Scorer turns raw dataset records into rankable entities.
type Scorer struct {
	buyThreshold  float64
	holdThreshold float64
	holdBand      float64
}

// New creates a scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		buyThreshold:  defaultBuyThreshold,
		holdThreshold: defaultHoldThreshold,
		holdBand:      defaultHoldBand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Category maps a hidden opinion score onto BUY, HOLD or SELL.
func (s *Scorer) Category(hidden float64) model.Opinion {
	switch {
	case hidden >= s.buyThreshold:
		return model.OpinionBuy
	case hidden >= s.holdThreshold:
		return model.OpinionHold
	default:
		return model.OpinionSell
	}
}

// outcome classifies the realised price against the target.
func (s *Scorer) outcome(target, actual float64) model.Opinion {
	switch {
	case actual >= target:
		return model.OpinionBuy
	case actual >= target*s.holdBand:
		return model.OpinionHold
	default:
		return model.OpinionSell
	}
}

// Evaluate scores a single report. It returns false when the report lacks a
// target or prices and cannot be evaluated.
func (s *Scorer) Evaluate(r model.Report) (Evaluation, bool) {
	if r.TargetPrice <= 0 || r.PublishedPrice <= 0 || r.ComparePrice <= 0 {
		return Evaluation{}, false
	}

	ev := Evaluation{
		ReturnRate: (r.ComparePrice - r.PublishedPrice) / r.PublishedPrice * percent,
	}
	if r.HiddenOpinion != nil {
		ev.Correct = s.Category(*r.HiddenOpinion) == s.outcome(r.TargetPrice, r.ComparePrice)
	}
	if !mismatch(r.SurfaceOpinion, r.HiddenOpinion) {
		diff := (r.TargetPrice - r.ComparePrice) / r.TargetPrice * percent
		ev.TargetDiffRate = &diff
	}
	return ev, true
}

// mismatch reports a BUY with a bearish hidden opinion or a SELL with a
// bullish one.
func mismatch(surface model.Opinion, hidden *float64) bool {
	if hidden == nil || surface == "" {
		return false
	}
	bullish := *hidden >= bullishThreshold
	return (surface == model.OpinionBuy && !bullish) || (surface == model.OpinionSell && bullish)
}

// Aggregate folds evaluations into analyst metrics rounded to two decimals.
// ok is false when there is nothing to aggregate.
func Aggregate(evals []Evaluation) (m model.AnalystMetrics, ok bool) {
	if len(evals) == 0 {
		return model.AnalystMetrics{}, false
	}

	var correct int
	var returns, diffs float64
	var diffCount int
	for _, e := range evals {
		if e.Correct {
			correct++
		}
		returns += e.ReturnRate
		if e.TargetDiffRate != nil {
			diffs += *e.TargetDiffRate
			diffCount++
		}
	}

	m.Accuracy = Round(float64(correct)/float64(len(evals))*percent, 2)
	m.AvgReturn = Round(returns/float64(len(evals)), 2)
	if diffCount > 0 {
		m.TargetError = Round(diffs/float64(diffCount), 2)
	}
	m.ReportCount = len(evals)
	return m, true
}

// ScoreAnalyst replaces the analyst's metrics with ones computed from its
// reports. Analysts without evaluable reports are returned unchanged.
func (s *Scorer) ScoreAnalyst(a model.Analyst) model.Analyst {
	if len(a.Reports) == 0 {
		return a
	}
	evals := make([]Evaluation, 0, len(a.Reports))
	for _, r := range a.Reports {
		if ev, ok := s.Evaluate(r); ok {
			evals = append(evals, ev)
		}
	}
	m, ok := Aggregate(evals)
	if !ok {
		return a
	}
	m.CompositeScore = a.Metrics.CompositeScore
	a.Metrics = m
	return a
}

// Relativize sets each scored analyst's relative metrics to the difference
// from the mean over all scored analysts (those with a report count).
func Relativize(analysts []model.Analyst) {
	var n int
	var sumReturn, sumError float64
	for _, a := range analysts {
		if a.Metrics.ReportCount == 0 {
			continue
		}
		n++
		sumReturn += a.Metrics.AvgReturn
		sumError += a.Metrics.TargetError
	}
	if n == 0 {
		return
	}
	meanReturn := sumReturn / float64(n)
	meanError := sumError / float64(n)
	for i := range analysts {
		if analysts[i].Metrics.ReportCount == 0 {
			continue
		}
		analysts[i].Metrics.RelativeReturn = Round(analysts[i].Metrics.AvgReturn-meanReturn, 2)
		analysts[i].Metrics.RelativeTargetError = Round(analysts[i].Metrics.TargetError-meanError, 2)
	}
}

// ScoreStock fills in upside and buy ratio when they were not supplied.
func (s *Scorer) ScoreStock(st model.Stock) model.Stock {
	if st.Upside == nil {
		st.Upside = UpsidePotential(st.CurrentPrice, st.AvgTargetPrice)
	}
	if st.BuyRatio == nil {
		st.BuyRatio = BuyRatio(st.Opinions)
	}
	return st
}

// UpsidePotential is the percentage gap from the current price to the
// average target, rounded to one decimal. Nil when either price is missing.
func UpsidePotential(current, avgTarget float64) *float64 {
	if current <= 0 || avgTarget <= 0 {
		return nil
	}
	v := Round((avgTarget-current)/current*percent, 1)
	return &v
}

// BuyRatio is the share of BUY opinions in percent, rounded to one decimal.
// Nil when there are no opinions.
func BuyRatio(o model.Opinions) *float64 {
	total := o.Total()
	if total == 0 {
		return nil
	}
	v := Round(float64(o.Buy)/float64(total)*percent, 1)
	return &v
}

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
