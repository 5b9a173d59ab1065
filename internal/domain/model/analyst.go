// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"strings"

	"github.com/okian/aimrank/internal/domain/ranking"
)

// Analyst is a securities analyst with aggregated performance metrics.
type Analyst struct {
	ID      string         `json:"id" koanf:"id"`
	Name    string         `json:"name" koanf:"name"`
	Firm    string         `json:"firm" koanf:"firm"`
	Sectors []string       `json:"sectors" koanf:"sectors"`
	Metrics AnalystMetrics `json:"metrics" koanf:"metrics"`

	// Reports, when present, are scored into Metrics at load time.
	Reports []Report `json:"-" koanf:"reports"`
}

// AnalystMetrics are percentages unless noted otherwise.
type AnalystMetrics struct {
	Accuracy            float64 `json:"accuracy" koanf:"accuracy"`                           // share of correct calls
	AvgReturn           float64 `json:"avg_return" koanf:"avg_return"`                       // mean return after publication
	TargetError         float64 `json:"target_error" koanf:"target_error"`                   // mean target price miss
	RelativeReturn      float64 `json:"relative_return" koanf:"relative_return"`             // vs. all analysts
	RelativeTargetError float64 `json:"relative_target_error" koanf:"relative_target_error"` // vs. all analysts
	CompositeScore      float64 `json:"composite_score" koanf:"composite_score"`
	ReportCount         int     `json:"report_count" koanf:"report_count"`
}

// EntityID implements ranking.Entity.
func (a Analyst) EntityID() string { return a.ID }

// Metric implements ranking.Entity.
func (a Analyst) Metric(f ranking.Field) (float64, bool) {
	switch f {
	case ranking.FieldAccuracy:
		return a.Metrics.Accuracy, true
	case ranking.FieldAvgReturn:
		return a.Metrics.AvgReturn, true
	case ranking.FieldTargetError:
		return a.Metrics.TargetError, true
	default:
		return 0, false
	}
}

// CoversSector reports whether the analyst lists sector, ignoring case and
// surrounding space. An empty sector matches every analyst.
func (a Analyst) CoversSector(sector string) bool {
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return true
	}
	return slices.ContainsFunc(a.Sectors, func(s string) bool {
		return strings.EqualFold(s, sector)
	})
}
