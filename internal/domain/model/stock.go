package model

import "github.com/okian/aimrank/internal/domain/ranking"

// Opinions counts analyst recommendations on a stock.
type Opinions struct {
	Buy  int `json:"buy" koanf:"buy"`
	Hold int `json:"hold" koanf:"hold"`
	Sell int `json:"sell" koanf:"sell"`
}

// Total is the number of recorded opinions.
func (o Opinions) Total() int { return o.Buy + o.Hold + o.Sell }

// Stock is a covered equity. Upside and BuyRatio are derived and stay nil
// when the inputs needed to compute them are missing.
type Stock struct {
	Ticker         string   `json:"ticker" koanf:"ticker"`
	Name           string   `json:"name" koanf:"name"`
	Sector         string   `json:"sector" koanf:"sector"`
	CurrentPrice   float64  `json:"current_price" koanf:"current_price"`
	AvgTargetPrice float64  `json:"avg_target_price" koanf:"avg_target_price"`
	Opinions       Opinions `json:"opinions" koanf:"opinions"`
	Upside         *float64 `json:"upside" koanf:"upside"`
	BuyRatio       *float64 `json:"buy_ratio" koanf:"buy_ratio"`
}

// EntityID implements ranking.Entity.
func (s Stock) EntityID() string { return s.Ticker }

// Metric implements ranking.Entity.
func (s Stock) Metric(f ranking.Field) (float64, bool) {
	switch f {
	case ranking.FieldUpside:
		return deref(s.Upside)
	case ranking.FieldBuyRatio:
		return deref(s.BuyRatio)
	default:
		return 0, false
	}
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
