package model

// Opinion is the published recommendation on a report.
type Opinion string

// Published opinions.
const (
	OpinionBuy  Opinion = "BUY"
	OpinionHold Opinion = "HOLD"
	OpinionSell Opinion = "SELL"
)

// Report is one analyst report with the prices needed to evaluate it.
// ComparePrice is the close at the next opinion change, or one year after
// publication when the opinion did not change.
type Report struct {
	Ticker         string   `json:"ticker" koanf:"ticker"`
	PublishedPrice float64  `json:"published_price" koanf:"published_price"`
	ComparePrice   float64  `json:"compare_price" koanf:"compare_price"`
	TargetPrice    float64  `json:"target_price" koanf:"target_price"`
	SurfaceOpinion Opinion  `json:"surface_opinion" koanf:"surface_opinion"`
	HiddenOpinion  *float64 `json:"hidden_opinion" koanf:"hidden_opinion"` // model score in [0,1]
}
