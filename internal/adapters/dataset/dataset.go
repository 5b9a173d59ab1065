// Package dataset loads the analyst and stock catalog from YAML.
package dataset

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/okian/aimrank/internal/domain/model"
	"github.com/okian/aimrank/internal/domain/scoring"
	"github.com/okian/aimrank/pkg/metrics"
)

//go:embed default.yaml
var defaultDataset []byte

// Dataset is the decoded catalog, scored and ready to store.
type Dataset struct {
	Analysts []model.Analyst `koanf:"analysts"`
	Stocks   []model.Stock   `koanf:"stocks"`
}

// Loader reads a dataset from a file or from the bundled default.
type Loader struct {
	path   string
	raw    []byte
	scorer *scoring.Scorer
	newID  func() string
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithPath reads the dataset from a YAML file instead of the bundled one.
func WithPath(path string) Option {
	return func(l *Loader) {
		l.path = path
	}
}

// WithBytes reads the dataset from in-memory YAML.
func WithBytes(raw []byte) Option {
	return func(l *Loader) {
		if len(raw) > 0 {
			l.raw = raw
		}
	}
}

// WithScorer sets the scorer applied to raw reports and stock prices.
func WithScorer(s *scoring.Scorer) Option {
	return func(l *Loader) {
		if s != nil {
			l.scorer = s
		}
	}
}

// WithIDGenerator sets the function that names analysts lacking an id.
func WithIDGenerator(fn func() string) Option {
	return func(l *Loader) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		raw:    defaultDataset,
		scorer: scoring.New(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Source names where the loader reads from.
func (l *Loader) Source() string {
	if l.path != "" {
		return l.path
	}
	return "embedded"
}

// Load decodes, validates and scores the dataset.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	ds, err := l.load(ctx)
	if err != nil {
		metrics.RecordDatasetLoadError()
		metrics.RecordErrorByComponent("dataset", "load_failed")
		return nil, err
	}
	metrics.RecordDatasetLoad(float64(time.Since(start).Microseconds()) / 1000)
	return ds, nil
}

func (l *Loader) load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	var provider koanf.Provider = rawbytes.Provider(l.raw)
	if l.path != "" {
		provider = file.Provider(l.path)
	}
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadDataset, l.Source(), err)
	}

	var ds Dataset
	if err := k.UnmarshalWithConf("", &ds, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadDataset, l.Source(), err)
	}

	if err := l.prepare(&ds); err != nil {
		return nil, fmt.Errorf("%s: %w", l.Source(), err)
	}
	return &ds, nil
}

// prepare fills missing ids, checks keys and derives metrics.
func (l *Loader) prepare(ds *Dataset) error {
	seen := make(map[string]struct{}, len(ds.Analysts))
	for i := range ds.Analysts {
		a := &ds.Analysts[i]
		if a.ID == "" {
			a.ID = l.newID()
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate analyst id %q", ErrInvalidDataset, a.ID)
		}
		seen[a.ID] = struct{}{}
		*a = l.scorer.ScoreAnalyst(*a)
	}
	scoring.Relativize(ds.Analysts)

	tickers := make(map[string]struct{}, len(ds.Stocks))
	for i := range ds.Stocks {
		st := &ds.Stocks[i]
		if st.Ticker == "" {
			return fmt.Errorf("%w: stock %d (%q) has no ticker", ErrInvalidDataset, i, st.Name)
		}
		if _, dup := tickers[st.Ticker]; dup {
			return fmt.Errorf("%w: duplicate ticker %q", ErrInvalidDataset, st.Ticker)
		}
		tickers[st.Ticker] = struct{}{}
		*st = l.scorer.ScoreStock(*st)
	}
	return nil
}
