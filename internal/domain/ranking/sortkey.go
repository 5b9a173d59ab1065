// Package ranking orders entities by a selected metric, assigns positional
// ranks and cuts the ranked sequence into pages with a compact navigation window.
//
// Every function in this package is pure: inputs are never mutated and results
// are freshly allocated, so callers may invoke them concurrently.
package ranking

import (
	"fmt"
	"math"
	"strings"
)

// Field names a numeric metric an entity exposes for sorting.
type Field string

// Metric fields known to the engine.
const (
	FieldAccuracy    Field = "accuracy"
	FieldAvgReturn   Field = "avg_return"
	FieldTargetError Field = "target_error"
	FieldUpside      Field = "upside"
	FieldBuyRatio    Field = "buy_ratio"
)

// Kind identifies the entity type a sort key applies to.
type Kind string

// Entity kinds.
const (
	KindAnalyst Kind = "analyst"
	KindStock   Kind = "stock"
)

// ParseKind accepts a kind name in singular or plural form.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "analyst", "analysts":
		return KindAnalyst, nil
	case "stock", "stocks":
		return KindStock, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Direction is the "better" direction of a metric.
type Direction int

// Directions. Descending means larger values rank first.
const (
	Descending Direction = -1
	Ascending  Direction = 1
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// Entity is anything the engine can rank: a stable identifier plus numeric
// metrics looked up by field. Metric reports false when the value is absent.
type Entity interface {
	EntityID() string
	Metric(f Field) (float64, bool)
}

// Comparator orders two entities: negative when a ranks before b, zero on a
// tie, positive when a ranks after b.
type Comparator func(a, b Entity) int

// SortKey is a closed identifier selecting one field and its fixed direction.
type SortKey string

// Sort keys. Direction is a property of the key; the two upside and the two
// buy ratio variants are distinct keys.
const (
	SortAccuracy    SortKey = "accuracy"
	SortAvgReturn   SortKey = "avg_return"
	SortTargetError SortKey = "target_error"
	SortUpsideHigh  SortKey = "upside_high"
	SortUpsideLow   SortKey = "upside_low"
	SortBuyHigh     SortKey = "buy_high"
	SortBuyLow      SortKey = "buy_low"
)

// KeySpec describes what a sort key reads and in which order.
type KeySpec struct {
	Key       SortKey   `json:"key"`
	Kind      Kind      `json:"kind"`
	Field     Field     `json:"field"`
	Direction Direction `json:"-"`
	Order     string    `json:"direction"`
}

var specs = []KeySpec{
	{Key: SortAccuracy, Kind: KindAnalyst, Field: FieldAccuracy, Direction: Descending},
	{Key: SortAvgReturn, Kind: KindAnalyst, Field: FieldAvgReturn, Direction: Descending},
	{Key: SortTargetError, Kind: KindAnalyst, Field: FieldTargetError, Direction: Ascending},
	{Key: SortUpsideHigh, Kind: KindStock, Field: FieldUpside, Direction: Descending},
	{Key: SortUpsideLow, Kind: KindStock, Field: FieldUpside, Direction: Ascending},
	{Key: SortBuyHigh, Kind: KindStock, Field: FieldBuyRatio, Direction: Descending},
	{Key: SortBuyLow, Kind: KindStock, Field: FieldBuyRatio, Direction: Ascending},
}

// aliases maps identifiers used by older clients onto canonical keys.
var aliases = map[string]SortKey{
	"accuracyrate":   SortAccuracy,
	"return":         SortAvgReturn,
	"avgreturn":      SortAvgReturn,
	"returnrate":     SortAvgReturn,
	"error":          SortTargetError,
	"targeterror":    SortTargetError,
	"targetdiffrate": SortTargetError,
	"upsidehigh":     SortUpsideHigh,
	"upsidelow":      SortUpsideLow,
	"buyhigh":        SortBuyHigh,
	"buylow":         SortBuyLow,
}

// Spec returns the definition of key.
func Spec(key SortKey) (KeySpec, error) {
	for _, s := range specs {
		if s.Key == key {
			s.Order = s.Direction.String()
			return s, nil
		}
	}
	return KeySpec{}, fmt.Errorf("%w: %q", ErrUnknownSortKey, string(key))
}

// Keys lists the sort keys that apply to kind, in declaration order.
func Keys(kind Kind) []KeySpec {
	out := make([]KeySpec, 0, len(specs))
	for _, s := range specs {
		if s.Kind == kind {
			s.Order = s.Direction.String()
			out = append(out, s)
		}
	}
	return out
}

// ParseSortKey normalizes a client supplied identifier. Canonical names and
// the camelCase names used by the dashboard are both accepted.
func ParseSortKey(s string) (SortKey, error) {
	raw := strings.TrimSpace(s)
	if _, err := Spec(SortKey(raw)); err == nil {
		return SortKey(raw), nil
	}
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(raw))
	if key, ok := aliases[norm]; ok {
		return key, nil
	}
	for _, spec := range specs {
		if strings.ReplaceAll(string(spec.Key), "_", "") == norm {
			return spec.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// Resolve returns the comparator bound to key.
func Resolve(key SortKey) (Comparator, error) {
	spec, err := Spec(key)
	if err != nil {
		return nil, err
	}
	return byField(spec.Field, spec.Direction), nil
}

// ResolveFor is Resolve restricted to the keys of one entity kind.
func ResolveFor(kind Kind, key SortKey) (Comparator, error) {
	spec, err := Spec(key)
	if err != nil {
		return nil, err
	}
	if spec.Kind != kind {
		return nil, fmt.Errorf("%w: %q does not apply to %s", ErrUnknownSortKey, string(key), kind)
	}
	return byField(spec.Field, spec.Direction), nil
}

// byField orders by one field. Entities without the metric (or with NaN)
// sort after every entity that has it, whatever the direction.
func byField(f Field, dir Direction) Comparator {
	return func(a, b Entity) int {
		av, aok := a.Metric(f)
		bv, bok := b.Metric(f)
		aok = aok && !math.IsNaN(av)
		bok = bok && !math.IsNaN(bv)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		switch {
		case av < bv:
			return int(dir) * -1
		case av > bv:
			return int(dir)
		}
		return 0
	}
}
