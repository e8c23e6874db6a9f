package marketdata

import (
	"fmt"
	"sort"
	"time"
)

// FieldName identifies which value of a quote is meant (mid, bid, ...).
type FieldName string

const (
	MarketValue FieldName = "MarketValue"
	Bid         FieldName = "Bid"
	Ask         FieldName = "Ask"
)

// QuoteID names a single observable value.
type QuoteID struct {
	Name  string
	Field FieldName
}

// NewQuoteID returns a MarketValue quote id.
func NewQuoteID(name string) QuoteID {
	return QuoteID{Name: name, Field: MarketValue}
}

func (q QuoteID) String() string {
	return fmt.Sprintf("%s/%s", q.Name, q.Field)
}

// MarketData is the read-only quote source used by curve nodes.
type MarketData interface {
	ValuationDate() time.Time
	Value(id QuoteID) (float64, error)
}

// ImmutableMarketData is a map-backed MarketData snapshot.
type ImmutableMarketData struct {
	valuationDate time.Time
	values        map[QuoteID]float64
}

// NewImmutableMarketData copies values into a new snapshot.
func NewImmutableMarketData(valuationDate time.Time, values map[QuoteID]float64) *ImmutableMarketData {
	cp := make(map[QuoteID]float64, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &ImmutableMarketData{valuationDate: valuationDate, values: cp}
}

func (md *ImmutableMarketData) ValuationDate() time.Time { return md.valuationDate }

// Value looks up a quote. A quote stored under the same name but another
// field reports ErrQuoteFieldMismatch rather than ErrQuoteNotFound.
func (md *ImmutableMarketData) Value(id QuoteID) (float64, error) {
	if v, ok := md.values[id]; ok {
		return v, nil
	}
	for k := range md.values {
		if k.Name == id.Name {
			return 0, fmt.Errorf("Value: %s requested, have field %s: %w", id, k.Field, ErrQuoteFieldMismatch)
		}
	}
	return 0, fmt.Errorf("Value: %s: %w", id, ErrQuoteNotFound)
}

// WithValue returns a copy with one quote replaced or added.
func (md *ImmutableMarketData) WithValue(id QuoteID, v float64) *ImmutableMarketData {
	out := NewImmutableMarketData(md.valuationDate, md.values)
	out.values[id] = v
	return out
}

// IDs returns the quote ids in name order.
func (md *ImmutableMarketData) IDs() []QuoteID {
	ids := make([]QuoteID, 0, len(md.values))
	for k := range md.values {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Name != ids[j].Name {
			return ids[i].Name < ids[j].Name
		}
		return ids[i].Field < ids[j].Field
	})
	return ids
}

// Len is the number of quotes in the snapshot.
func (md *ImmutableMarketData) Len() int { return len(md.values) }
