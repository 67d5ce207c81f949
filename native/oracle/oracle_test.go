package oracle

import (
	"errors"
	"fmt"
	"testing"
)

func TestManualSourceRoundTrip(t *testing.T) {
	source := NewManualSource()
	if _, err := source.Latest(); !errors.Is(err, ErrNoObservation) {
		t.Fatalf("expected no observation, got %v", err)
	}
	snap := Snapshot{SolPriceUSD: 100_000_000, LstToSolRate: 1_050_000_000, ConfidenceUSD: 50_000, Slot: 9}
	if err := source.Set(snap); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := source.Latest()
	if err != nil || got != snap {
		t.Fatalf("latest: %+v, %v", got, err)
	}
}

func TestManualSourceRejectsZeroValues(t *testing.T) {
	source := NewManualSource()
	if err := source.Set(Snapshot{SolPriceUSD: 0, LstToSolRate: 1}); err == nil {
		t.Fatalf("expected rejection of zero price")
	}
	if err := source.Set(Snapshot{SolPriceUSD: 1, LstToSolRate: 0}); err == nil {
		t.Fatalf("expected rejection of zero rate")
	}
}

type failingSource struct{}

func (failingSource) Latest() (Snapshot, error) {
	return Snapshot{}, fmt.Errorf("upstream down")
}

func TestAggregatorFallsThroughPriority(t *testing.T) {
	primary := NewManualSource()
	secondary := NewManualSource()
	snap := Snapshot{SolPriceUSD: 95_000_000, LstToSolRate: 1_040_000_000}
	if err := secondary.Set(snap); err != nil {
		t.Fatalf("set: %v", err)
	}
	agg := NewAggregator([]string{"primary", "secondary"})
	agg.Register("primary", primary)
	agg.Register("secondary", secondary)
	got, err := agg.Latest()
	if err != nil || got != snap {
		t.Fatalf("latest: %+v, %v", got, err)
	}
	// Once the primary reports, it wins again.
	better := Snapshot{SolPriceUSD: 96_000_000, LstToSolRate: 1_041_000_000}
	if err := primary.Set(better); err != nil {
		t.Fatalf("set primary: %v", err)
	}
	got, err = agg.Latest()
	if err != nil || got != better {
		t.Fatalf("latest after primary: %+v, %v", got, err)
	}
}

func TestAggregatorSurfacesLastError(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Register("broken", failingSource{})
	if _, err := agg.Latest(); err == nil {
		t.Fatalf("expected error from failing source")
	}
	empty := NewAggregator(nil)
	if _, err := empty.Latest(); !errors.Is(err, ErrNoObservation) {
		t.Fatalf("expected no observation, got %v", err)
	}
}
