package pipeline

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/catalog"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/config"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

func matchFixture() []internal.ProductRow {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	return []internal.ProductRow{
		{ID: 1, NameEN: "Cola 500ml", Code: util.StringPtr("CC-01"), EffectiveFrom: &from, EffectiveTo: &to, Status: true},
		{ID: 2, NameEN: "Orange Juice", Status: true},
		{ID: 3, NameEN: "Mineral Water", NameJP: util.StringPtr("ミネラルウォーター"), Status: true},
	}
}

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	return NewMatcher(cfg, matchFixture(), zap.NewNop())
}

func TestMatchExactCodeShortCircuit(t *testing.T) {
	m := newTestMatcher(t)
	delivery := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	res := m.Match(internal.CruiseOrderItem{ItemCode: "CC-01", Description: "whatever"}, delivery)
	if res.Status != internal.MatchMatched || res.Score != 1.0 {
		t.Fatalf("result: %+v", res)
	}
	if res.Product == nil || res.Product.ID != 1 {
		t.Fatalf("product: %+v", res.Product)
	}
}

func TestMatchTimeVeto(t *testing.T) {
	m := newTestMatcher(t)
	delivery := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := m.Match(internal.CruiseOrderItem{ItemCode: "CC-01", Description: "whatever"}, delivery)
	if res.Status != internal.MatchNone {
		t.Fatalf("status: %s", res.Status)
	}
	if res.Score != 1.0 || res.Reason != "time validation failed" {
		t.Fatalf("result: %+v", res)
	}
}

func TestMatchScoreMonotonicity(t *testing.T) {
	m := newTestMatcher(t)
	delivery := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	res := m.Match(internal.CruiseOrderItem{Description: "Orange Juice"}, delivery)
	if res.Status != internal.MatchMatched {
		t.Fatalf("status: %s (score %v)", res.Status, res.Score)
	}
	if res.Product == nil || res.Product.ID != 2 {
		t.Fatalf("best match: %+v", res.Product)
	}

	// An unrelated name must score strictly lower than the exact one.
	_, unrelated := m.bestByName("Diesel Generator")
	_, exact := m.bestByName("Orange Juice")
	if exact <= unrelated {
		t.Fatalf("exact %v must beat unrelated %v", exact, unrelated)
	}
}

func TestMatchJapaneseName(t *testing.T) {
	m := newTestMatcher(t)
	delivery := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	res := m.Match(internal.CruiseOrderItem{Description: "ミネラルウォーター"}, delivery)
	if res.Status != internal.MatchMatched || res.Product == nil || res.Product.ID != 3 {
		t.Fatalf("result: %+v", res)
	}
}

func TestMatchNoCandidate(t *testing.T) {
	m := newTestMatcher(t)
	res := m.Match(internal.CruiseOrderItem{Description: "Diesel Generator"}, time.Time{})
	if res.Status != internal.MatchNone {
		t.Fatalf("status: %s", res.Status)
	}
}

func TestWindowValid(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	bounded := internal.ProductRow{EffectiveFrom: &from, EffectiveTo: &to}
	open := internal.ProductRow{}

	inside := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if !windowValid(inside, bounded) {
		t.Fatal("inside the window must be valid")
	}
	if windowValid(outside, bounded) {
		t.Fatal("outside the window must be vetoed")
	}
	if !windowValid(time.Time{}, open) {
		t.Fatal("open window accepts anything")
	}
	// A date that cannot be compared against a bounded window is a veto.
	if windowValid(time.Time{}, bounded) {
		t.Fatal("zero date against a bounded window must be vetoed")
	}
}

func TestMatchRecoversToError(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	// An index whose score slices are shorter than its product list makes
	// bestByName panic; Match must turn that into an error result instead
	// of taking the whole run down.
	broken := &Matcher{
		cfg: cfg,
		index: &catalog.Index{
			Products: []internal.ProductRow{{ID: 1, NameEN: "Cola"}},
			ByCode:   map[string][]int{},
		},
		log: zap.NewNop(),
	}

	res := broken.Match(internal.CruiseOrderItem{Description: "Cola"}, time.Time{})
	if res.Status != internal.MatchError {
		t.Fatalf("status: %s", res.Status)
	}
	if !strings.Contains(res.Reason, "match failed") {
		t.Fatalf("reason: %q", res.Reason)
	}

	order := internal.CruiseOrder{
		PONumber: "PO666",
		Items: []internal.CruiseOrderItem{
			{Description: "Cola"},
			{Description: "Water"},
		},
	}
	results, stats := broken.MatchOrder(order)
	if len(results) != 2 || stats.Errors != 2 {
		t.Fatalf("one bad item must not stop the rest: %+v", stats)
	}
}

func TestMatchOrderStatistics(t *testing.T) {
	m := newTestMatcher(t)
	order := internal.CruiseOrder{
		PONumber:     "PO123",
		DeliveryDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Items: []internal.CruiseOrderItem{
			{ItemCode: "CC-01", Description: "Cola"},
			{Description: "Orange Juice"},
			{Description: "Diesel Generator"},
		},
	}

	results, stats := m.MatchOrder(order)
	if len(results) != 3 || stats.Total != 3 {
		t.Fatalf("stats: %+v", stats)
	}
	if stats.Matched != 2 || stats.Unmatched != 1 || stats.Errors != 0 {
		t.Fatalf("stats: %+v", stats)
	}
	if stats.MeanScore <= 0 {
		t.Fatalf("mean score: %v", stats.MeanScore)
	}
}
