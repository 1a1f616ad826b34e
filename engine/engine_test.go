package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/embedding"
	"github.com/rushteam/searchkit/filter"
)

func publishedBundle(t *testing.T) *core.ModelBundle {
	t.Helper()
	docs := map[string]string{
		"p1": "silver necklace jewelry pendant elegant",
		"p2": "silver bracelet jewelry charm",
		"p3": "running shoes sport lightweight",
	}
	corpus := []string{docs["p1"], docs["p2"], docs["p3"]}
	space := embedding.Fit(corpus, embedding.Config{MinGram: 1, MaxGram: 2, SublinearTF: true})
	if space == nil {
		t.Fatal("failed to fit space")
	}

	b := core.EmptyBundle()
	b.Version = 7
	b.TrainedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.Space = space
	for id, d := range docs {
		b.Vectors[id] = space.Transform(d)
	}
	b.Clusters = map[int][]string{0: {"p1", "p2"}, 1: {"p3"}}
	b.ClusterOf = map[string]int{"p1": 0, "p2": 0, "p3": 1}
	b.Topics = []core.Topic{{ID: 0, Terms: []string{"silver", "necklace"}, Weight: 1}}
	b.Catalog = map[string]core.CatalogEntry{
		"p1": {ID: "p1", Category: "Jewelry", Brand: "Lumina", Price: 120, Stock: 30},
		"p2": {ID: "p2", Category: "Jewelry", Brand: "Aurum", Price: 95, Stock: 0},
		"p3": {ID: "p3", Category: "Footwear", Brand: "Strider", Price: 89, Stock: 50},
	}
	alice := core.NewUserProfile("alice")
	alice.PreferredCategories["Jewelry"] = true
	alice.PreferredBrands["Lumina"] = true
	alice.Clicked["p1"] = true
	alice.AvgPrice = 110
	b.Profiles = map[string]*core.UserProfile{"alice": alice}
	return b
}

func TestEngine_NoModelDegradation(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	ctx := context.Background()

	items, err := e.Recommend(ctx, "silver necklace", "alice", 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Recommend() = %v, want empty without a model", items)
	}

	related, err := e.Related(ctx, "p1", "", 5)
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(related) != 0 {
		t.Errorf("Related() = %v, want empty without a model", related)
	}

	insights := e.TrendingInsights()
	if insights.Trained || insights.Version != 0 {
		t.Errorf("TrendingInsights() = %+v, want untrained zero state", insights)
	}
}

func TestEngine_RecommendEndToEnd(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	e.Publish(publishedBundle(t))
	ctx := context.Background()

	items, err := e.Recommend(ctx, "silver jewelry", "alice", 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(items) == 0 {
		t.Fatal("no results for an in-vocabulary query")
	}
	// Both silver products match, but alice's profile favors p1.
	if items[0].ID != "p1" {
		t.Errorf("top result = %s, want personalized p1", items[0].ID)
	}
	for _, it := range items {
		if it.ID == "p3" {
			t.Error("footwear recalled for a jewelry query")
		}
	}
}

func TestEngine_RecommendAnonymous(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	e.Publish(publishedBundle(t))

	items, err := e.Recommend(context.Background(), "silver jewelry", "", 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, it := range items {
		if _, boosted := it.Labels["boost"]; boosted {
			t.Errorf("anonymous request got a personalization boost on %s", it.ID)
		}
	}
}

func TestEngine_FiltersApply(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	outOfStock, err := filter.NewExprFilter(`item.stock == 0`)
	if err != nil {
		t.Fatalf("NewExprFilter() error = %v", err)
	}
	e.Filters = []filter.Filter{outOfStock}
	e.Publish(publishedBundle(t))

	items, err := e.Recommend(context.Background(), "silver jewelry", "", 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, it := range items {
		if it.ID == "p2" {
			t.Error("out-of-stock p2 survived the stock filter")
		}
	}
}

func TestEngine_RelatedFiltersApply(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	outOfStock, err := filter.NewExprFilter(`item.stock == 0`)
	if err != nil {
		t.Fatalf("NewExprFilter() error = %v", err)
	}
	e.Filters = []filter.Filter{outOfStock}
	e.Publish(publishedBundle(t))

	// p1's only cluster sibling is the out-of-stock p2.
	related, err := e.Related(context.Background(), "p1", "", 5)
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	for _, it := range related {
		if it.ID == "p2" {
			t.Errorf("out-of-stock p2 survived the stock rule on the related path, meta=%v", it.Meta)
		}
	}
}

func TestEngine_Related(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	e.Publish(publishedBundle(t))

	related, err := e.Related(context.Background(), "p1", "", 5)
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if len(related) != 1 || related[0].ID != "p2" {
		t.Errorf("Related(p1) = %v, want [p2]", related)
	}

	none, err := e.Related(context.Background(), "unknown", "", 5)
	if err != nil {
		t.Fatalf("Related(unknown) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Related(unknown) = %v, want empty", none)
	}
}

func TestEngine_PublishSwapsAtomically(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	first := publishedBundle(t)
	e.Publish(first)

	second := core.EmptyBundle()
	second.Version = first.Version + 1
	e.Publish(second)

	if got := e.Live(); got != second {
		t.Errorf("Live() = v%d, want the newly published bundle", got.Version)
	}

	// nil publish is ignored, the last good model stays live.
	e.Publish(nil)
	if got := e.Live(); got != second {
		t.Error("nil publish replaced the live bundle")
	}
}

func TestEngine_TrendingInsights(t *testing.T) {
	e := New(core.DefaultEngineConfig(), zerolog.Nop())
	e.Publish(publishedBundle(t))

	insights := e.TrendingInsights()
	if !insights.Trained || insights.Version != 7 {
		t.Errorf("insights = %+v, want trained v7", insights)
	}
	if insights.VectorCount != 3 || insights.ClusterCount != 2 || insights.ProfileCount != 1 {
		t.Errorf("insights counts = %+v, want 3/2/1", insights)
	}
	if len(insights.Topics) != 1 || insights.Topics[0].Terms[0] != "silver" {
		t.Errorf("insights topics = %v", insights.Topics)
	}
}
