package filter

import (
	"context"
	"testing"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/pkg/utils"
)

func stockItem(id string, stock int, score float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.Meta["stock"] = stock
	it.Meta["category"] = "Jewelry"
	return it
}

func TestExprFilter_ShouldFilter(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "alice", Query: "ring", Limit: 10}

	tests := []struct {
		name string
		rule string
		item *core.Item
		want bool
	}{
		{
			name: "out of stock is dropped",
			rule: `item.stock == 0`,
			item: stockItem("p1", 0, 0.8),
			want: true,
		},
		{
			name: "in stock is kept",
			rule: `item.stock == 0`,
			item: stockItem("p1", 5, 0.8),
			want: false,
		},
		{
			name: "compound rule on score and category",
			rule: `item.category == "Jewelry" && item.score < 0.5`,
			item: stockItem("p1", 5, 0.3),
			want: true,
		},
		{
			name: "request context is visible",
			rule: `rctx.user_id == "alice"`,
			item: stockItem("p1", 5, 0.8),
			want: true,
		},
		{
			name: "empty rule keeps everything",
			rule: "",
			item: stockItem("p1", 0, 0.8),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &ExprFilter{Rule: tt.rule}
			got, err := f.ShouldFilter(context.Background(), rctx, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExprFilter_LabelAccess(t *testing.T) {
	it := core.NewItem("p1")
	it.PutLabel("recall_source", utils.Label{Value: "cluster", Source: "recall"})

	f := &ExprFilter{Rule: `label.recall_source == "cluster"`}
	got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{}, it)
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if !got {
		t.Error("label-based rule did not match")
	}
}

func TestNewExprFilter_RejectsBadRule(t *testing.T) {
	if _, err := NewExprFilter(`item.stock ==`); err == nil {
		t.Error("NewExprFilter accepted a malformed rule")
	}
	if _, err := NewExprFilter(`item.stock == 0`); err != nil {
		t.Errorf("NewExprFilter rejected a valid rule: %v", err)
	}
}

func TestFilterNode_DropsMatchedAndSkipsBroken(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		&ExprFilter{Rule: `nonexistent.field ??`}, // broken, must be skipped
		&ExprFilter{Rule: `item.stock == 0`},
	}}
	in := []*core.Item{
		stockItem("keep", 5, 0.8),
		stockItem("drop", 0, 0.9),
	}

	out, err := node.Process(context.Background(), &core.RecommendContext{}, in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "keep" {
		t.Errorf("Process() = %v, want only keep", out)
	}
	if lbl, ok := in[1].Labels["filtered_by"]; !ok || lbl.Value != "filter.expr" {
		t.Errorf("dropped item missing filtered_by label: %v", in[1].Labels)
	}
}
