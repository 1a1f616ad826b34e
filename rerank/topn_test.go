package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/searchkit/core"
)

func TestTopNNode_Process(t *testing.T) {
	mkItems := func(n int) []*core.Item {
		out := make([]*core.Item, n)
		for i := range out {
			out[i] = core.NewItem(string(rune('a' + i)))
		}
		return out
	}

	tests := []struct {
		name  string
		n     int
		limit int
		in    int
		want  int
	}{
		{name: "explicit N truncates", n: 2, limit: 10, in: 5, want: 2},
		{name: "falls back to context limit", n: 0, limit: 3, in: 5, want: 3},
		{name: "fewer items than limit", n: 0, limit: 10, in: 4, want: 4},
		{name: "no limit at all keeps everything", n: 0, limit: 0, in: 6, want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			got, err := node.Process(context.Background(), &core.RecommendContext{Limit: tt.limit}, mkItems(tt.in))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}
