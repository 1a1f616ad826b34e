package profile

import (
	"context"
	"testing"

	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/searchkit/core"
)

// 注意：完整的在线特征读取需要真实的 Feast Feature Server。
func TestFeastEnricher_Online(t *testing.T) {
	t.Skip("requires a running Feast feature server")

	e, err := NewFeastEnricher("localhost", 6566, "myshop", []string{"user_stats:lifetime_value"})
	if err != nil {
		t.Fatalf("NewFeastEnricher() error = %v", err)
	}
	profiles := map[string]*core.UserProfile{"alice": core.NewUserProfile("alice")}
	if err := e.Enrich(context.Background(), profiles); err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
}

func TestFeastEnricher_DisabledIsNoop(t *testing.T) {
	profiles := map[string]*core.UserProfile{"alice": core.NewUserProfile("alice")}

	tests := []struct {
		name string
		e    *FeastEnricher
	}{
		{name: "nil enricher", e: nil},
		{name: "no client", e: &FeastEnricher{Features: []string{"f:x"}}},
		{name: "no features", e: &FeastEnricher{EntityKey: "user_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.e.Enrich(context.Background(), profiles); err != nil {
				t.Errorf("Enrich() error = %v, want nil for disabled enricher", err)
			}
			if profiles["alice"].Features != nil {
				t.Errorf("disabled enricher wrote features: %v", profiles["alice"].Features)
			}
		})
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name   string
		value  *feasttypes.Value
		want   float64
		wantOK bool
	}{
		{
			name:  "double",
			value: &feasttypes.Value{Val: &feasttypes.Value_DoubleVal{DoubleVal: 3.14}},
			want:  3.14, wantOK: true,
		},
		{
			name:  "float",
			value: &feasttypes.Value{Val: &feasttypes.Value_FloatVal{FloatVal: 1.5}},
			want:  1.5, wantOK: true,
		},
		{
			name:  "int64",
			value: &feasttypes.Value{Val: &feasttypes.Value_Int64Val{Int64Val: 42}},
			want:  42, wantOK: true,
		},
		{
			name:  "int32",
			value: &feasttypes.Value{Val: &feasttypes.Value_Int32Val{Int32Val: 7}},
			want:  7, wantOK: true,
		},
		{
			name:  "bool true",
			value: &feasttypes.Value{Val: &feasttypes.Value_BoolVal{BoolVal: true}},
			want:  1, wantOK: true,
		},
		{
			name:   "string is not numeric",
			value:  &feasttypes.Value{Val: &feasttypes.Value_StringVal{StringVal: "x"}},
			wantOK: false,
		},
		{name: "nil value", value: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := numericValue(tt.value)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("numericValue() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
