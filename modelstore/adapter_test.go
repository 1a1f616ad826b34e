package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/embedding"
	"github.com/rushteam/searchkit/store"
)

func sampleBundle() *core.ModelBundle {
	b := core.EmptyBundle()
	b.Version = 42
	b.TrainedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.Space = &embedding.Space{
		IDF:      map[string]float64{"silver": 1.5, "necklace": 1.8},
		MinGram:  1, MaxGram: 3, Sublinear: true, DocCount: 2,
	}
	b.Vectors = map[string]map[string]float64{
		"p1": {"silver": 0.7, "necklace": 0.71},
	}
	b.Clusters = map[int][]string{0: {"p1"}}
	b.ClusterOf = map[string]int{"p1": 0}
	b.Topics = []core.Topic{{ID: 0, Terms: []string{"silver"}, Weight: 1}}
	b.Catalog = map[string]core.CatalogEntry{
		"p1": {ID: "p1", Category: "Jewelry", Price: 120},
	}
	p := core.NewUserProfile("alice")
	p.Clicked["p1"] = true
	b.Profiles = map[string]*core.UserProfile{"alice": p}
	return b
}

func TestAdapter_BlobRoundTrip(t *testing.T) {
	blob := store.NewMemoryStore()
	defer blob.Close()
	a := NewAdapter(blob, "", time.Hour, zerolog.Nop())
	ctx := context.Background()

	want := sampleBundle()
	if err := a.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() = nil, want restored bundle")
	}
	if got.Version != want.Version {
		t.Errorf("Version = %d, want %d", got.Version, want.Version)
	}
	if got.Space == nil || got.Space.IDF["silver"] != 1.5 {
		t.Errorf("Space not restored: %+v", got.Space)
	}
	if got.ClusterOf["p1"] != 0 || len(got.Clusters[0]) != 1 {
		t.Errorf("clusters not restored: %v / %v", got.Clusters, got.ClusterOf)
	}
	if got.Profile("alice") == nil || !got.Profile("alice").HasClicked("p1") {
		t.Errorf("profiles not restored: %v", got.Profiles)
	}
	if !got.Trained() {
		t.Error("restored bundle should count as trained")
	}
}

func TestAdapter_NoPriorModel(t *testing.T) {
	blob := store.NewMemoryStore()
	defer blob.Close()
	a := NewAdapter(blob, "", time.Hour, zerolog.Nop())

	got, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %v, want nil with empty store", got)
	}
}

func TestAdapter_CorruptArtifact(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not json", data: []byte("not json at all {")},
		{name: "wrong schema", data: mustJSON(envelope{Schema: 99, Bundle: sampleBundle()})},
		{name: "missing bundle", data: mustJSON(envelope{Schema: SchemaVersion})},
		{name: "zero version", data: mustJSON(envelope{Schema: SchemaVersion, Bundle: core.EmptyBundle()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := store.NewMemoryStore()
			defer blob.Close()
			if err := blob.Set(context.Background(), DefaultKey, tt.data); err != nil {
				t.Fatalf("seed blob: %v", err)
			}

			a := NewAdapter(blob, "", time.Hour, zerolog.Nop())
			got, err := a.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v, corrupt artifacts must degrade silently", err)
			}
			if got != nil {
				t.Errorf("Load() = %v, want nil for corrupt artifact", got)
			}
		})
	}
}

func TestAdapter_FileFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writer := NewAdapter(store.NewNoopStore(), path, time.Hour, zerolog.Nop())
	ctx := context.Background()

	if err := writer.Save(ctx, sampleBundle()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("fallback file missing: %v", err)
	}

	// Blob is empty (noop), so Load must come from the file.
	reader := NewAdapter(store.NewNoopStore(), path, time.Hour, zerolog.Nop())
	got, err := reader.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || got.Version != 42 {
		t.Fatalf("Load() from file = %v, want version 42", got)
	}
}

func TestAdapter_RestoredMapsNeverNil(t *testing.T) {
	data := mustJSON(envelope{Schema: SchemaVersion, Bundle: &core.ModelBundle{
		Version: 7,
		Space:   &embedding.Space{IDF: map[string]float64{"x": 1}, MinGram: 1, MaxGram: 1, DocCount: 1},
	}})
	blob := store.NewMemoryStore()
	defer blob.Close()
	if err := blob.Set(context.Background(), DefaultKey, data); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	a := NewAdapter(blob, "", time.Hour, zerolog.Nop())
	got, err := a.Load(context.Background())
	if err != nil || got == nil {
		t.Fatalf("Load() = %v, %v", got, err)
	}
	if got.Vectors == nil || got.Clusters == nil || got.ClusterOf == nil ||
		got.Profiles == nil || got.Catalog == nil {
		t.Errorf("restored bundle has nil maps: %+v", got)
	}
}

type downStore struct{}

func (downStore) Name() string                                      { return "down" }
func (downStore) Get(context.Context, string) ([]byte, error)       { return nil, errors.New("backend down") }
func (downStore) Set(context.Context, string, []byte, ...int) error { return errors.New("backend down") }
func (downStore) Delete(context.Context, string) error              { return nil }
func (downStore) Close() error                                      { return nil }

func TestAdapter_SaveErrorsWhenAllConfiguredPathsFail(t *testing.T) {
	ctx := context.Background()
	occupied := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(occupied, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// 目录位置被普通文件占用，文件兜底必然写失败
	badPath := filepath.Join(occupied, "model.json")

	t.Run("file only", func(t *testing.T) {
		a := NewAdapter(nil, badPath, time.Hour, zerolog.Nop())
		if err := a.Save(ctx, sampleBundle()); err == nil {
			t.Error("Save() = nil, want error when the only configured path failed")
		}
	})

	t.Run("blob only", func(t *testing.T) {
		a := NewAdapter(downStore{}, "", time.Hour, zerolog.Nop())
		if err := a.Save(ctx, sampleBundle()); err == nil {
			t.Error("Save() = nil, want error when the only configured path failed")
		}
	})

	t.Run("both fail", func(t *testing.T) {
		a := NewAdapter(downStore{}, badPath, time.Hour, zerolog.Nop())
		if err := a.Save(ctx, sampleBundle()); err == nil {
			t.Error("Save() = nil, want error when every configured path failed")
		}
	})

	t.Run("blob fails but file succeeds", func(t *testing.T) {
		a := NewAdapter(downStore{}, filepath.Join(t.TempDir(), "model.json"), time.Hour, zerolog.Nop())
		if err := a.Save(ctx, sampleBundle()); err != nil {
			t.Errorf("Save() error = %v, want nil when one configured path succeeded", err)
		}
	})
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
