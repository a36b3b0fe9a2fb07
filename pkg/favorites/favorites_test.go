package favorites

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
	"github.com/Sternrassler/photo-fetcher/pkg/store"
)

// failingKV fails reads and/or writes on demand.
type failingKV struct {
	*store.MemoryKV
	failGet bool
	failSet bool
	sets    int
}

func (f *failingKV) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if f.failGet {
		return nil, false, errors.New("disk unavailable")
	}
	return f.MemoryKV.Get(ctx, name)
}

func (f *failingKV) Set(ctx context.Context, name string, value []byte) error {
	f.sets++
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(ctx, name, value)
}

func records(ids ...string) []photo.Photo {
	out := make([]photo.Photo, len(ids))
	for i, id := range ids {
		out[i] = photo.Photo{ID: id}
	}
	return out
}

func TestLoad_Empty(t *testing.T) {
	set, err := Load(context.Background(), store.NewMemoryKV())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
}

func TestLoad_Hydrates(t *testing.T) {
	kv := store.NewMemoryKV()
	kv.Set(context.Background(), DefaultKey, []byte(`["b","a","a"]`))

	set, err := Load(context.Background(), kv)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !set.IsFavorite("a") || !set.IsFavorite("b") || set.IsFavorite("c") {
		t.Errorf("IDs() = %v, want [a b]", set.IDs())
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
}

func TestLoad_CustomKey(t *testing.T) {
	kv := store.NewMemoryKV()
	kv.Set(context.Background(), "other", []byte(`["x"]`))

	set, err := Load(context.Background(), kv, WithKey("other"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !set.IsFavorite("x") {
		t.Error("expected x from custom key")
	}
}

func TestLoad_Faults(t *testing.T) {
	tests := []struct {
		name string
		kv   KV
	}{
		{name: "read fault", kv: &failingKV{MemoryKV: store.NewMemoryKV(), failGet: true}},
		{name: "corrupt value", kv: func() KV {
			kv := store.NewMemoryKV()
			kv.Set(context.Background(), DefaultKey, []byte(`{"not":"array"}`))
			return kv
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Load(context.Background(), tt.kv)
			if !client.IsKind(err, client.KindPersistenceRead) {
				t.Errorf("Load() error = %v, want persistence read", err)
			}
			if set == nil || set.Len() != 0 {
				t.Fatal("Load() should still return a usable empty set")
			}
		})
	}
}

func TestToggle_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	set, _ := Load(ctx, kv)

	member, err := set.Toggle(ctx, "42")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !member || !set.IsFavorite("42") {
		t.Error("first toggle should add")
	}

	member, err = set.Toggle(ctx, "42")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if member || set.IsFavorite("42") {
		t.Error("second toggle should remove")
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want original 0", set.Len())
	}
}

func TestToggle_PersistsSortedArray(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	set, _ := Load(ctx, kv)

	for _, id := range []string{"30", "10", "20"} {
		if _, err := set.Toggle(ctx, id); err != nil {
			t.Fatalf("Toggle(%s) error = %v", id, err)
		}
	}

	value, found, _ := kv.Get(ctx, DefaultKey)
	if !found || string(value) != `["10","20","30"]` {
		t.Errorf("persisted = %s, want sorted array", value)
	}

	// A new process sees the same set.
	reloaded, err := Load(ctx, kv)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reloaded.IDs(); len(got) != 3 || got[0] != "10" || got[2] != "30" {
		t.Errorf("IDs() = %v", got)
	}
}

func TestToggle_WriteFailureReverts(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: store.NewMemoryKV()}
	set, _ := Load(ctx, kv)

	if _, err := set.Toggle(ctx, "1"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}

	kv.failSet = true

	member, err := set.Toggle(ctx, "1")
	if !client.IsKind(err, client.KindPersistenceWrite) {
		t.Errorf("Toggle() error = %v, want persistence write", err)
	}
	if !member || !set.IsFavorite("1") {
		t.Error("failed removal must leave 1 a favorite")
	}

	member, err = set.Toggle(ctx, "2")
	if err == nil {
		t.Fatal("Toggle() should fail")
	}
	if member || set.IsFavorite("2") {
		t.Error("failed add must not leave 2 a favorite")
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	set, _ := Load(ctx, store.NewMemoryKV())
	set.Toggle(ctx, "c")
	set.Toggle(ctx, "a")

	got := set.Filter(records("a", "b", "c", "d"))
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Filter() = %+v, want [a c]", got)
	}

	if got := set.Filter(nil); got == nil || len(got) != 0 {
		t.Errorf("Filter(nil) = %#v, want empty slice", got)
	}
}

func TestToggle_Concurrent(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	set, _ := Load(ctx, kv)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%5))
			set.Toggle(ctx, id)
			set.IsFavorite(id)
		}(i)
	}
	wg.Wait()

	// Each of the five ids was toggled ten times.
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after an even number of toggles per id", set.Len())
	}

	value, _, _ := kv.Get(ctx, DefaultKey)
	if string(value) != `[]` {
		t.Errorf("persisted = %s, want []", value)
	}
}
