package source

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/Sternrassler/photo-fetcher/internal/testutil"
	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/fixture"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
	"github.com/Sternrassler/photo-fetcher/pkg/store"
)

// fakeFetcher serves a fixed catalogue and counts calls.
type fakeFetcher struct {
	photos []photo.Photo
	err    error
	calls  int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page, limit int) ([]photo.Photo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return pageOf(f.photos, page, limit), nil
}

// brokenStore fails every operation.
type brokenStore struct {
	loads, saves int
}

func (b *brokenStore) Load(ctx context.Context) ([]photo.Photo, error) {
	b.loads++
	return nil, &client.Error{Kind: client.KindPersistenceRead, Detail: "disk unavailable"}
}

func (b *brokenStore) Save(ctx context.Context, photos []photo.Photo) error {
	b.saves++
	return &client.Error{Kind: client.KindPersistenceWrite, Detail: "disk full"}
}

func TestSource_String(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{Remote(), "remote"},
		{LocalCache(), "local_cache"},
		{Bundled("picsum"), "bundled(picsum)"},
		{Source{Kind: Kind(9)}, "kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRouter_Remote(t *testing.T) {
	remote := &fakeFetcher{photos: testutil.Photos(0, 45)}
	router := NewRouter(remote)

	got, err := router.Fetch(context.Background(), 2, 30, Remote())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 15 || got[0].ID != "30" {
		t.Errorf("Fetch() = %d records starting at %v", len(got), got)
	}
	if remote.calls != 1 {
		t.Errorf("calls = %d, want 1", remote.calls)
	}
}

func TestRouter_RemoteErrorsNormalized(t *testing.T) {
	router := NewRouter(&fakeFetcher{err: errors.New("custom transport blew up")})

	_, err := router.Fetch(context.Background(), 1, 30, Remote())

	var e *client.Error
	if !errors.As(err, &e) || e.Kind != client.KindUnknown {
		t.Errorf("error = %v, want *client.Error of kind unknown", err)
	}
}

func TestRouter_NoRemote(t *testing.T) {
	router := NewRouter(nil)
	if _, err := router.Fetch(context.Background(), 1, 30, Remote()); err == nil {
		t.Error("Fetch() without remote should fail")
	}
}

func TestRouter_Bundled(t *testing.T) {
	router := NewRouter(nil, WithFixtures(fixture.Default()))
	ctx := context.Background()

	first, err := router.Fetch(ctx, 1, 20, Bundled(fixture.DefaultName))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(first) != 20 {
		t.Errorf("page 1 = %d records, want 20", len(first))
	}

	second, err := router.Fetch(ctx, 2, 20, Bundled(fixture.DefaultName))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(second) != 10 || second[0].ID != "20" {
		t.Errorf("page 2 = %+v, want 10 records starting at id 20", second)
	}

	past, err := router.Fetch(ctx, 5, 20, Bundled(fixture.DefaultName))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(past) != 0 {
		t.Errorf("page past the end = %d records, want 0", len(past))
	}
}

func TestRouter_BundledErrors(t *testing.T) {
	loader := fixture.NewLoader(fstest.MapFS{
		"broken.json": {Data: []byte(`[{`)},
	})
	router := NewRouter(nil, WithFixtures(loader))
	ctx := context.Background()

	tests := []struct {
		name     string
		router   *Router
		src      Source
		wantKind client.ErrorKind
	}{
		{name: "missing fixture", router: router, src: Bundled("missing"), wantKind: client.KindFixtureNotFound},
		{name: "broken fixture", router: router, src: Bundled("broken"), wantKind: client.KindFixtureDecoding},
		{name: "no loader", router: NewRouter(nil), src: Bundled("picsum"), wantKind: client.KindFixtureNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.router.Fetch(ctx, 1, 30, tt.src)
			var e *client.Error
			if !errors.As(err, &e) {
				t.Fatalf("error = %v, want *client.Error", err)
			}
			if e.Kind != tt.wantKind || e.Name != tt.src.Name {
				t.Errorf("error = %v (name %q), want %v for %q", e, e.Name, tt.wantKind, tt.src.Name)
			}
		})
	}
}

func TestRouter_LocalCache(t *testing.T) {
	ctx := context.Background()

	t.Run("soft miss", func(t *testing.T) {
		router := NewRouter(nil, WithLocalStore(store.NewMemoryStore(nil)))
		got, err := router.Fetch(ctx, 1, 30, LocalCache())
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Fetch() = %#v, want empty slice", got)
		}
	})

	t.Run("no store configured", func(t *testing.T) {
		got, err := NewRouter(nil).Fetch(ctx, 1, 30, LocalCache())
		if err != nil || len(got) != 0 {
			t.Errorf("Fetch() = %v, %v, want empty, nil", got, err)
		}
	})

	t.Run("stored records", func(t *testing.T) {
		router := NewRouter(nil, WithLocalStore(store.NewMemoryStore(testutil.Photos(0, 3))))
		got, err := router.Fetch(ctx, 1, 30, LocalCache())
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("read fault", func(t *testing.T) {
		router := NewRouter(nil, WithLocalStore(&brokenStore{}))
		_, err := router.Fetch(ctx, 1, 30, LocalCache())
		if !client.IsKind(err, client.KindPersistenceRead) {
			t.Errorf("error = %v, want persistence read", err)
		}
	})
}

func TestRouter_Persist(t *testing.T) {
	ctx := context.Background()

	if err := NewRouter(nil).Persist(ctx, testutil.Photos(0, 1)); err != nil {
		t.Errorf("Persist() without store = %v, want nil", err)
	}

	local := store.NewMemoryStore(nil)
	if err := NewRouter(nil, WithLocalStore(local)).Persist(ctx, testutil.Photos(0, 2)); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if got, _ := local.Load(ctx); len(got) != 2 {
		t.Errorf("stored = %d records, want 2", len(got))
	}

	err := NewRouter(nil, WithLocalStore(&brokenStore{})).Persist(ctx, testutil.Photos(0, 1))
	if !client.IsKind(err, client.KindPersistenceWrite) {
		t.Errorf("Persist() error = %v, want persistence write", err)
	}
}

func TestPageOf(t *testing.T) {
	records := testutil.Photos(0, 5)

	tests := []struct {
		name        string
		page, limit int
		wantFirst   string
		wantLen     int
	}{
		{name: "first page", page: 1, limit: 2, wantFirst: "0", wantLen: 2},
		{name: "last short page", page: 3, limit: 2, wantFirst: "4", wantLen: 1},
		{name: "past the end", page: 4, limit: 2, wantLen: 0},
		{name: "whole set", page: 1, limit: 30, wantFirst: "0", wantLen: 5},
		{name: "invalid page", page: 0, limit: 2, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pageOf(records, tt.page, tt.limit)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.wantFirst {
				t.Errorf("first = %q, want %q", got[0].ID, tt.wantFirst)
			}
		})
	}
}
