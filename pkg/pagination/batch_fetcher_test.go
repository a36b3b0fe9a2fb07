package pagination

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
)

// pagedInts serves total sequential ints, failing the pages in fail.
type pagedInts struct {
	total    int
	fail     map[int]error
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	pages []int
}

func (p *pagedInts) FetchPage(ctx context.Context, page, limit int) ([]int, error) {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	p.mu.Lock()
	p.pages = append(p.pages, page)
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, client.NewError(client.KindTransport, ctx.Err())
		}
	}
	if err, ok := p.fail[page]; ok {
		return nil, err
	}

	start := (page - 1) * limit
	out := []int{}
	for i := start; i < min(start+limit, p.total); i++ {
		out = append(out, i)
	}
	return out, nil
}

func testBatchConfig(pageSize int) Config {
	cfg := DefaultConfig()
	cfg.PageSize = pageSize
	cfg.Timeout = time.Second
	return cfg
}

func TestNewBatchFetcher_Defaults(t *testing.T) {
	bf := NewBatchFetcher[int](&pagedInts{}, Config{})

	if bf.config.MaxConcurrency != 4 {
		t.Errorf("MaxConcurrency = %d, want 4", bf.config.MaxConcurrency)
	}
	if bf.config.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", bf.config.Timeout)
	}
	if bf.config.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", bf.config.PageSize, DefaultPageSize)
	}
}

func TestBatchFetcher_FetchPages(t *testing.T) {
	source := &pagedInts{total: 100, delay: 5 * time.Millisecond}
	cfg := testBatchConfig(10)
	cfg.MaxConcurrency = 2
	bf := NewBatchFetcher[int](source, cfg)

	pages, err := bf.FetchPages(context.Background(), 1, 6)
	if err != nil {
		t.Fatalf("FetchPages() error = %v", err)
	}
	if len(pages) != 6 {
		t.Fatalf("len(pages) = %d, want 6", len(pages))
	}
	for page := 1; page <= 6; page++ {
		if got := pages[page]; len(got) != 10 || got[0] != (page-1)*10 {
			t.Errorf("page %d = %v", page, got)
		}
	}
	if source.calls.Load() != 6 {
		t.Errorf("calls = %d, want 6", source.calls.Load())
	}
	if source.peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", source.peak.Load())
	}
}

func TestBatchFetcher_InvalidRange(t *testing.T) {
	bf := NewBatchFetcher[int](&pagedInts{}, testBatchConfig(10))

	tests := []struct {
		name        string
		first, last int
	}{
		{name: "zero first", first: 0, last: 3},
		{name: "inverted", first: 3, last: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := bf.FetchPages(context.Background(), tt.first, tt.last); err == nil {
				t.Error("FetchPages() should reject the range")
			}
		})
	}
}

func TestBatchFetcher_PartialFailure(t *testing.T) {
	failure := client.ValidateStatus(http.StatusInternalServerError)
	source := &pagedInts{total: 100, fail: map[int]error{3: failure}}
	bf := NewBatchFetcher[int](source, testBatchConfig(10))

	pages, err := bf.FetchPages(context.Background(), 1, 5)
	if err == nil {
		t.Fatal("FetchPages() should report the failed page")
	}
	if !errors.Is(err, &client.Error{Kind: client.KindInvalidResponse, StatusCode: http.StatusInternalServerError}) {
		t.Errorf("error = %v, want the page failure wrapped", err)
	}
	if len(pages) != 4 {
		t.Errorf("len(pages) = %d, want 4 partial pages", len(pages))
	}
	if _, ok := pages[3]; ok {
		t.Error("failed page must not be in the result")
	}
}

func TestBatchFetcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &pagedInts{total: 100}
	bf := NewBatchFetcher[int](source, testBatchConfig(10))

	pages, err := bf.FetchPages(ctx, 1, 5)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(pages) != 0 {
		t.Errorf("len(pages) = %d, want 0", len(pages))
	}
}

func TestBatchFetcher_FetchCatalog(t *testing.T) {
	source := &pagedInts{total: 25}
	bf := NewBatchFetcher[int](source, testBatchConfig(10))

	records, err := bf.FetchCatalog(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	if len(records) != 25 {
		t.Fatalf("len(records) = %d, want 25", len(records))
	}
	for i, r := range records {
		if r != i {
			t.Fatalf("records[%d] = %d, want ascending order", i, r)
		}
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name  string
		pages map[int][]int
		want  int
	}{
		{name: "empty", pages: map[int][]int{}, want: 0},
		{name: "all full", pages: map[int][]int{1: {0, 1}, 2: {2, 3}}, want: 4},
		{name: "stops after short page", pages: map[int][]int{1: {0, 1}, 2: {2}, 3: {}}, want: 3},
		{name: "stops at gap", pages: map[int][]int{1: {0, 1}, 3: {4, 5}}, want: 2},
		{name: "empty page terminates", pages: map[int][]int{1: {0, 1}, 2: {}, 3: {4, 5}}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Flatten(tt.pages, 2); len(got) != tt.want {
				t.Errorf("len(Flatten()) = %d, want %d (%v)", len(got), tt.want, got)
			}
		})
	}
}
