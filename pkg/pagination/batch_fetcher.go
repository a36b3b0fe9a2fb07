package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration

	// PageSize is the limit sent with every page request.
	PageSize int

	Logger zerolog.Logger
}

// DefaultConfig returns a conservative configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		PageSize:       DefaultPageSize,
		Logger:         zerolog.Nop(),
	}
}

// PageResult is the outcome of fetching a single page.
type PageResult[T any] struct {
	PageNumber int
	Records    []T
	Error      error
}

// BatchFetcher fetches a range of pages in parallel with a worker pool.
type BatchFetcher[T any] struct {
	fetcher client.PageFetcher[T]
	config  Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher[T any](fetcher client.PageFetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchPages fetches pages first..last inclusive. It returns the
// successful pages keyed by page number; on any page failure the partial
// map is returned together with the first error.
func (bf *BatchFetcher[T]) FetchPages(ctx context.Context, first, last int) (map[int][]T, error) {
	if first < 1 || last < first {
		return nil, fmt.Errorf("invalid page range %d..%d", first, last)
	}

	start := time.Now()
	total := last - first + 1
	logger := bf.config.Logger

	logger.Info().
		Int("first", first).
		Int("last", last).
		Int("workers", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	pageQueue := make(chan int, total)
	for page := first; page <= last; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	pageResults := make(chan PageResult[T], total)

	var wg sync.WaitGroup
	for i := 0; i < min(bf.config.MaxConcurrency, total); i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, pageResults, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
	}()

	results := make(map[int][]T, total)
	var firstErr error
	for result := range pageResults {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", result.PageNumber, result.Error)
			}
			continue
		}
		results[result.PageNumber] = result.Records
	}

	if firstErr == nil {
		if err := ctx.Err(); err != nil && len(results) < total {
			firstErr = err
		}
	}

	if firstErr != nil {
		logger.Warn().
			Err(firstErr).
			Int("fetched_pages", len(results)).
			Int("total_pages", total).
			Msg("Batch fetch incomplete - returning partial results")
		return results, fmt.Errorf("partial data (%d/%d pages): %w", len(results), total, firstErr)
	}

	logger.Info().
		Int("pages", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// FetchCatalog fetches pages 1..maxPages and returns the records in page
// order up to and including the first short page.
func (bf *BatchFetcher[T]) FetchCatalog(ctx context.Context, maxPages int) ([]T, error) {
	pages, err := bf.FetchPages(ctx, 1, maxPages)
	if err != nil {
		return nil, err
	}
	return Flatten(pages, bf.config.PageSize), nil
}

// Flatten concatenates pages in ascending page order, stopping after the
// first page shorter than pageSize or at the first missing page.
func Flatten[T any](pages map[int][]T, pageSize int) []T {
	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var out []T
	for i, n := range numbers {
		if i > 0 && n != numbers[i-1]+1 {
			break
		}
		out = append(out, pages[n]...)
		if len(pages[n]) < pageSize {
			break
		}
	}
	return out
}

// worker processes pages from the queue.
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	logger := bf.config.Logger
	pagesProcessed := 0

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			logger.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		records, err := bf.fetcher.FetchPage(pageCtx, pageNum, bf.config.PageSize)
		cancel()

		if err != nil {
			logger.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")
		}

		results <- PageResult[T]{PageNumber: pageNum, Records: records, Error: err}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		logger.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}
