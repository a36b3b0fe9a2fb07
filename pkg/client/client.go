// Package client provides the paginated fetch pipeline: request building,
// HTTP transport, status validation, decoding, and the error taxonomy
// shared by every photo data source.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// DefaultResourceTimeout bounds one complete page fetch.
const DefaultResourceTimeout = 60 * time.Second

// DecodeFunc decodes one page payload. It must be all-or-nothing.
type DecodeFunc[T any] func(data []byte) ([]T, error)

// PageFetcher fetches a single page of records.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page, limit int) ([]T, error)
}

// FetcherConfig holds the collaborators of a Fetcher.
type FetcherConfig[T any] struct {
	Builder   *RequestBuilder
	Transport Transport
	Decode    DecodeFunc[T]

	// Observer receives lifecycle notifications (optional).
	Observer Observer

	// ResourceTimeout bounds the whole fetch; zero disables it.
	ResourceTimeout time.Duration

	// Method defaults to GET.
	Method Method
}

// Fetcher composes RequestBuilder, Transport and a decoder into one
// "fetch one page" operation. It performs no retries.
type Fetcher[T any] struct {
	builder         *RequestBuilder
	transport       Transport
	decode          DecodeFunc[T]
	observer        Observer
	resourceTimeout time.Duration
	method          Method
}

// NewFetcher creates a Fetcher. Builder, Transport and Decode are required.
func NewFetcher[T any](cfg FetcherConfig[T]) (*Fetcher[T], error) {
	if cfg.Builder == nil {
		return nil, fmt.Errorf("request builder is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Decode == nil {
		return nil, fmt.Errorf("decoder is required")
	}

	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	method := cfg.Method
	if method == "" {
		method = MethodGet
	}

	return &Fetcher[T]{
		builder:         cfg.Builder,
		transport:       cfg.Transport,
		decode:          cfg.Decode,
		observer:        observer,
		resourceTimeout: cfg.ResourceTimeout,
		method:          method,
	}, nil
}

// NewPhotoFetcher creates a Fetcher for the Picsum photo schema.
func NewPhotoFetcher(builder *RequestBuilder, transport Transport, observer Observer, resourceTimeout time.Duration) (*Fetcher[photo.Photo], error) {
	return NewFetcher(FetcherConfig[photo.Photo]{
		Builder:         builder,
		Transport:       transport,
		Decode:          photo.DecodeList,
		Observer:        observer,
		ResourceTimeout: resourceTimeout,
	})
}

// FetchPage builds, executes, validates and decodes one page.
// Every returned error is a *Error.
func (f *Fetcher[T]) FetchPage(ctx context.Context, page, limit int) ([]T, error) {
	req, err := f.builder.Build(page, limit, f.method)
	if err != nil {
		return nil, f.fail(ctx, &Request{Page: page, Limit: limit, Method: f.method}, Normalize(err))
	}
	f.observer.RequestBuilt(ctx, req)

	if f.resourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.resourceTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := f.transport.Execute(ctx, req)
	if err != nil {
		return nil, f.fail(ctx, req, transportError(err))
	}
	f.observer.ResponseReceived(ctx, req, resp.StatusCode, time.Since(start))

	if err := ValidateStatus(resp.StatusCode); err != nil {
		return nil, f.fail(ctx, req, err.(*Error))
	}

	records, err := f.decode(resp.Body)
	if err != nil {
		return nil, f.fail(ctx, req, &Error{Kind: KindDecoding, Detail: err.Error(), Err: err})
	}
	f.observer.DecodeSucceeded(ctx, req, len(records))

	return records, nil
}

func (f *Fetcher[T]) fail(ctx context.Context, req *Request, err *Error) *Error {
	f.observer.FetchFailed(ctx, req, err)
	return err
}

// transportError maps errors from a Transport into the taxonomy.
func transportError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransport, Class: ErrorClassNetwork, Detail: err.Error(), Err: err}
	}
	return &Error{Kind: KindUnknown, Detail: err.Error(), Err: err}
}
