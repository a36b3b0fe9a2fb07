package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
)

// FetchObserver logs fetch lifecycle events. It implements client.Observer.
type FetchObserver struct {
	logger zerolog.Logger
}

var _ client.Observer = (*FetchObserver)(nil)

// NewFetchObserver creates an observer logging to logger.
func NewFetchObserver(logger zerolog.Logger) *FetchObserver {
	return &FetchObserver{logger: logger}
}

func (o *FetchObserver) RequestBuilt(_ context.Context, req *client.Request) {
	logger := ForRequest(o.logger, req)
	logger.Debug().
		Str("method", string(req.Method)).
		Str("url", req.URL).
		Msg("Request built")
}

func (o *FetchObserver) ResponseReceived(_ context.Context, req *client.Request, statusCode int, elapsed time.Duration) {
	logger := ForRequest(o.logger, req)
	logger.Debug().
		Int(FieldStatusCode, statusCode).
		Dur("duration", elapsed).
		Msg("Response received")
}

func (o *FetchObserver) DecodeSucceeded(_ context.Context, req *client.Request, count int) {
	logger := ForRequest(o.logger, req)
	logger.Info().
		Int("count", count).
		Msg("Page decoded")
}

func (o *FetchObserver) FetchFailed(_ context.Context, req *client.Request, err *client.Error) {
	logger := ForRequest(o.logger, req)
	ErrorFields(logger.Warn(), err).Msg("Fetch failed")
}
