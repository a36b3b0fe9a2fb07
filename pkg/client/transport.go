package client

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Response is the raw result of executing a Request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes a request and returns bytes plus status metadata.
// Connection faults are reported as KindTransport; status codes are not
// validated here (see ValidateStatus).
type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// TransportConfig holds the HTTP transport configuration.
type TransportConfig struct {
	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration

	// UserAgent header sent with every request.
	UserAgent string

	Logger zerolog.Logger
}

// DefaultTransportConfig returns the foreground session defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		RequestTimeout: 30 * time.Second,
		UserAgent:      "photo-fetcher/0.1.0",
		Logger:         zerolog.Nop(),
	}
}

// HTTPTransport is the resty-backed Transport.
type HTTPTransport struct {
	client *resty.Client
}

// NewHTTPTransport creates a transport with its own HTTP client.
func NewHTTPTransport(cfg TransportConfig) *HTTPTransport {
	return newHTTPTransport(resty.New(), cfg)
}

// NewHTTPTransportWithClient creates a transport on top of a copy of an
// existing *http.Client (for testing against httptest servers). The copy
// shares hc's RoundTripper; hc itself is left unchanged.
func NewHTTPTransportWithClient(hc *http.Client, cfg TransportConfig) *HTTPTransport {
	clone := *hc
	return newHTTPTransport(resty.NewWithClient(&clone), cfg)
}

func newHTTPTransport(rc *resty.Client, cfg TransportConfig) *HTTPTransport {
	if cfg.RequestTimeout > 0 {
		rc.SetTimeout(cfg.RequestTimeout)
	}
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	rc.SetLogger(restyLogger{logger: cfg.Logger})
	return &HTTPTransport{client: rc}
}

// Execute performs the request. Any non-nil error is a *Error of KindTransport.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Header).
		Execute(string(req.Method), req.URL)
	if err != nil {
		return nil, &Error{
			Kind:   KindTransport,
			Class:  ErrorClassNetwork,
			Detail: err.Error(),
			Err:    err,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// restyLogger routes resty's internal messages to zerolog.
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
