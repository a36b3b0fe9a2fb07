package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Method is an HTTP method accepted by the request builder.
type Method string

// Supported methods. Only GET is used by the listing endpoint.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// DefaultBaseURL is the public Picsum host.
const DefaultBaseURL = "https://picsum.photos"

// PathFunc renders the URL for a page/limit pair against a base URL.
type PathFunc func(baseURL string, page, limit int) string

// PicsumListPath renders the Picsum listing endpoint.
func PicsumListPath(baseURL string, page, limit int) string {
	return fmt.Sprintf("%s/v2/list?page=%d&limit=%d", baseURL, page, limit)
}

// Request is a fully formed request description.
type Request struct {
	// ID correlates lifecycle events of one fetch.
	ID     string
	Method Method
	URL    string
	Header map[string]string
	Page   int
	Limit  int
}

// RequestBuilder constructs page requests. It is pure and safe for concurrent use.
type RequestBuilder struct {
	baseURL string
	path    PathFunc
	headers map[string]string
}

// NewRequestBuilder creates a builder for baseURL. A nil path uses PicsumListPath.
func NewRequestBuilder(baseURL string, path PathFunc, headers map[string]string) *RequestBuilder {
	if path == nil {
		path = PicsumListPath
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &RequestBuilder{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		headers: h,
	}
}

// Build returns the request for page and limit.
func (b *RequestBuilder) Build(page, limit int, method Method) (*Request, error) {
	if page < 1 {
		return nil, invalidURL(fmt.Sprintf("page must be >= 1 (got %d)", page))
	}
	if limit < 1 {
		return nil, invalidURL(fmt.Sprintf("limit must be >= 1 (got %d)", limit))
	}
	if !method.Valid() {
		return nil, invalidURL(fmt.Sprintf("unsupported method %q", method))
	}
	if b.baseURL == "" {
		return nil, invalidURL("base URL is empty")
	}

	raw := b.path(b.baseURL, page, limit)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Detail: raw, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, invalidURL(fmt.Sprintf("%q is not an absolute URL", raw))
	}

	id := uuid.NewString()
	header := make(map[string]string, len(b.headers)+2)
	for k, v := range b.headers {
		header[k] = v
	}
	header["Accept"] = "application/json"
	header["X-Request-ID"] = id

	return &Request{
		ID:     id,
		Method: method,
		URL:    u.String(),
		Header: header,
		Page:   page,
		Limit:  limit,
	}, nil
}

func invalidURL(detail string) *Error {
	return &Error{Kind: KindInvalidURL, Detail: detail}
}
