package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/metrics"
	"github.com/Sternrassler/photo-fetcher/pkg/pagination"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
	"github.com/Sternrassler/photo-fetcher/pkg/source"
)

// newRouter builds the HTTP surface over one application instance.
func newRouter(a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(a.logger))

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(a.ready))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/photos", func(r chi.Router) {
		r.Get("/", snapshotHandler(a.feed))
		r.Post("/next", loadMoreHandler(a.feed))
		r.Post("/reset", resetHandler(a.feed))
		r.Post("/favorites-view", favoritesViewHandler(a.feed))
		r.Post("/{id}/favorite", toggleFavoriteHandler(a.feed))
	})

	r.Get("/fixtures", fixtureNamesHandler(a))
	r.Get("/fixtures/{name}", fixtureHandler(a.router))
	r.Get("/catalog", catalogHandler(a.catalog, a.maxPages))
	r.Get("/ratelimit", rateLimitHandler(a))

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func readyHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

func snapshotHandler(feed *pagination.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, feed.Snapshot())
	}
}

// loadMoreHandler always answers with the snapshot; a failed load is
// reported through its issue field.
func loadMoreHandler(feed *pagination.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed.LoadMore(r.Context())
		writeJSON(w, http.StatusOK, feed.Snapshot())
	}
}

func resetHandler(feed *pagination.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed.Reset()
		writeJSON(w, http.StatusOK, feed.Snapshot())
	}
}

func favoritesViewHandler(feed *pagination.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed.ToggleFavoritesView(r.Context())
		writeJSON(w, http.StatusOK, feed.Snapshot())
	}
}

type favoriteResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

func toggleFavoriteHandler(feed *pagination.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		member, err := feed.ToggleFavorite(r.Context(), id)
		if err != nil {
			writeIssue(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, favoriteResponse{ID: id, Favorite: member})
	}
}

func fixtureNamesHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := a.fixtures.Names()
		if err != nil {
			writeIssue(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, names)
	}
}

// fixtureHandler serves a bundled fixture page through the data source
// router. page and limit default to 1 and 30.
func fixtureHandler(router *source.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, ok := pageParams(w, r)
		if !ok {
			return
		}

		records, err := router.Fetch(r.Context(), page, limit, source.Bundled(chi.URLParam(r, "name")))
		if err != nil {
			status := http.StatusInternalServerError
			if client.IsKind(err, client.KindFixtureNotFound) {
				status = http.StatusNotFound
			}
			writeIssue(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

type catalogResponse struct {
	Pages   int           `json:"pages"`
	Count   int           `json:"count"`
	Records []photo.Photo `json:"records"`
}

// catalogHandler fetches pages 1..pages in parallel.
func catalogHandler(catalog *pagination.BatchFetcher[photo.Photo], maxPages int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages := 1
		if raw := r.URL.Query().Get("pages"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxPages {
				http.Error(w, "pages must be between 1 and "+strconv.Itoa(maxPages), http.StatusBadRequest)
				return
			}
			pages = n
		}

		records, err := catalog.FetchCatalog(r.Context(), pages)
		if err != nil {
			writeIssue(w, http.StatusBadGateway, err)
			return
		}
		if records == nil {
			records = []photo.Photo{}
		}
		writeJSON(w, http.StatusOK, catalogResponse{Pages: pages, Count: len(records), Records: records})
	}
}

type rateLimitResponse struct {
	Healthy       bool      `json:"healthy"`
	Throttled     bool      `json:"throttled"`
	LastStatus    int       `json:"last_status"`
	CooldownUntil time.Time `json:"cooldown_until,omitzero"`
}

func rateLimitHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := a.limiter.State()
		writeJSON(w, http.StatusOK, rateLimitResponse{
			Healthy:       state.IsHealthy(),
			Throttled:     state.InCooldown(time.Now()),
			LastStatus:    state.LastStatus,
			CooldownUntil: state.CooldownUntil,
		})
	}
}

func pageParams(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	page, limit = 1, pagination.DefaultPageSize
	params := []struct {
		name string
		dst  *int
	}{{"page", &page}, {"limit", &limit}}

	for _, p := range params {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, p.name+" must be a positive integer", http.StatusBadRequest)
			return 0, 0, false
		}
		*p.dst = n
	}
	return page, limit, true
}

func writeIssue(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, pagination.IssueFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status_code", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
