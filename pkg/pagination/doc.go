// Package pagination tracks the state of an infinitely scrolling photo feed
// and provides parallel batch fetching of page ranges.
//
// A Feed owns the pagination cursor, the accumulated records, the
// end-of-data flag and the last error. It moves between four states:
//
//	Idle ──LoadMore──▶ Fetching ──full page──▶ Idle (cursor+1)
//	                      │
//	                      ├──short page──▶ Exhausted (cursor unchanged)
//	                      └──failure────▶ Errored (records untouched)
//
// LoadMore from Errored retries the same page. Exhausted only ends with
// Reset or by leaving the favorites view. At most one fetch is in flight;
// a second LoadMore while Fetching is a no-op. Reset, Close and favorites
// view toggles bump an internal generation so results of a fetch started
// before them are dropped.
//
// Example usage:
//
//	feed := pagination.NewFeed(repo, favs, pagination.WithPageSize(30))
//	if _, err := feed.LoadMore(ctx); err != nil {
//		issue := feed.Issue() // NetworkIssue or GenericIssue
//	}
//	snap := feed.Snapshot()
//
// BatchFetcher fetches a range of pages with a worker pool, independent of
// any Feed. It is used to build catalogue exports and warm caches.
package pagination
