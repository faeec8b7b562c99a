// Package pagination implements keyset (cursor) pagination for feed
// queries. Items are totally ordered by (orderKey DESC, id DESC); the
// order key is a unix-second timestamp, so the id column is required as a
// tie-break to keep the order total. Paging only moves toward older
// entries, which makes already-returned pages immune to concurrent
// inserts ahead of the consumed window.
package pagination

// PageSize is the fixed number of items per page.
const PageSize = 10

// Cursor marks the last-seen position in a feed. A nil cursor means
// "start from the newest item".
type Cursor struct {
	ID       string `json:"id"`
	OrderKey int64  `json:"orderKey"`
}

// Page is one page of a feed plus the position to resume from.
type Page[T any] struct {
	Data    []T     `json:"data"`
	HasMore bool    `json:"hasMore"`
	Cursor  *Cursor `json:"cursor"`
}

// NewPage builds a Page from rows fetched with a PageSize+1 limit. The
// extra row only signals that more items exist and is trimmed; the next
// cursor is derived from the last returned row, never the extra one.
// key extracts (orderKey, id) from a row.
func NewPage[T any](rows []T, key func(T) (int64, string)) Page[T] {
	page := Page[T]{Data: rows}
	if len(rows) > PageSize {
		page.Data = rows[:PageSize]
		page.HasMore = true
	}
	if page.HasMore {
		orderKey, id := key(page.Data[len(page.Data)-1])
		page.Cursor = &Cursor{ID: id, OrderKey: orderKey}
	}
	return page
}
