package pagination

import (
	"fmt"

	"gorm.io/gorm"
)

// Keyset applies the keyset predicate, ordering, and PageSize+1 limit for
// a feed ordered by (column DESC, id DESC). With a non-nil cursor only
// rows strictly after (cursor.OrderKey, cursor.ID) in that order are
// returned. column is always a compile-time constant from the repository
// layer, never caller input.
func Keyset(db *gorm.DB, column string, cur *Cursor) *gorm.DB {
	if cur != nil {
		db = db.Where(
			fmt.Sprintf("(%s < ?) OR (%s = ? AND id < ?)", column, column),
			cur.OrderKey, cur.OrderKey, cur.ID,
		)
	}
	return db.
		Order(fmt.Sprintf("%s DESC, id DESC", column)).
		Limit(PageSize + 1)
}
