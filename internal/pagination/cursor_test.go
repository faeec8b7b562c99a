package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type feedRow struct {
	ID  string
	Key int64
}

func makeRows(n int) []feedRow {
	rows := make([]feedRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, feedRow{ID: fmt.Sprintf("row-%02d", i), Key: int64(1000 - i)})
	}
	return rows
}

func rowKey(r feedRow) (int64, string) { return r.Key, r.ID }

func TestNewPage_FullPageWithMore(t *testing.T) {
	rows := makeRows(PageSize + 1)
	page := NewPage(rows, rowKey)

	assert.Len(t, page.Data, PageSize)
	assert.True(t, page.HasMore)
	if assert.NotNil(t, page.Cursor) {
		// Cursor points at the last returned row, not the trimmed one.
		last := page.Data[PageSize-1]
		assert.Equal(t, last.ID, page.Cursor.ID)
		assert.Equal(t, last.Key, page.Cursor.OrderKey)
	}
}

func TestNewPage_ExactPageSize(t *testing.T) {
	page := NewPage(makeRows(PageSize), rowKey)

	assert.Len(t, page.Data, PageSize)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.Cursor)
}

func TestNewPage_ShortPage(t *testing.T) {
	page := NewPage(makeRows(3), rowKey)

	assert.Len(t, page.Data, 3)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.Cursor)
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage(nil, rowKey)

	assert.Empty(t, page.Data)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.Cursor)
}
