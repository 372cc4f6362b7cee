package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	t.Run("Middle Page", func(t *testing.T) {
		page := Slice(items, Request{Page: 2, Limit: 2})
		assert.Equal(t, []int{3, 4}, page.Items)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 3, page.TotalPages)
	})

	t.Run("Past The End", func(t *testing.T) {
		page := Slice(items, Request{Page: 9, Limit: 2})
		assert.Empty(t, page.Items)
		assert.Equal(t, 9, page.Page)
	})

	t.Run("Defaults", func(t *testing.T) {
		page := Slice(items, Request{})
		assert.Len(t, page.Items, 5)
		assert.Equal(t, DefaultLimit, page.Limit)
		assert.Equal(t, 1, page.Page)
	})
}
