package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginated(t *testing.T) {
	t.Run("rounds total pages up", func(t *testing.T) {
		p := NewPaginated([]int{1, 2, 3}, 25, 1, 10)

		assert.Equal(t, int64(25), p.Total)
		assert.Equal(t, 3, p.TotalPages)
	})

	t.Run("exact multiple does not add a page", func(t *testing.T) {
		p := NewPaginated([]int{}, 20, 2, 10)

		assert.Equal(t, 2, p.TotalPages)
	})

	t.Run("zero page size yields zero pages", func(t *testing.T) {
		p := NewPaginated([]int{}, 25, 1, 0)

		assert.Equal(t, 0, p.TotalPages)
	})
}
