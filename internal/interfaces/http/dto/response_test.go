package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessResponseWithMeta(t *testing.T) {
	t.Run("rounds total pages up", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta([]string{"a"}, 25, 1, 10)

		require.NotNil(t, resp.Meta)
		assert.True(t, resp.Success)
		assert.Equal(t, int64(25), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("zero page size yields zero pages", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta(nil, 25, 1, 0)

		require.NotNil(t, resp.Meta)
		assert.Equal(t, 0, resp.Meta.TotalPages)
	})
}
