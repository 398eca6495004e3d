package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "4.2"} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPagination(t *testing.T) {
	page, size := ParsePaginationFromQuery("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = ParsePaginationFromQuery("3", "500")
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)

	info := CalculatePaginationInfo(45, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrevious)
	assert.Equal(t, 20, CalculateOffset(2, 20))
}

func TestNormalizeOrigin(t *testing.T) {
	assert.Equal(t, "https://app.example", NormalizeOrigin("https://app.example/"))
	assert.Equal(t, "https://app.example", NormalizeOrigin(" https://app.example "))
	assert.Equal(t, "", NormalizeOrigin(""))
}
