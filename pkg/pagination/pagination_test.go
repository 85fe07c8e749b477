package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, DefaultPerPage, 0},
		{"?page=3&per_page=10", 3, 10, 20},
		{"?page=0&per_page=-5", 1, DefaultPerPage, 0},
		{"?page=abc", 1, DefaultPerPage, 0},
		{"?per_page=500", 1, MaxPerPage, 0},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/tools"+tc.query, nil))
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.perPage, p.PerPage)
			assert.Equal(t, tc.offset, p.Offset())
		})
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 5, Params{Page: 1, PerPage: 2})
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)

	last := NewResult([]string{"e"}, 5, Params{Page: 3, PerPage: 2})
	assert.False(t, last.HasNext)
}

func TestNewResult_EmptyItemsSerializeAsArray(t *testing.T) {
	r := NewResult[int](nil, 0, Params{Page: 1, PerPage: 20})
	assert.NotNil(t, r.Items)
	assert.Zero(t, r.TotalPages)
}
