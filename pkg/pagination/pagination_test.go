package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)
}

func TestFromValues_Defaults(t *testing.T) {
	p := FromValues(url.Values{}, DefaultParams())
	assert.Equal(t, DefaultParams(), p)
}

func TestFromValues_CustomValues(t *testing.T) {
	p := FromValues(url.Values{"page": {"3"}, "page_size": {"50"}}, DefaultParams())
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PageSize)
}

func TestFromValues_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
	}{
		{"negative page", url.Values{"page": {"-1"}}},
		{"zero page", url.Values{"page": {"0"}}},
		{"non numeric page", url.Values{"page": {"abc"}}},
		{"page size over cap", url.Values{"page_size": {"200"}}},
		{"zero page size", url.Values{"page_size": {"0"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DefaultParams(), FromValues(tt.q, DefaultParams()))
		})
	}
}

func TestFromValues_PageSizeAtCap(t *testing.T) {
	p := FromValues(url.Values{"page_size": {"100"}}, DefaultParams())
	assert.Equal(t, MaxPageSize, p.PageSize)
}

func TestParams_Apply(t *testing.T) {
	q := url.Values{}
	Params{Page: 2, PageSize: 25}.Apply(q)
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "25", q.Get("page_size"))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestNewResult(t *testing.T) {
	page := Page[string]{Count: 25, Results: []string{"a", "b"}}
	r := NewResult(page, Params{Page: 2, PageSize: 10})

	assert.Equal(t, []string{"a", "b"}, r.Data)
	assert.Equal(t, 25, r.TotalCount)
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)
}

func TestNewResult_LastPage(t *testing.T) {
	r := NewResult(Page[int]{Count: 20, Results: []int{1}}, Params{Page: 2, PageSize: 10})
	assert.Equal(t, 2, r.TotalPages)
	assert.False(t, r.HasNext)
}

func TestNewResult_NilResults(t *testing.T) {
	r := NewResult(Page[int]{}, DefaultParams())
	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)
	assert.Equal(t, 0, r.TotalPages)
	assert.False(t, r.HasPrev)
}
