package shared

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListFilters(t *testing.T) {
	f := ParseListFilters(url.Values{"search": {"  adm  "}, "page": {"2"}, "per_page": {"500"}})
	assert.Equal(t, "adm", f.Search)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, AdminPageSize, f.Limit)

	f = ParseListFilters(url.Values{"page": {"-3"}})
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, EchoedFilters{}, f.Echo())
}

func TestPaginationSevenRows(t *testing.T) {
	p := ListFilters{Page: 2, Limit: AdminPageSize}.Pagination(7)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 6, p.Offset())
	assert.Equal(t, 7, p.Total)
}

func TestNewPageNeverNil(t *testing.T) {
	page := NewPage[int](nil, NewPagination(1, 6, 0))
	assert.NotNil(t, page.Data)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}

func TestHugePageNumberStaysPositive(t *testing.T) {
	for _, raw := range []string{"2000000000000000000", "99999999999999999999999"} {
		f := ParseListFilters(url.Values{"page": {raw}})
		p := f.Pagination(7)
		assert.GreaterOrEqual(t, p.Offset(), 0, raw)
		assert.Greater(t, p.Offset()+p.PerPage, 0, raw)
	}

	p := NewPagination(math.MaxInt, AdminPageSize, 7)
	assert.GreaterOrEqual(t, p.Offset(), 0)
}
