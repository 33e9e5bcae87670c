package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortColumns whitelists the columns a list query may be ordered by
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

// orderBy builds the ORDER BY term for caller supplied values. Unknown
// columns use the fallback and anything other than "asc" sorts descending,
// so raw input never reaches the SQL text.
func (s sortColumns) orderBy(field, dir string) clause.OrderByColumn {
	column := s.fallback
	if f := strings.TrimSpace(field); f != "" {
		if _, ok := s.allowed[f]; ok {
			column = f
		}
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   !strings.EqualFold(strings.TrimSpace(dir), "asc"),
	}
}

var (
	productSort = newSortColumns("created_at", "id", "created_at", "updated_at", "name", "price", "stock")
	basketSort  = newSortColumns("created_at", "created_at", "updated_at", "checked_out_at", "total_price")
)
