package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/clause"
)

func TestSortColumns_OrderBy(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		dir      string
		wantCol  string
		wantDesc bool
	}{
		{"defaults", "", "", "created_at", true},
		{"allowed column ascending", "price", "asc", "price", false},
		{"direction is case insensitive", "name", "  ASC ", "name", false},
		{"unknown direction sorts descending", "stock", "sideways", "stock", true},
		{"unknown column falls back", "password_hash", "asc", "created_at", false},
		{"injection attempt falls back", "price; DROP TABLE products;--", "asc", "created_at", false},
		{"direction injection sorts descending", "name", "ASC; DELETE FROM users", "name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := productSort.orderBy(tt.field, tt.dir)
			assert.Equal(t, clause.OrderByColumn{Column: clause.Column{Name: tt.wantCol}, Desc: tt.wantDesc}, got)
		})
	}
}

func TestSortColumns_BasketColumns(t *testing.T) {
	assert.Equal(t, "checked_out_at", basketSort.orderBy("checked_out_at", "desc").Column.Name)
	assert.Equal(t, "created_at", basketSort.orderBy("name", "desc").Column.Name)
}
