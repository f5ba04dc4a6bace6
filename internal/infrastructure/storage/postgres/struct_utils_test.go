package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
)

type mockRecord struct {
	entity.BaseEntity
	Name     string `db:"name" json:"name"`
	Stock    int    `db:"stock" json:"stock"`
	Computed string `db:"-" json:"computed"`
	NoTag    string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	assert.Equal(t, []string{"id", "version", "created_at", "updated_at", "name", "stock"}, cols)
}

func TestExtractDBColumns_Pointer(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[mockRecord](), ExtractDBColumns[*mockRecord]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	rec := &mockRecord{
		BaseEntity: entity.BaseEntity{ID: id.New(), Version: 3, CreatedAt: now, UpdatedAt: now},
		Name:       "Keyless remote",
		Stock:      7,
		Computed:   "ignored",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "Keyless remote", m["name"])
	assert.Equal(t, 7, m["stock"])
	assert.NotContains(t, m, "Computed")
	assert.NotContains(t, m, "NoTag")
	assert.Len(t, m, 6)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	var p *mockRecord
	assert.Nil(t, StructToMap(p))
}

func TestFilterColumns(t *testing.T) {
	data := map[string]any{"id": 1, "name": "x", "version": 2, "extra": true}
	got := FilterColumns(data, []string{"id", "name", "version"}, "id", "version")
	assert.Equal(t, map[string]any{"name": "x"}, got)
}
