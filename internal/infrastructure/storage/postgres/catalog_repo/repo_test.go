package catalog_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
)

const productCols = "id, version, created_at, updated_at, name, category, price, stock, min_stock, supplier, status"

func TestProductRepo_DecrementQuery(t *testing.T) {
	repo := NewProductRepo(nil)
	productID := id.New()

	t.Run("with stock floor", func(t *testing.T) {
		sql, args, err := repo.decrementQuery(productID, 3, false).ToSql()
		require.NoError(t, err)

		assert.Equal(t, "UPDATE products SET stock = stock - $1, "+
			"status = CASE WHEN stock - $2 <= 0 THEN $3 WHEN stock - $4 < $5 THEN $6 ELSE $7 END, "+
			"version = version + 1, updated_at = NOW() "+
			"WHERE id = $8 AND stock >= $9 RETURNING "+productCols, sql)
		assert.Equal(t, []any{
			3, 3, "Out of Stock", 3, product.LowStockThreshold, "Low Stock", "In Stock", productID.String(), 3,
		}, args)
	})

	t.Run("negative allowed", func(t *testing.T) {
		sql, args, err := repo.decrementQuery(productID, 2, true).ToSql()
		require.NoError(t, err)

		assert.Contains(t, sql, "WHERE id = $8 RETURNING")
		assert.NotContains(t, sql, "stock >=")
		assert.Len(t, args, 8)
	})
}

func TestProductRepo_ListQuery(t *testing.T) {
	repo := NewProductRepo(nil)

	sql, args, err := repo.listQuery(product.ListFilter{
		Search:   "50%_off",
		Category: product.CategoryBattery,
		Status:   product.StatusLowStock,
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+productCols+" FROM products "+
		"WHERE (name ILIKE $1 OR supplier ILIKE $2) AND category = $3 AND status = $4 "+
		"ORDER BY name ASC, id ASC", sql)
	assert.Equal(t, []any{`%50\%\_off%`, `%50\%\_off%`, product.CategoryBattery, product.StatusLowStock}, args)

	sql, args, err = repo.listQuery(product.ListFilter{}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+productCols+" FROM products ORDER BY name ASC, id ASC", sql)
	assert.Empty(t, args)
}

func TestBaseRepo_UpdateQuery(t *testing.T) {
	repo := NewProductRepo(nil)
	p := product.NewProduct("Chip", product.CategoryChip, types.MustMoney("3"), 4, 10, "Acme")
	p.Version = 5

	q, entityID, version, err := repo.updateQuery(p)
	require.NoError(t, err)
	assert.Equal(t, p.ID, entityID)
	assert.Equal(t, 5, version)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE products SET category = $1, min_stock = $2, name = $3, price = $4, "+
		"status = $5, stock = $6, supplier = $7, version = version + 1, updated_at = NOW() "+
		"WHERE id = $8 AND version = $9 RETURNING version, updated_at", sql)
	require.Len(t, args, 9)
	assert.Equal(t, p.ID.String(), args[7]) // squirrel.Eq unwraps driver.Valuer
	assert.Equal(t, 5, args[8])
}

func TestBaseRepo_InsertQuery(t *testing.T) {
	repo := NewExpenseRepo(nil)
	e := expense.NewExpense("Rent", types.MustMoney("500"), expense.CategoryRentUtilities, time.Now(), "")

	q, err := repo.insertQuery(e)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO expenses (amount,category,created_at,created_by,description,expense_date,id,notes,updated_at,version) "+
		"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)", sql)
	assert.Len(t, args, 10)
}

func TestExpenseRepo_ListQuery(t *testing.T) {
	repo := NewExpenseRepo(nil)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	sql, args, err := repo.listQuery(expense.ListFilter{From: &from, To: &to}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM expenses WHERE expense_date >= $1 AND expense_date < $2 ORDER BY expense_date DESC, created_at DESC")
	assert.Equal(t, []any{from, to}, args)
}

func TestSearchPattern(t *testing.T) {
	assert.Equal(t, "%blade%", searchPattern("  blade "))
	assert.Equal(t, `%a\\b%`, searchPattern(`a\b`))
}
