package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/infrastructure/storage/memory"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		stock int
		want  product.Status
	}{
		{-3, product.StatusOutOfStock},
		{0, product.StatusOutOfStock},
		{1, product.StatusLowStock},
		{9, product.StatusLowStock},
		{10, product.StatusInStock},
		{250, product.StatusInStock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, product.StatusFor(tt.stock), "stock %d", tt.stock)
	}
}

func TestProduct_Validate(t *testing.T) {
	valid := func() *product.Product {
		return product.NewProduct("Key shell", product.CategoryCasing, types.MustMoney("4.50"), 10, 10, "Acme")
	}

	tests := []struct {
		name   string
		mutate func(p *product.Product)
		field  string
	}{
		{"ok", func(*product.Product) {}, ""},
		{"blank name", func(p *product.Product) { p.Name = "  " }, "name"},
		{"bad category", func(p *product.Product) { p.Category = "Toys" }, "category"},
		{"negative price", func(p *product.Product) { p.Price = types.MustMoney("-1") }, "price"},
		{"negative stock", func(p *product.Product) { p.Stock = -1 }, "stock"},
		{"negative min stock", func(p *product.Product) { p.MinStock = -1 }, "minStock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate(context.Background())
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestCELAlertRule(t *testing.T) {
	p := &product.Product{Name: "CR2032", Category: product.CategoryBattery, Stock: 15, MinStock: 10, Price: types.MustMoney("2")}

	def, err := product.NewCELAlertRule("")
	require.NoError(t, err)
	ok, err := def.Matches(p)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, product.DefaultAlertExpression, def.String())

	custom, err := product.NewCELAlertRule(`stock <= min_stock || (category == "Battery" && stock < 20)`)
	require.NoError(t, err)
	ok, err = custom.Matches(p)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = product.NewCELAlertRule("stock +")
	assert.Error(t, err)

	_, err = product.NewCELAlertRule("stock + 1")
	assert.Error(t, err, "non-boolean expression")
}

func newService(t *testing.T) (*product.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return product.NewService(store.Products(), store, audit.Nop{}, nil), store
}

func TestService_CreateDerivesStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	p := product.NewProduct("  Remote  ", product.CategoryRemoteXhorse, types.MustMoney("35"), 4, 10, "Xhorse")
	p.Status = product.StatusInStock
	require.NoError(t, svc.Create(ctx, p))

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Remote", got.Name)
	assert.Equal(t, product.StatusLowStock, got.Status)
}

func TestService_Edit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	p := product.NewProduct("Chip", product.CategoryChip, types.MustMoney("3"), 2, 10, "")
	require.NoError(t, svc.Create(ctx, p))

	stock := 40
	price := types.MustMoney("3.25")
	got, err := svc.Edit(ctx, p.ID, product.UpdateInput{Stock: &stock, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 40, got.Stock)
	assert.Equal(t, product.StatusInStock, got.Status)
	assert.True(t, got.Price.Equal(price))
	assert.Equal(t, 2, got.Version)

	stale := 1
	_, err = svc.Edit(ctx, p.ID, product.UpdateInput{Stock: &stock, Version: &stale})
	assert.True(t, apperror.IsConcurrentModification(err))

	negative := -5
	_, err = svc.Edit(ctx, p.ID, product.UpdateInput{Stock: &negative})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_DeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	p := product.NewProduct("Jacket", product.CategoryJacket, types.MustMoney("8"), 20, 10, "")
	require.NoError(t, svc.Create(ctx, p))
	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := svc.GetByID(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(svc.Delete(ctx, p.ID)))
}

func TestService_LowStock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	require.NoError(t, svc.Create(ctx, product.NewProduct("A", product.CategoryOthers, types.MustMoney("1"), 10, 10, "")))
	require.NoError(t, svc.Create(ctx, product.NewProduct("B", product.CategoryOthers, types.MustMoney("1"), 11, 10, "")))
	require.NoError(t, svc.Create(ctx, product.NewProduct("C", product.CategoryOthers, types.MustMoney("1"), 0, 0, "")))

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(low))
	for _, p := range low {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"A", "C"}, names)
}
