package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/sales"
)

func money(s string) types.Money { return types.MustMoney(s) }

func sale(customer string, total string, items ...sales.Item) *sales.Sale {
	s := &sales.Sale{
		BaseEntity:       entity.NewBaseEntity(),
		CustomerName:     customer,
		Items:            items,
		Total:            money(total),
		AmountPaid:       money(total),
		RemainingBalance: types.Zero(),
		Status:           sales.StatusCompleted,
	}
	return s
}

func line(name string, qty int, total string) sales.Item {
	return sales.Item{ProductID: id.New(), Name: name, Quantity: qty, Total: money(total)}
}

func TestCompute_RevenueExpensesProfit(t *testing.T) {
	saleList := []*sales.Sale{sale("Ada", "100"), sale("Bob", "50")}
	expenses := []*expense.Expense{{Amount: money("30")}}

	r := Compute(context.Background(), saleList, nil, expenses, nil, time.Now())

	assert.True(t, r.TotalRevenue.Equal(money("150")), r.TotalRevenue.String())
	assert.True(t, r.TotalExpenses.Equal(money("30")))
	assert.True(t, r.NetProfit.Equal(money("120")))
	assert.True(t, r.AverageOrderValue.Equal(money("75")))
	assert.Equal(t, 2, r.TotalSales)
	assert.Equal(t, 2, r.DistinctCustomers)
}

func TestCompute_Empty(t *testing.T) {
	r := Compute(context.Background(), nil, nil, nil, nil, time.Now())

	assert.True(t, r.TotalRevenue.IsZero())
	assert.True(t, r.AverageOrderValue.IsZero())
	assert.Empty(t, r.TopProducts)
	assert.Empty(t, r.Categories)
	assert.Empty(t, r.LowStock)
}

func TestCompute_DistinctCustomersIsCaseSensitive(t *testing.T) {
	saleList := []*sales.Sale{sale("Ada", "1"), sale("ada", "1"), sale("Ada", "1")}

	r := Compute(context.Background(), saleList, nil, nil, nil, time.Now())
	assert.Equal(t, 2, r.DistinctCustomers)
}

func TestCompute_TopProductsGroupedByName(t *testing.T) {
	saleList := []*sales.Sale{
		sale("A", "60", line("Key", 2, "20"), line("Fob", 1, "40")),
		sale("B", "35", line("Key", 1, "10"), line("Battery", 5, "25")),
		sale("C", "21", line("Blade", 1, "5"), line("Chip", 1, "6"), line("Pcb", 1, "4"), line("Shell", 1, "3"), line("Tag", 1, "3")),
	}

	r := Compute(context.Background(), saleList, nil, nil, nil, time.Now())

	require.Len(t, r.TopProducts, TopProductsLimit)
	assert.Equal(t, "Fob", r.TopProducts[0].Name)
	assert.Equal(t, "Key", r.TopProducts[1].Name)
	assert.True(t, r.TopProducts[1].Revenue.Equal(money("30")))
	assert.Equal(t, 3, r.TopProducts[1].Units)
	assert.Equal(t, "Battery", r.TopProducts[2].Name)
	assert.Equal(t, 14, r.UnitsSold)
}

func TestCompute_CategoryShares(t *testing.T) {
	products := []*product.Product{
		{Name: "Key", Category: product.CategoryBlade, Stock: 50, MinStock: 10},
		{Name: "Cell", Category: product.CategoryBattery, Stock: 3, MinStock: 10},
	}
	saleList := []*sales.Sale{
		sale("A", "100", line("Key", 3, "75"), line("Cell", 1, "25")),
	}

	r := Compute(context.Background(), saleList, products, nil, nil, time.Now())

	require.Len(t, r.Categories, 2)
	assert.Equal(t, product.CategoryBlade, r.Categories[0].Category)
	assert.Equal(t, 75.0, r.Categories[0].Percentage)
	assert.Equal(t, 25.0, r.Categories[1].Percentage)

	require.Len(t, r.LowStock, 1)
	assert.Equal(t, "Cell", r.LowStock[0].Name)
}

func TestCompute_Outstanding(t *testing.T) {
	open := sale("Ada", "100")
	open.AmountPaid = money("40")
	open.RemainingBalance = money("60")
	open.Status = sales.StatusPartialPayment

	r := Compute(context.Background(), []*sales.Sale{open, sale("Bob", "10")}, nil, nil, nil, time.Now())

	assert.True(t, r.Outstanding.Equal(money("60")))
	assert.Equal(t, 1, r.OpenTabs)
}

func TestCompute_CustomAlertRule(t *testing.T) {
	rule, err := product.NewCELAlertRule(`category == "Battery" && stock < 20`)
	require.NoError(t, err)

	products := []*product.Product{
		{Name: "Cell", Category: product.CategoryBattery, Stock: 15, MinStock: 10},
		{Name: "Key", Category: product.CategoryBlade, Stock: 5, MinStock: 10},
	}

	r := Compute(context.Background(), nil, products, nil, rule, time.Now())
	require.Len(t, r.LowStock, 1)
	assert.Equal(t, "Cell", r.LowStock[0].Name)
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	var saleList []*sales.Sale
	for i := 0; i < 7; i++ {
		s := sale("C", "10")
		s.CreatedAt = now.Add(-time.Duration(i) * 4 * time.Hour)
		saleList = append(saleList, s)
	}
	products := []*product.Product{
		{Name: "A", Stock: 1, MinStock: 10},
		{Name: "B", Stock: 100, MinStock: 10},
	}

	d := BuildDashboard(context.Background(), saleList, products, nil, now)

	assert.Equal(t, 2, d.TotalProducts)
	assert.Equal(t, 7, d.TotalSales)
	assert.Equal(t, 1, d.LowStockCount)
	// 15:00, 11:00, 07:00, 03:00 fall on the same day
	assert.Equal(t, 4, d.TodaySales)
	assert.True(t, d.TodayRevenue.Equal(money("40")))
	assert.Len(t, d.RecentSales, RecentSalesLimit)
	assert.Same(t, saleList[0], d.RecentSales[0])
}
