// Package analytics reduces the full sales, catalog and expense history into
// the figures shown on the owner's dashboard. Everything here is pure: callers
// load the collections and pass them in.
package analytics

import (
	"context"
	"sort"
	"time"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/sales"
)

// TopProductsLimit is how many products the revenue ranking keeps.
const TopProductsLimit = 5

// RecentSalesLimit is how many sales the dashboard lists.
const RecentSalesLimit = 5

// ProductRevenue is one row of the top-products ranking. Rows are grouped by
// product name, so two products sharing a name are counted together.
type ProductRevenue struct {
	Name    string      `json:"name"`
	Revenue types.Money `json:"revenue"`
	Units   int         `json:"units"`
}

// CategoryShare is the revenue of one product category.
type CategoryShare struct {
	Category   product.Category `json:"category"`
	Revenue    types.Money      `json:"revenue"`
	Percentage float64          `json:"percentage"`
}

// Report is the analytics page.
type Report struct {
	TotalRevenue      types.Money        `json:"totalRevenue"`
	TotalExpenses     types.Money        `json:"totalExpenses"`
	NetProfit         types.Money        `json:"netProfit"`
	TotalSales        int                `json:"totalSales"`
	UnitsSold         int                `json:"unitsSold"`
	AverageOrderValue types.Money        `json:"averageOrderValue"`
	DistinctCustomers int                `json:"distinctCustomers"`
	TopProducts       []ProductRevenue   `json:"topProducts"`
	Categories        []CategoryShare    `json:"categories"`
	LowStock          []*product.Product `json:"lowStock"`
	Outstanding       types.Money        `json:"outstanding"`
	OpenTabs          int                `json:"openTabs"`
	GeneratedAt       time.Time          `json:"generatedAt"`
}

// Compute builds the analytics report. rule selects the low-stock list; nil
// means stock <= minStock.
func Compute(ctx context.Context, saleList []*sales.Sale, products []*product.Product, expenses []*expense.Expense, rule product.AlertRule, now time.Time) Report {
	if rule == nil {
		rule = product.MinStockRule{}
	}

	r := Report{
		TotalRevenue:      types.Zero(),
		TotalExpenses:     types.Zero(),
		AverageOrderValue: types.Zero(),
		Outstanding:       types.Zero(),
		TotalSales:        len(saleList),
		GeneratedAt:       now,
	}

	customers := make(map[string]struct{})
	byName := make(map[string]*ProductRevenue)
	for _, s := range saleList {
		r.TotalRevenue = r.TotalRevenue.Add(s.Total)
		r.UnitsSold += s.UnitsSold()
		customers[s.CustomerName] = struct{}{}

		if s.IsOpen() && s.RemainingBalance.IsPositive() {
			r.Outstanding = r.Outstanding.Add(s.RemainingBalance)
			r.OpenTabs++
		}

		for _, it := range s.Items {
			row, ok := byName[it.Name]
			if !ok {
				row = &ProductRevenue{Name: it.Name, Revenue: types.Zero()}
				byName[it.Name] = row
			}
			row.Revenue = row.Revenue.Add(it.Total)
			row.Units += it.Quantity
		}
	}
	r.DistinctCustomers = len(customers)

	for _, e := range expenses {
		r.TotalExpenses = r.TotalExpenses.Add(e.Amount)
	}
	r.NetProfit = r.TotalRevenue.Sub(r.TotalExpenses)

	if r.TotalSales > 0 {
		r.AverageOrderValue = types.Round(r.TotalRevenue.Div(types.NewMoney(int64(r.TotalSales))))
	}

	r.TopProducts = topProducts(byName, TopProductsLimit)
	r.Categories = categoryShares(byName, products, r.TotalRevenue)
	r.LowStock = product.FilterAlerts(ctx, rule, products)
	return r
}

func topProducts(byName map[string]*ProductRevenue, limit int) []ProductRevenue {
	rows := make([]ProductRevenue, 0, len(byName))
	for _, row := range byName {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Revenue.Cmp(rows[j].Revenue); c != 0 {
			return c > 0
		}
		return rows[i].Name < rows[j].Name
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// categoryShares attributes line revenue to the category of the catalog
// product with the same name. Lines whose name is not in the catalog are
// left out of the breakdown but still count toward total revenue.
func categoryShares(byName map[string]*ProductRevenue, products []*product.Product, totalRevenue types.Money) []CategoryShare {
	categoryOf := make(map[string]product.Category, len(products))
	for _, p := range products {
		categoryOf[p.Name] = p.Category
	}

	revenue := make(map[product.Category]types.Money)
	for name, row := range byName {
		cat, ok := categoryOf[name]
		if !ok {
			continue
		}
		revenue[cat] = revenue[cat].Add(row.Revenue)
	}

	shares := make([]CategoryShare, 0, len(revenue))
	for cat, amount := range revenue {
		shares = append(shares, CategoryShare{
			Category:   cat,
			Revenue:    amount,
			Percentage: types.Percent(amount, totalRevenue),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Revenue.Cmp(shares[j].Revenue); c != 0 {
			return c > 0
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}
