package analytics

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/sales"
)

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalProducts int           `json:"totalProducts"`
	TotalSales    int           `json:"totalSales"`
	LowStockCount int           `json:"lowStockCount"`
	TodaySales    int           `json:"todaySales"`
	TodayRevenue  types.Money   `json:"todayRevenue"`
	RecentSales   []*sales.Sale `json:"recentSales"`
}

// BuildDashboard summarizes the collections. saleList must be newest first.
// "Today" is the calendar day of now in now's location.
func BuildDashboard(ctx context.Context, saleList []*sales.Sale, products []*product.Product, rule product.AlertRule, now time.Time) Dashboard {
	if rule == nil {
		rule = product.MinStockRule{}
	}
	d := Dashboard{
		TotalProducts: len(products),
		TotalSales:    len(saleList),
		LowStockCount: len(product.FilterAlerts(ctx, rule, products)),
		TodayRevenue:  types.Zero(),
	}

	y, m, day := now.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	for _, s := range saleList {
		at := s.CreatedAt.In(now.Location())
		if !at.Before(start) && at.Before(end) {
			d.TodaySales++
			d.TodayRevenue = d.TodayRevenue.Add(s.Total)
		}
	}

	n := len(saleList)
	if n > RecentSalesLimit {
		n = RecentSalesLimit
	}
	d.RecentSales = saleList[:n]
	return d
}

type SaleSource interface {
	List(ctx context.Context, filter sales.ListFilter) ([]*sales.Sale, error)
}

type ProductSource interface {
	List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error)
}

type ExpenseSource interface {
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
}

// Service loads the full history on every call and reduces it in memory.
type Service struct {
	sales    SaleSource
	products ProductSource
	expenses ExpenseSource
	rule     product.AlertRule
	now      func() time.Time
}

func NewService(saleSrc SaleSource, productSrc ProductSource, expenseSrc ExpenseSource, rule product.AlertRule) *Service {
	return &Service{
		sales:    saleSrc,
		products: productSrc,
		expenses: expenseSrc,
		rule:     rule,
		now:      time.Now,
	}
}

func (s *Service) Report(ctx context.Context) (Report, error) {
	saleList, err := s.sales.List(ctx, sales.ListFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("load sales: %w", err)
	}
	products, err := s.products.List(ctx, product.ListFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("load products: %w", err)
	}
	expenses, err := s.expenses.List(ctx, expense.ListFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("load expenses: %w", err)
	}
	return Compute(ctx, saleList, products, expenses, s.rule, s.now()), nil
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	saleList, err := s.sales.List(ctx, sales.ListFilter{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("load sales: %w", err)
	}
	products, err := s.products.List(ctx, product.ListFilter{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("load products: %w", err)
	}
	return BuildDashboard(ctx, saleList, products, s.rule, s.now()), nil
}
