package product

import (
	"context"
	"strings"

	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain"
	"shopledger/internal/domain/audit"
	"shopledger/pkg/logger"
)

const entityName = "product"

// Service manages the catalog. Writes are admin-only at the HTTP layer.
type Service struct {
	*domain.RecordService[*Product, ListFilter]
	repo Repository
	rule AlertRule
}

func NewService(repo Repository, txManager tx.Manager, recorder audit.Recorder, rule AlertRule) *Service {
	if rule == nil {
		rule = MinStockRule{}
	}
	base := domain.NewRecordService(domain.RecordServiceConfig[*Product, ListFilter]{
		Repo:       repo,
		TxManager:  txManager,
		Audit:      recorder,
		Clone:      (*Product).Clone,
		EntityName: entityName,
	})

	svc := &Service{RecordService: base, repo: repo, rule: rule}
	base.Hooks().On(domain.BeforeCreate, svc.prepare)
	base.Hooks().On(domain.BeforeUpdate, svc.prepare)
	return svc
}

func (s *Service) prepare(_ context.Context, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Supplier = strings.TrimSpace(p.Supplier)
	p.RefreshStatus()
	return nil
}

// UpdateInput carries a partial product edit. Nil fields are left unchanged.
type UpdateInput struct {
	Name     *string
	Category *Category
	Price    *types.Money
	Stock    *int
	MinStock *int
	Supplier *string
	Version  *int
}

func (in UpdateInput) apply(p *Product) error {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.MinStock != nil {
		p.MinStock = *in.MinStock
	}
	if in.Supplier != nil {
		p.Supplier = *in.Supplier
	}
	return nil
}

// Edit applies a partial update.
func (s *Service) Edit(ctx context.Context, productID id.ID, in UpdateInput) (*Product, error) {
	return s.Update(ctx, productID, in.Version, in.apply)
}

// LowStock returns the products on the alert list.
func (s *Service) LowStock(ctx context.Context) ([]*Product, error) {
	all, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	return FilterAlerts(ctx, s.rule, all), nil
}

// IsAlert reports whether p trips the configured alert rule.
func (s *Service) IsAlert(ctx context.Context, p *Product) bool {
	return MatchesAlert(ctx, s.rule, p)
}

func (s *Service) AlertRule() AlertRule {
	return s.rule
}

// FilterAlerts keeps the products matched by rule.
func FilterAlerts(ctx context.Context, rule AlertRule, products []*Product) []*Product {
	out := make([]*Product, 0)
	for _, p := range products {
		if MatchesAlert(ctx, rule, p) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesAlert evaluates rule against p. Evaluation errors count as no alert.
func MatchesAlert(ctx context.Context, rule AlertRule, p *Product) bool {
	ok, err := rule.Matches(p)
	if err != nil {
		logger.Warn(ctx, "low-stock rule failed", "product_id", p.ID, "error", err)
		return false
	}
	return ok
}
