package sales

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/pkg/logger"
)

var tracer = otel.Tracer("shopledger/sales")

// Config tunes the sales service.
type Config struct {
	// AllowNegativeStock lets a sale take stock below zero instead of failing
	AllowNegativeStock bool

	// Invoice is the invoice number series
	Invoice numerator.Config
}

// DefaultConfig matches the till's historic behavior: INV-0001 numbering, no stock floor.
func DefaultConfig() Config {
	return Config{
		AllowNegativeStock: true,
		Invoice:            numerator.InvoiceConfig("INV", 4),
	}
}

// Service implements checkout and tab reconciliation. Every operation runs
// in one transaction: the sale write, stock decrements, audit and events
// commit together or not at all.
type Service struct {
	repo      Repository
	inventory Inventory
	numerator numerator.Generator
	txManager tx.Manager
	journal   Journal
	alertRule product.AlertRule
	cfg       Config
	now       func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Inventory Inventory
	Numerator numerator.Generator
	TxManager tx.Manager
	Journal   Journal           // optional
	AlertRule product.AlertRule // optional, defaults to stock <= minStock
}

func NewService(deps Deps, cfg Config) *Service {
	if deps.Journal == nil {
		deps.Journal = NopJournal{}
	}
	if deps.AlertRule == nil {
		deps.AlertRule = product.MinStockRule{}
	}
	if deps.TxManager == nil {
		deps.TxManager = tx.Passthrough{}
	}
	return &Service{
		repo:      deps.Repo,
		inventory: deps.Inventory,
		numerator: deps.Numerator,
		txManager: deps.TxManager,
		journal:   deps.Journal,
		alertRule: deps.AlertRule,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LineInput is a cart line. Price is what the till displayed; the stored
// price always comes from the catalog.
type LineInput struct {
	ProductID id.ID
	Quantity  int
	Price     *types.Money
}

// CreateInput is a checkout request.
type CreateInput struct {
	CustomerName  string
	CustomerPhone string
	Items         []LineInput
	PaymentMethod PaymentMethod

	// AmountPaid is the deposit for HalfPayment and ignored otherwise
	AmountPaid *types.Money
}

func (in CreateInput) validate() error {
	if err := validateLines(in.Items); err != nil {
		return err
	}
	method, err := ParsePaymentMethod(string(in.PaymentMethod))
	if err != nil {
		return err
	}
	if method == PaymentHalfPayment {
		if in.AmountPaid == nil {
			return apperror.NewFieldValidation("amountPaid", "amountPaid is required for Half Payment")
		}
		if in.AmountPaid.IsNegative() {
			return apperror.NewFieldValidation("amountPaid", "amountPaid must not be negative")
		}
	}
	return nil
}

func (in CreateInput) deposit() types.Money {
	if in.AmountPaid == nil {
		return types.Zero()
	}
	return *in.AmountPaid
}

// ConsolidateInput folds a return visit into an open tab.
type ConsolidateInput struct {
	AdditionalPayment types.Money
	Items             []LineInput
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewFieldValidation("items", "at least one item is required")
	}
	for i, l := range lines {
		if id.IsNil(l.ProductID) {
			return apperror.NewFieldValidation("items", "productId is required").WithDetail("index", i)
		}
		if l.Quantity <= 0 {
			return apperror.NewFieldValidation("items", "quantity must be positive").
				WithDetail("index", i).
				WithDetail("quantity", l.Quantity)
		}
	}
	return nil
}

// Create records a new sale and takes its items out of stock.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "sales.Create")
	defer span.End()

	var created *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.create(ctx, in)
		if err != nil {
			return err
		}
		created = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("sale.invoice_id", created.InvoiceID))
	logger.Info(ctx, "sale created",
		"sale_id", created.ID,
		"invoice_id", created.InvoiceID,
		"customer", created.CustomerName,
		"total", created.Total.String(),
		"status", created.Status,
	)
	return created, nil
}

// create must run inside a transaction.
func (s *Service) create(ctx context.Context, in CreateInput) (*Sale, error) {
	method, _ := ParsePaymentMethod(string(in.PaymentMethod))

	items, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	items = MergeItems(nil, items)

	now := s.now()
	invoiceID, err := s.numerator.GetNextNumber(ctx, s.cfg.Invoice, now)
	if err != nil {
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}

	subtotal := ItemsTotal(items)
	tax := types.Zero()
	total := subtotal.Add(tax)
	paid := checkoutPayment(method, total, in.deposit())
	settlement := Settle(total, paid)

	sale := &Sale{
		InvoiceID:        invoiceID,
		CustomerName:     NormalizeCustomerName(in.CustomerName),
		CustomerPhone:    in.CustomerPhone,
		Items:            items,
		Subtotal:         subtotal,
		Tax:              tax,
		Total:            total,
		PaymentMethod:    method,
		AmountPaid:       paid,
		RemainingBalance: settlement.RemainingBalance,
		Status:           settlement.Status,
		CreatedBy:        audit.Actor(ctx),
	}
	sale.ID = id.New()
	sale.Version = 1
	sale.CreatedAt = now
	sale.UpdatedAt = now

	if err := s.repo.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	if err := s.takeStock(ctx, items); err != nil {
		return nil, err
	}
	if err := s.journal.SaleChanged(ctx, Change{Action: audit.ActionCreate, Event: EventSaleCreated, After: sale}); err != nil {
		return nil, fmt.Errorf("journal sale: %w", err)
	}
	return sale, nil
}

// CheckoutResult tells the till whether a new invoice was issued.
type CheckoutResult struct {
	Sale         *Sale `json:"sale"`
	Consolidated bool  `json:"consolidated"`
}

// Checkout routes a till checkout. A HalfPayment checkout for a customer
// with an open tab is folded into the newest such tab, the deposit counting
// as an additional payment. Everything else creates a new sale.
// Checkouts for the same customer name are serialized.
func (s *Service) Checkout(ctx context.Context, in CreateInput) (*CheckoutResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	method, _ := ParsePaymentMethod(string(in.PaymentMethod))
	in.PaymentMethod = method
	in.CustomerName = NormalizeCustomerName(in.CustomerName)

	ctx, span := tracer.Start(ctx, "sales.Checkout",
		trace.WithAttributes(attribute.String("sale.payment_method", string(method))))
	defer span.End()

	var result *CheckoutResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if method == PaymentHalfPayment {
			if err := s.repo.LockCustomer(ctx, in.CustomerName); err != nil {
				return fmt.Errorf("lock customer: %w", err)
			}
			open, err := s.repo.FindLatestOpenByCustomer(ctx, in.CustomerName)
			if err != nil {
				return fmt.Errorf("find open tab: %w", err)
			}
			if open != nil {
				sale, err := s.consolidate(ctx, open.ID, ConsolidateInput{
					AdditionalPayment: in.deposit(),
					Items:             in.Items,
				})
				if err != nil {
					return err
				}
				result = &CheckoutResult{Sale: sale, Consolidated: true}
				return nil
			}
		}

		sale, err := s.create(ctx, in)
		if err != nil {
			return err
		}
		result = &CheckoutResult{Sale: sale}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "checkout completed",
		"sale_id", result.Sale.ID,
		"invoice_id", result.Sale.InvoiceID,
		"consolidated", result.Consolidated,
		"status", result.Sale.Status,
	)
	return result, nil
}

// Consolidate merges new items and a payment into an open tab.
func (s *Service) Consolidate(ctx context.Context, saleID id.ID, in ConsolidateInput) (*Sale, error) {
	if in.AdditionalPayment.IsNegative() {
		return nil, apperror.NewFieldValidation("additionalPayment", "additionalPayment must not be negative")
	}
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "sales.Consolidate",
		trace.WithAttributes(attribute.String("sale.id", saleID.String())))
	defer span.End()

	var updated *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.consolidate(ctx, saleID, in)
		if err != nil {
			return err
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale consolidated",
		"sale_id", updated.ID,
		"invoice_id", updated.InvoiceID,
		"total", updated.Total.String(),
		"remaining", updated.RemainingBalance.String(),
		"status", updated.Status,
	)
	return updated, nil
}

// consolidate must run inside a transaction. Inputs are already validated.
func (s *Service) consolidate(ctx context.Context, saleID id.ID, in ConsolidateInput) (*Sale, error) {
	sale, err := s.lockOpen(ctx, saleID)
	if err != nil {
		return nil, err
	}
	before := sale.Clone()

	newItems, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	added := ItemsTotal(newItems)

	sale.Subtotal = sale.Subtotal.Add(added)
	sale.Total = sale.Total.Add(added)
	sale.AmountPaid = sale.AmountPaid.Add(in.AdditionalPayment)
	s.settle(sale)
	sale.Items = MergeItems(sale.Items, newItems)

	if err := s.repo.Update(ctx, sale); err != nil {
		return nil, fmt.Errorf("update sale: %w", err)
	}
	if err := s.takeStock(ctx, newItems); err != nil {
		return nil, err
	}
	change := Change{Action: audit.ActionConsolidate, Event: EventSaleConsolidated, Before: before, After: sale}
	if err := s.journal.SaleChanged(ctx, change); err != nil {
		return nil, fmt.Errorf("journal sale: %w", err)
	}
	return sale, nil
}

// ApplyPayment records a top-up payment against an open tab.
func (s *Service) ApplyPayment(ctx context.Context, saleID id.ID, amount types.Money) (*Sale, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewFieldValidation("additionalPayment", "payment must be positive")
	}
	return s.amend(ctx, saleID, audit.ActionPayment, EventPaymentApplied, func(sale *Sale) {
		sale.AmountPaid = sale.AmountPaid.Add(amount)
	})
}

// AddDebt charges an extra amount to an open tab without new lines.
func (s *Service) AddDebt(ctx context.Context, saleID id.ID, amount types.Money) (*Sale, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewFieldValidation("additionalDebt", "debt must be positive")
	}
	return s.amend(ctx, saleID, audit.ActionDebt, EventDebtAdded, func(sale *Sale) {
		sale.Total = sale.Total.Add(amount)
	})
}

func (s *Service) amend(ctx context.Context, saleID id.ID, action audit.Action, event string, apply func(*Sale)) (*Sale, error) {
	ctx, span := tracer.Start(ctx, "sales."+string(action),
		trace.WithAttributes(attribute.String("sale.id", saleID.String())))
	defer span.End()

	var updated *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.lockOpen(ctx, saleID)
		if err != nil {
			return err
		}
		before := sale.Clone()

		apply(sale)
		s.settle(sale)

		if err := s.repo.Update(ctx, sale); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		if err := s.journal.SaleChanged(ctx, Change{Action: action, Event: event, Before: before, After: sale}); err != nil {
			return fmt.Errorf("journal sale: %w", err)
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale amended",
		"sale_id", updated.ID,
		"action", action,
		"amount_paid", updated.AmountPaid.String(),
		"remaining", updated.RemainingBalance.String(),
		"status", updated.Status,
	)
	return updated, nil
}

// lockOpen loads a sale for update and checks that it is an open tab.
func (s *Service) lockOpen(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetForUpdate(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("load sale: %w", err)
	}
	if !sale.IsOpen() {
		return nil, apperror.NewSaleClosed(saleID.String(), string(sale.Status))
	}
	return sale, nil
}

func (s *Service) settle(sale *Sale) {
	st := Settle(sale.Total, sale.AmountPaid)
	sale.RemainingBalance = st.RemainingBalance
	sale.Status = st.Status
	sale.UpdatedAt = s.now()
}

// priceLines turns cart lines into sale lines priced from the catalog.
func (s *Service) priceLines(ctx context.Context, lines []LineInput) ([]Item, error) {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		p, err := s.inventory.GetByID(ctx, l.ProductID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("product", l.ProductID.String())
			}
			return nil, fmt.Errorf("load product %s: %w", l.ProductID, err)
		}
		if l.Price != nil && !l.Price.Equal(p.Price) {
			logger.Debug(ctx, "client price differs from catalog",
				"product_id", p.ID, "client_price", l.Price.String(), "catalog_price", p.Price.String())
		}
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			Price:     p.Price,
			Total:     types.LineTotal(p.Price, l.Quantity),
		})
	}
	return items, nil
}

// takeStock decrements stock for every line and raises low-stock events.
func (s *Service) takeStock(ctx context.Context, items []Item) error {
	for _, it := range items {
		p, err := s.inventory.DecrementStock(ctx, it.ProductID, it.Quantity, s.cfg.AllowNegativeStock)
		if err != nil {
			return err
		}
		if product.MatchesAlert(ctx, s.alertRule, p) {
			if err := s.journal.StockLow(ctx, p); err != nil {
				return fmt.Errorf("journal stock alert: %w", err)
			}
		}
	}
	return nil
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, err
	}
	return sale, nil
}

// List returns sales newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Sale, error) {
	return s.repo.List(ctx, filter)
}

// ListOpen returns open tabs with an outstanding balance, newest first.
func (s *Service) ListOpen(ctx context.Context) ([]*Sale, error) {
	all, err := s.repo.List(ctx, ListFilter{Status: StatusPartialPayment})
	if err != nil {
		return nil, err
	}
	open := make([]*Sale, 0, len(all))
	for _, sale := range all {
		if sale.RemainingBalance.IsPositive() {
			open = append(open, sale)
		}
	}
	return open, nil
}

// Outstanding sums the balances of open tabs.
func (s *Service) Outstanding(ctx context.Context) (types.Money, int, error) {
	open, err := s.ListOpen(ctx)
	if err != nil {
		return types.Zero(), 0, err
	}
	total := types.Zero()
	for _, sale := range open {
		total = total.Add(sale.RemainingBalance)
	}
	return total, len(open), nil
}
