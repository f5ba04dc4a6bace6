// Package document_repo provides the PostgreSQL sales ledger.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/storage/postgres"
)

const saleTable = "sales"

// SaleRepo implements sales.Repository. Line items live in a JSONB column.
type SaleRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

var _ sales.Repository = (*SaleRepo)(nil)

func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[sales.Sale](),
	}
}

// Builder returns a new squirrel builder.
func (r *SaleRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *SaleRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(saleTable)
}

func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	data := postgres.FilterColumns(postgres.StructToMap(sale), r.selectCols)
	sql, args, err := r.Builder().Insert(saleTable).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if constraint, ok := postgres.IsUniqueViolation(err); ok {
			return apperror.NewDuplicate("sale", constraint, sale.InvoiceID).WithCause(err)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": saleID}), saleID)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": saleID}).Suffix("FOR UPDATE"), saleID)
}

func (r *SaleRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, saleID id.ID) (*sales.Sale, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	sale := &sales.Sale{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return sale, nil
}

// updateQuery writes the reconcilable columns. Identity, invoice number and
// creation fields never change after checkout.
func (r *SaleRepo) updateQuery(sale *sales.Sale) squirrel.UpdateBuilder {
	return r.Builder().
		Update(saleTable).
		Set("items", sale.Items).
		Set("subtotal", sale.Subtotal).
		Set("tax", sale.Tax).
		Set("total", sale.Total).
		Set("amount_paid", sale.AmountPaid).
		Set("remaining_balance", sale.RemainingBalance).
		Set("status", sale.Status).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": sale.ID}).
		Where(squirrel.Eq{"version": sale.Version}).
		Suffix("RETURNING version, updated_at")
}

func (r *SaleRepo) Update(ctx context.Context, sale *sales.Sale) error {
	sql, args, err := r.updateQuery(sale).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	row := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
	if err := row.Scan(&sale.Version, &sale.UpdatedAt); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewConcurrentModification("sale", sale.ID.String()).
				WithDetail("expected_version", sale.Version)
		}
		return fmt.Errorf("update sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) listQuery(filter sales.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect().OrderBy("created_at DESC", "invoice_id DESC")
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.CustomerName != "" {
		q = q.Where(squirrel.Eq{"customer_name": filter.CustomerName})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.To})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q
}

// List returns sales newest first.
func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) ([]*sales.Sale, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]*sales.Sale, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return items, nil
}

func (r *SaleRepo) FindLatestOpenByCustomer(ctx context.Context, name string) (*sales.Sale, error) {
	open, err := r.List(ctx, sales.ListFilter{
		Status:       sales.StatusPartialPayment,
		CustomerName: name,
		Limit:        1,
	})
	if err != nil || len(open) == 0 {
		return nil, err
	}
	return open[0], nil
}

const lockCustomerSQL = `SELECT pg_advisory_xact_lock(hashtext('sale_customer'), hashtext($1))`

// LockCustomer takes a transaction-scoped advisory lock on the customer name.
func (r *SaleRepo) LockCustomer(ctx context.Context, name string) error {
	if !r.txManager.InTransaction(ctx) {
		return fmt.Errorf("lock customer: no active transaction")
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, lockCustomerSQL, name); err != nil {
		return fmt.Errorf("lock customer: %w", err)
	}
	return nil
}
