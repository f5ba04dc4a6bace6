package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/infrastructure/storage/postgres"
)

const productTable = "products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseRepo: NewBaseRepo(
			txManager,
			productTable,
			"product",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.update(ctx, p, func(version int, updatedAt time.Time) {
		p.Version = version
		p.UpdatedAt = updatedAt
	})
}

// listQuery applies filter. Products are listed by name.
func (r *ProductRepo) listQuery(filter product.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect().OrderBy("name ASC", "id ASC")
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"supplier": pattern},
		})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	return q
}

func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	return r.FindMany(ctx, r.listQuery(filter))
}

// decrementQuery takes quantity units off stock in one statement and
// re-derives status from the new level. With allowNegative false the row is
// only touched while enough stock remains.
func (r *ProductRepo) decrementQuery(productID id.ID, quantity int, allowNegative bool) squirrel.UpdateBuilder {
	q := r.Builder().
		Update(productTable).
		Set("stock", squirrel.Expr("stock - ?", quantity)).
		Set("status", squirrel.Expr(
			"CASE WHEN stock - ? <= 0 THEN ? WHEN stock - ? < ? THEN ? ELSE ? END",
			quantity, string(product.StatusOutOfStock),
			quantity, product.LowStockThreshold, string(product.StatusLowStock),
			string(product.StatusInStock),
		)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID})
	if !allowNegative {
		q = q.Where(squirrel.GtOrEq{"stock": quantity})
	}
	return q.Suffix("RETURNING " + r.returningCols())
}

func (r *ProductRepo) DecrementStock(ctx context.Context, productID id.ID, quantity int, allowNegative bool) (*product.Product, error) {
	sql, args, err := r.decrementQuery(productID, quantity, allowNegative).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build decrement: %w", err)
	}

	p := &product.Product{}
	if err := pgxscan.Get(ctx, r.querier(ctx), p, sql, args...); err != nil {
		if !pgxscan.NotFound(err) {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		current, getErr := r.GetByID(ctx, productID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperror.NewInsufficientStock(productID.String(), quantity, current.Stock)
	}
	return p, nil
}
