// Package catalog_repo provides PostgreSQL implementations of the record
// repositories: products and expenses.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/infrastructure/storage/postgres"
)

// BaseRepo provides common CRUD operations for tables whose rows map onto a
// struct with "db" tags and embed entity.BaseEntity. Embed it in specific repositories.
type BaseRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseRepo creates a base repository.
func NewBaseRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
) *BaseRepo[T] {
	return &BaseRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// insertQuery builds the INSERT for entity using its "db" tags.
func (r *BaseRepo[T]) insertQuery(entity T) (squirrel.InsertBuilder, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return squirrel.InsertBuilder{}, fmt.Errorf("no db tags found in %s", r.entityName)
	}
	return r.Builder().
		Insert(r.tableName).
		SetMap(postgres.FilterColumns(data, r.selectCols)), nil
}

// Create inserts a new entity.
func (r *BaseRepo[T]) Create(ctx context.Context, entity T) error {
	q, err := r.insertQuery(entity)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if constraint, ok := postgres.IsUniqueViolation(err); ok {
			return apperror.NewDuplicate(r.entityName, constraint, "").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	return nil
}

// updateQuery builds the optimistic UPDATE for entity. The row must still
// carry the entity's version; the statement bumps it and returns the new
// version and timestamp.
func (r *BaseRepo[T]) updateQuery(entity T) (squirrel.UpdateBuilder, id.ID, int, error) {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"].(id.ID)
	if !ok {
		return squirrel.UpdateBuilder{}, id.ID{}, 0, fmt.Errorf("%s has no id column", r.entityName)
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, id.ID{}, 0, fmt.Errorf("%s has no version column", r.entityName)
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(postgres.FilterColumns(data, r.selectCols, "id", "version", "created_at", "updated_at")).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		Suffix("RETURNING version, updated_at")
	return q, entityID, version, nil
}

// update writes entity when the stored version matches and reports the
// new version through setVersion.
func (r *BaseRepo[T]) update(ctx context.Context, entity T, setVersion func(version int, updatedAt time.Time)) error {
	q, entityID, version, err := r.updateQuery(entity)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	var (
		newVersion int
		updatedAt  time.Time
	)
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion, &updatedAt); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewConcurrentModification(r.entityName, entityID.String()).
				WithDetail("expected_version", version)
		}
		if constraint, ok := postgres.IsUniqueViolation(err); ok {
			return apperror.NewDuplicate(r.entityName, constraint, "").WithCause(err)
		}
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	setVersion(newVersion, updatedAt)
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)
	return r.FindOne(ctx, q, entityID.String())
}

// GetForUpdate retrieves entity by ID with row lock.
func (r *BaseRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")
	return r.FindOne(ctx, q, entityID.String())
}

// FindOne executes a SELECT query and returns a single entity.
// key names the lookup in the NotFound error.
func (r *BaseRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}

	return entity, nil
}

// FindMany executes a SELECT query.
func (r *BaseRepo[T]) FindMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]T, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return items, nil
}

// Delete performs physical removal from the database.
func (r *BaseRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("Record is referenced by other records").
				WithDetail("entity", r.entityName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}

	return nil
}

// Exists checks if entity exists.
func (r *BaseRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Prefix("SELECT EXISTS (").
		Suffix(")")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return exists, nil
}

// returningCols renders the select columns for a RETURNING clause.
func (r *BaseRepo[T]) returningCols() string {
	return strings.Join(r.selectCols, ", ")
}

// searchPattern escapes LIKE wildcards in a user search string.
func searchPattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
	return "%" + s + "%"
}
