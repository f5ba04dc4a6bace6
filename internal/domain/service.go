package domain

import (
	"context"
	"fmt"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain/audit"
	"shopledger/pkg/logger"
)

// RecordService implements create/read/update/delete for simple records:
// validation, hooks, a transaction per write and an audit entry per change.
type RecordService[T Record, F any] struct {
	repo       RecordRepository[T, F]
	txManager  tx.Manager
	audit      audit.Recorder
	hooks      *HookRegistry[T]
	clone      func(T) T
	entityName string
}

// RecordServiceConfig configures a RecordService.
type RecordServiceConfig[T Record, F any] struct {
	Repo      RecordRepository[T, F]
	TxManager tx.Manager
	Audit     audit.Recorder // optional

	// Clone copies a record so the audit trail sees the state before an update
	Clone      func(T) T
	EntityName string
}

func NewRecordService[T Record, F any](cfg RecordServiceConfig[T, F]) *RecordService[T, F] {
	rec := cfg.Audit
	if rec == nil {
		rec = audit.Nop{}
	}
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Passthrough{}
	}
	return &RecordService[T, F]{
		repo:       cfg.Repo,
		txManager:  txm,
		audit:      rec,
		hooks:      NewHookRegistry[T](),
		clone:      cfg.Clone,
		entityName: cfg.EntityName,
	}
}

func (s *RecordService[T, F]) Hooks() *HookRegistry[T] {
	return s.hooks
}

func (s *RecordService[T, F]) normalizeValidationErr(err error) error {
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *RecordService[T, F]) normalizeGetErr(err error, recordID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, recordID.String())
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", recordID.String())
}

// Create validates and inserts record.
func (s *RecordService[T, F]) Create(ctx context.Context, record T) error {
	if err := s.hooks.Run(ctx, BeforeCreate, record); err != nil {
		return err
	}
	if err := record.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, record); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return s.audit.LogChange(ctx, s.entityName, record.GetID(), audit.ActionCreate, nil, record)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, record); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}
	logger.Info(ctx, s.entityName+" created", "id", record.GetID())
	return nil
}

func (s *RecordService[T, F]) GetByID(ctx context.Context, recordID id.ID) (T, error) {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return record, s.normalizeGetErr(err, recordID)
	}
	return record, nil
}

// Update loads the record, applies mutate and writes it back.
// When expectedVersion is set it must equal the stored version.
func (s *RecordService[T, F]) Update(ctx context.Context, recordID id.ID, expectedVersion *int, mutate func(T) error) (T, error) {
	var updated T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		record, err := s.repo.GetByID(ctx, recordID)
		if err != nil {
			return s.normalizeGetErr(err, recordID)
		}
		if expectedVersion != nil && *expectedVersion != record.GetVersion() {
			return apperror.NewConcurrentModification(s.entityName, recordID.String()).
				WithDetail("expected_version", *expectedVersion).
				WithDetail("current_version", record.GetVersion())
		}

		var before T
		if s.clone != nil {
			before = s.clone(record)
		}

		if err := mutate(record); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, record); err != nil {
			return err
		}
		if err := record.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}
		if err := s.repo.Update(ctx, record); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		if err := s.audit.LogChange(ctx, s.entityName, recordID, audit.ActionUpdate, before, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return updated, err
	}
	logger.Info(ctx, s.entityName+" updated", "id", recordID, "version", updated.GetVersion())
	return updated, nil
}

// Delete removes the record permanently.
func (s *RecordService[T, F]) Delete(ctx context.Context, recordID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		record, err := s.repo.GetByID(ctx, recordID)
		if err != nil {
			return s.normalizeGetErr(err, recordID)
		}
		if err := s.hooks.Run(ctx, BeforeDelete, record); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, recordID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return s.audit.LogChange(ctx, s.entityName, recordID, audit.ActionDelete, record, nil)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, s.entityName+" deleted", "id", recordID)
	return nil
}

func (s *RecordService[T, F]) List(ctx context.Context, filter F) ([]T, error) {
	return s.repo.List(ctx, filter)
}
