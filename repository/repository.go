package repository

import (
	"context"
	"errors"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
)

// Repository is the single-table access layer of one entity type
type Repository[T models.Entity] struct {
	db     dal.DatabaseClientInterface
	schema *Schema
	table  string
	limits Limits
	codec  *entityCodec[T]
	pager  *paginator
	logger logger.Logger
}

// NewRepository creates a repository for the entity described by schema.
// newEntity must return a fresh, non-nil T.
func NewRepository[T models.Entity](db dal.DatabaseClientInterface, schema *Schema, cursors *CursorCodec, cfg *models.Config, log logger.Logger, newEntity func() T) *Repository[T] {
	limits := Limits{Min: cfg.PaginationMinLimit, Max: cfg.PaginationMaxLimit}
	if limits.Min <= 0 || limits.Max < limits.Min {
		limits = DefaultLimits
	}
	batch := int32(cfg.QueryBatchSize)
	if batch <= 0 {
		batch = 100
	}
	return &Repository[T]{
		db:     db,
		schema: schema,
		table:  cfg.TableName(),
		limits: limits,
		codec:  newEntityCodec(schema, newEntity),
		pager:  &paginator{db: db, cursors: cursors, batchSize: batch},
		logger: log.WithFields(map[string]interface{}{"entity": schema.Type}),
	}
}

// Schema returns the descriptor the repository was built with
func (r *Repository[T]) Schema() *Schema {
	return r.schema
}

// Create writes a new record with every index key computed. It fails if a
// record with the same id already exists.
func (r *Repository[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	item, err := r.codec.encode(entity)
	if err != nil {
		return zero, err
	}
	if err := r.db.PutItem(ctx, r.table, item, dal.MustNotExist(r.schema.PrimaryKey.PartitionKey)); err != nil {
		if models.IsConditionalFailure(err) {
			return zero, models.NewConflictError(r.schema.Type, r.schema.IDField, entity.GetID())
		}
		return zero, r.storeFailure("create", "", err)
	}

	r.logger.Infof("%s created successfully: %s", r.schema.Type, entity.GetID())
	return entity, nil
}

// FindByID reads one record by id
func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, models.NewValidationError(r.schema.IDField, "id is required")
	}
	key, err := r.schema.primaryKey(id)
	if err != nil {
		return zero, err
	}
	item, err := r.db.GetItem(ctx, r.table, key, nil)
	if err != nil {
		return zero, r.storeFailure("get", "", err)
	}
	if item == nil {
		return zero, models.NewNotFoundError(r.schema.Type, id)
	}
	return r.codec.decode(item)
}

// FindByName finds the live record with exactly this name
func (r *Repository[T]) FindByName(ctx context.Context, name string) (T, error) {
	var zero T
	q, err := r.schema.nameQuery(r.table, name)
	if err != nil {
		return zero, err
	}
	out, err := r.db.Query(ctx, q.Input)
	if err != nil {
		return zero, r.storeFailure("findByName", q.Index.Name, err)
	}
	if len(out.Items) == 0 {
		return zero, models.NewNotFoundError(r.schema.Type, name)
	}
	return r.codec.decode(out.Items[0])
}

// FindContainingName returns every live record whose name contains fragment.
// It filters the whole entity partition.
func (r *Repository[T]) FindContainingName(ctx context.Context, fragment string) ([]T, error) {
	q, err := r.schema.containsQuery(r.table, fragment)
	if err != nil {
		return nil, err
	}
	items, err := r.pager.all(ctx, q.Input)
	if err != nil {
		return nil, r.storeFailure("findContainingName", "", err)
	}
	return r.decodeAll(items)
}

// FindPagination lists records, optionally of one status, a page at a time
func (r *Repository[T]) FindPagination(ctx context.Context, limit int, status, direction, cursorPointer string) (*models.Page[T], error) {
	filter := models.Filter{}
	if status != "" {
		filter.Status = []string{status}
	}
	return r.FindFilterPagination(ctx, filter, limit, direction, cursorPointer)
}

// FindFilterPagination routes filter to an index and returns one page.
// Invalid input is rejected before the store is called.
func (r *Repository[T]) FindFilterPagination(ctx context.Context, filter models.Filter, limit int, direction, cursorPointer string) (*models.Page[T], error) {
	if err := r.limits.validate(limit); err != nil {
		return nil, err
	}
	dir, err := models.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	q, err := r.schema.buildQuery(r.table, filter)
	if err != nil {
		return nil, err
	}

	res, err := r.pager.page(ctx, r.schema, q, limit, dir, cursorPointer)
	if err != nil {
		return nil, r.storeFailure("paginate", q.Index.Name, err)
	}
	data, err := r.decodeAll(res.Items)
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("Page of %d from index %q (next=%t, prev=%t)", len(data), q.Index.Name, res.Next != "", res.Prev != "")
	return &models.Page[T]{
		Data:              data,
		NextCursorPointer: res.Next,
		PrevCursorPointer: res.Prev,
	}, nil
}

// Update overwrites an existing record, recomputing every index key
func (r *Repository[T]) Update(ctx context.Context, entity T) (T, error) {
	return r.replace(ctx, "update", entity)
}

// SoftDelete moves the record to the deleted status, which takes it out of
// every index that excludes that status.
func (r *Repository[T]) SoftDelete(ctx context.Context, entity T) (T, error) {
	entity.SetStatus(r.schema.DeletedStatus)
	return r.replace(ctx, "softDelete", entity)
}

// HardDelete removes the record. It is not recoverable.
func (r *Repository[T]) HardDelete(ctx context.Context, entity T) (T, error) {
	var zero T
	key, err := r.schema.primaryKey(entity.GetID())
	if err != nil || entity.GetID() == "" {
		return zero, models.NewValidationError(r.schema.IDField, "id is required")
	}
	if err := r.db.DeleteItem(ctx, r.table, key); err != nil {
		return zero, r.storeFailure("hardDelete", "", err)
	}

	r.logger.Infof("%s deleted permanently: %s", r.schema.Type, entity.GetID())
	return entity, nil
}

func (r *Repository[T]) replace(ctx context.Context, op string, entity T) (T, error) {
	var zero T
	if entity.GetID() == "" {
		return zero, models.NewValidationError(r.schema.IDField, "id is required")
	}
	item, err := r.codec.encode(entity)
	if err != nil {
		return zero, err
	}
	if err := r.db.PutItem(ctx, r.table, item, dal.MustExist(r.schema.PrimaryKey.PartitionKey)); err != nil {
		if models.IsConditionalFailure(err) {
			return zero, models.NewNotFoundError(r.schema.Type, entity.GetID())
		}
		return zero, r.storeFailure(op, "", err)
	}
	return entity, nil
}

func (r *Repository[T]) decodeAll(items []dal.Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		e, err := r.codec.decode(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// storeFailure logs a store error with its context before handing it back
func (r *Repository[T]) storeFailure(op, index string, err error) error {
	fields := map[string]interface{}{"op": op}
	if index != "" {
		fields["index"] = index
	}
	var se *models.StoreError
	if errors.As(err, &se) {
		fields["code"] = se.Code
		fields["retryable"] = se.Retryable
	}
	r.logger.WithFields(fields).Errorf("Store operation failed: %v", err)

	if se == nil {
		return &models.StoreError{Op: op, Err: err}
	}
	return err
}
