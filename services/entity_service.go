package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/repository"
	"github.com/demariano/php-suite-sub002/utils"
	"github.com/demariano/php-suite-sub002/utils/logger"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-playground/validator/v10"
)

// protectedFields are never taken from an update patch
var protectedFields = []string{"id", "createdBy", "dateCreated", "modifiedBy", "modifiedDate", "activityLogs"}

// EntityService implements the create/read/update/delete flows of one entity type
type EntityService[T models.Entity] struct {
	repo      repository.EntityRepositoryInterface[T]
	schema    *repository.Schema
	validate  *validator.Validate
	newEntity func() T
	newID     func() string
	now       func() time.Time
	logger    logger.Logger
}

func NewEntityService[T models.Entity](repo repository.EntityRepositoryInterface[T], newEntity func() T, log logger.Logger) *EntityService[T] {
	schema := repo.Schema()
	return &EntityService[T]{
		repo:      repo,
		schema:    schema,
		validate:  newValidator(),
		newEntity: newEntity,
		newID:     utils.GenerateUUID,
		now:       time.Now,
		logger:    log.WithFields(map[string]interface{}{"service": schema.Resource}),
	}
}

// newValidator reports struct fields by their json name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *EntityService[T]) Create(ctx context.Context, entity T, actor string) (T, error) {
	var zero T
	if entity.GetStatus() == "" {
		entity.SetStatus(s.schema.DefaultStatus)
	}
	if err := s.check(entity); err != nil {
		return zero, err
	}
	if entity.GetStatus() == s.schema.DeletedStatus {
		return zero, models.NewValidationError("status", "cannot create a deleted record")
	}
	if err := s.ensureUniqueName(ctx, entity.GetName(), ""); err != nil {
		return zero, err
	}

	now := s.now()
	entity.SetID(s.newID())
	entity.ResetAudit()
	entity.MarkCreated(now, actor)
	entity.AppendActivity(s.activity(now, "created", actor), s.schema.ActivityLogLimit)

	s.logger.Debugf("Creating %s %s", s.schema.Type, entity.GetID())
	return s.repo.Create(ctx, entity)
}

func (s *EntityService[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, models.NewValidationError("id", "id is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *EntityService[T]) GetByName(ctx context.Context, name string) (T, error) {
	var zero T
	name = strings.TrimSpace(name)
	if name == "" {
		return zero, models.NewValidationError(s.schema.NameField, "name is required")
	}
	return s.repo.FindByName(ctx, name)
}

// Search returns every active record whose name contains fragment
func (s *EntityService[T]) Search(ctx context.Context, fragment string) ([]T, error) {
	return s.repo.FindContainingName(ctx, strings.TrimSpace(fragment))
}

// List pages through records, optionally restricted to one status
func (s *EntityService[T]) List(ctx context.Context, req models.PageRequest, status string) (*models.Page[T], error) {
	return s.repo.FindPagination(ctx, req.Limit, strings.TrimSpace(status), string(req.Direction), req.CursorPointer)
}

// Filter pages through records matching a filter descriptor
func (s *EntityService[T]) Filter(ctx context.Context, req models.FilterPageRequest) (*models.Page[T], error) {
	if err := s.validate.Struct(req.Filter); err != nil {
		return nil, validationFailure(err)
	}
	return s.repo.FindFilterPagination(ctx, req.Filter, int(req.Limit), req.Direction, req.CursorPointer)
}

// Update merges patch into the stored record. Key attributes are recomputed
// by the repository from the merged values.
func (s *EntityService[T]) Update(ctx context.Context, id string, patch map[string]interface{}, actor string) (T, error) {
	var zero T
	current, err := s.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if len(patch) == 0 {
		return zero, models.NewValidationError("body", "update must change at least one field")
	}

	updated, err := s.merge(current, patch)
	if err != nil {
		return zero, err
	}
	if err := s.check(updated); err != nil {
		return zero, err
	}
	switch updated.GetStatus() {
	case "":
		return zero, models.NewValidationError("status", "status is required")
	case s.schema.DeletedStatus:
		if current.GetStatus() != s.schema.DeletedStatus {
			return zero, models.NewValidationError("status", "use delete to remove a record")
		}
	}
	if updated.GetName() != current.GetName() {
		if err := s.ensureUniqueName(ctx, updated.GetName(), current.GetID()); err != nil {
			return zero, err
		}
	}

	now := s.now()
	updated.MarkModified(now, actor)
	updated.AppendActivity(s.activity(now, "updated", actor), s.schema.ActivityLogLimit)

	s.logger.Debugf("Updating %s %s", s.schema.Type, id)
	return s.repo.Update(ctx, updated)
}

// Delete marks the record deleted, or removes it when hard is set
func (s *EntityService[T]) Delete(ctx context.Context, id string, hard bool, actor string) (T, error) {
	var zero T
	current, err := s.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if hard {
		s.logger.Infof("Hard deleting %s %s", s.schema.Type, current.GetID())
		return s.repo.HardDelete(ctx, current)
	}
	if current.GetStatus() == s.schema.DeletedStatus {
		return current, nil
	}

	now := s.now()
	current.MarkModified(now, actor)
	current.AppendActivity(s.activity(now, "deleted", actor), s.schema.ActivityLogLimit)
	return s.repo.SoftDelete(ctx, current)
}

// merge applies patch to the current record as a JSON merge patch.
// Protected fields are dropped and undeclared fields are rejected first.
func (s *EntityService[T]) merge(current T, patch map[string]interface{}) (T, error) {
	var zero T
	allowed := make(map[string]interface{}, len(patch))
	for field, value := range patch {
		if isProtected(field) {
			continue
		}
		if _, declared := s.schema.Fields[field]; !declared {
			return zero, models.NewValidationError(field, "unknown field")
		}
		allowed[field] = value
	}

	doc, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", s.schema.Type, err)
	}
	rawPatch, err := json.Marshal(allowed)
	if err != nil {
		return zero, models.NewValidationError("body", err.Error())
	}
	merged, err := jsonpatch.MergePatch(doc, rawPatch)
	if err != nil {
		return zero, models.NewValidationError("body", err.Error())
	}

	updated := s.newEntity()
	if err := json.Unmarshal(merged, updated); err != nil {
		return zero, models.NewValidationError("body", err.Error())
	}
	return updated, nil
}

// check runs struct tag validation and the schema's enum constraints
func (s *EntityService[T]) check(entity T) error {
	if err := s.validate.Struct(entity); err != nil {
		return validationFailure(err)
	}

	raw, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.schema.Type, err)
	}
	values := map[string]interface{}{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.schema.Type, err)
	}
	return s.schema.CheckEnums(values)
}

// ensureUniqueName fails when another record already uses name.
// The check and the following write are not atomic.
func (s *EntityService[T]) ensureUniqueName(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.GetID() == selfID:
		return nil
	default:
		return models.NewConflictError(s.schema.Type, s.schema.NameField, name)
	}
}

func (s *EntityService[T]) activity(at time.Time, action, actor string) string {
	if actor == "" {
		actor = "system"
	}
	return fmt.Sprintf("%s %s by %s", models.FormatTimestamp(at), action, actor)
}

func isProtected(field string) bool {
	for _, f := range protectedFields {
		if f == field {
			return true
		}
	}
	return false
}

// validationFailure converts the first validator failure into a ValidationError
func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return models.NewValidationError(fe.Field(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	}
	return models.NewValidationError("", err.Error())
}
