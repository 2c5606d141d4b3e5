package repository

import (
	"fmt"
	"strings"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
)

const maxSearchLength = 256

// Limits bounds the page size accepted from callers
type Limits struct {
	Min int
	Max int
}

// DefaultLimits are the bounds applied when config leaves them unset
var DefaultLimits = Limits{Min: 1, Max: 100}

func (l Limits) validate(limit int) error {
	if limit < l.Min || limit > l.Max {
		return models.NewValidationError("limit", fmt.Sprintf("limit must be between %d and %d", l.Min, l.Max))
	}
	return nil
}

// plannedQuery is a complete store query plus the index it runs against
type plannedQuery struct {
	Input *dal.QueryInput
	Index *IndexDefinition
}

// buildQuery composes the routed key condition, residual criteria, search
// predicate, projection and scan direction into one store query.
func (s *Schema) buildQuery(table string, f models.Filter) (*plannedQuery, error) {
	r, err := s.routeFilter(f)
	if err != nil {
		return nil, err
	}

	filters := append([]dal.Predicate(nil), r.Residual...)
	if search := strings.TrimSpace(f.Search); search != "" {
		if len(search) > maxSearchLength {
			return nil, models.NewValidationError("search", fmt.Sprintf("search must be at most %d characters", maxSearchLength))
		}
		field := f.SearchField
		if field == "" {
			field = s.NameField
		}
		if !s.isTextField(field) {
			return nil, models.NewValidationError("searchField", fmt.Sprintf("%q is not searchable", field))
		}
		filters = append(filters, dal.Predicate{Op: dal.OpContains, Attribute: field, Values: []string{search}})
	}

	projection, err := s.projectionFields(f.Fields, r.Index)
	if err != nil {
		return nil, err
	}

	return &plannedQuery{
		Input: &dal.QueryInput{
			TableName:  table,
			IndexName:  r.Index.Name,
			Key:        r.Key,
			Filters:    filters,
			Projection: projection,
			Forward:    !f.Reverse,
		},
		Index: r.Index,
	}, nil
}

// containsQuery scans the base-table partition of the entity type with a
// substring filter, skipping soft-deleted records.
func (s *Schema) containsQuery(table, fragment string) (*plannedQuery, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, models.NewValidationError("name", "search fragment is required")
	}
	if len(fragment) > maxSearchLength {
		return nil, models.NewValidationError("name", fmt.Sprintf("search must be at most %d characters", maxSearchLength))
	}
	pk, ok := s.PrimaryKey.PartitionTemplate.Render(func(string) (string, bool) { return "", false })
	if !ok {
		return nil, fmt.Errorf("%s partition key depends on record attributes", s.Type)
	}
	return &plannedQuery{
		Input: &dal.QueryInput{
			TableName: table,
			Key: dal.KeyCondition{
				PartitionKey:   s.PrimaryKey.PartitionKey,
				PartitionValue: pk,
				SortKey:        s.PrimaryKey.SortKey,
			},
			Filters: []dal.Predicate{
				{Op: dal.OpContains, Attribute: s.NameField, Values: []string{fragment}},
				{Op: dal.OpNotEqual, Attribute: s.StatusField, Values: []string{s.DeletedStatus}},
			},
			Forward: true,
		},
		Index: &s.PrimaryKey,
	}, nil
}

// nameQuery looks up records by exact name through the name index
func (s *Schema) nameQuery(table, name string) (*plannedQuery, error) {
	def := s.index(AccessName)
	if def == nil {
		return nil, fmt.Errorf("%s has no name index", s.Type)
	}
	if err := checkKeyValue(s.NameField, name); err != nil {
		return nil, err
	}
	pk, ok := def.PartitionTemplate.Render(func(field string) (string, bool) {
		if field == s.NameField {
			return name, true
		}
		return "", false
	})
	if !ok {
		return nil, models.NewValidationError(s.NameField, "name is required")
	}
	return &plannedQuery{
		Input: &dal.QueryInput{
			TableName: table,
			IndexName: def.Name,
			Key: dal.KeyCondition{
				PartitionKey:   def.PartitionKey,
				PartitionValue: pk,
				SortKey:        def.SortKey,
			},
			Forward: true,
			Limit:   1,
		},
		Index: def,
	}, nil
}
