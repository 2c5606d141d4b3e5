package repository

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
)

// entityCodec maps entities to stored records and back for one schema
type entityCodec[T models.Entity] struct {
	schema    *Schema
	newEntity func() T
}

func newEntityCodec[T models.Entity](schema *Schema, newEntity func() T) *entityCodec[T] {
	return &entityCodec[T]{schema: schema, newEntity: newEntity}
}

// encode builds the full record of e with every index key recomputed from
// the current attribute values.
func (c *entityCodec[T]) encode(e T) (dal.Item, error) {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", c.schema.Type, err)
	}
	c.normalize(item)

	// stale keys from the caller's struct never survive
	for _, attr := range c.schema.derivedAttributes() {
		delete(item, attr)
	}

	status, _ := dal.StringAttr(item, c.schema.StatusField)
	lookup := c.lookup(item)

	if err := c.applyKeys(item, &c.schema.PrimaryKey, lookup, true); err != nil {
		return nil, err
	}
	for i := range c.schema.Indexes {
		def := &c.schema.Indexes[i]
		if def.excludes(status) {
			continue
		}
		if err := c.applyKeys(item, def, lookup, false); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (c *entityCodec[T]) applyKeys(item dal.Item, def *IndexDefinition, lookup func(string) (string, bool), required bool) error {
	for _, field := range append(def.PartitionTemplate.Fields(), def.SortTemplate.Fields()...) {
		if v, ok := lookup(field); ok {
			if err := checkKeyValue(field, v); err != nil {
				return err
			}
		}
	}
	pk, ok := def.PartitionTemplate.Render(lookup)
	if !ok {
		if required {
			return models.NewValidationError(c.schema.IDField, "cannot build the record key")
		}
		return nil
	}
	var sk string
	if def.SortKey != "" {
		sk, ok = def.SortTemplate.Render(lookup)
		if !ok {
			if required {
				return models.NewValidationError(c.schema.IDField, "cannot build the record key")
			}
			return nil
		}
	}
	item[def.PartitionKey] = dal.S(pk)
	if def.SortKey != "" {
		item[def.SortKey] = dal.S(sk)
	}
	return nil
}

// lookup resolves template placeholders against scalar attributes of item
func (c *entityCodec[T]) lookup(item dal.Item) func(string) (string, bool) {
	return func(field string) (string, bool) {
		switch v := item[field].(type) {
		case *types.AttributeValueMemberS:
			return v.Value, true
		case *types.AttributeValueMemberN:
			return v.Value, true
		default:
			return "", false
		}
	}
}

// decode turns a stored record into an entity. Missing declared fields are
// read back as their zero value ("" for strings, empty maps and lists).
func (c *entityCodec[T]) decode(item dal.Item) (T, error) {
	e := c.newEntity()
	record := make(dal.Item, len(item))
	for k, v := range item {
		record[k] = v
	}
	c.normalize(record)

	if err := attributevalue.UnmarshalMap(record, e); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal %s: %w", c.schema.Type, err)
	}
	return e, nil
}

// normalize replaces NULL or absent declared fields with lawful defaults
func (c *entityCodec[T]) normalize(item dal.Item) {
	for field, kind := range c.schema.Fields {
		av, ok := item[field]
		if ok {
			if _, isNull := av.(*types.AttributeValueMemberNULL); !isNull {
				continue
			}
		}
		switch kind {
		case FieldMap:
			item[field] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
		case FieldList:
			item[field] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
		case FieldNumber:
			item[field] = &types.AttributeValueMemberN{Value: "0"}
		case FieldBool:
			item[field] = &types.AttributeValueMemberBOOL{Value: false}
		default:
			item[field] = dal.S("")
		}
	}
}

// projectionFields validates requested fields and force-includes the id and
// every key attribute the cursor needs.
func (s *Schema) projectionFields(requested []string, def *IndexDefinition) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(requested))
	fields := make([]string, 0, len(requested)+6)
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	for _, f := range requested {
		f = strings.TrimSpace(f)
		if _, ok := s.Fields[f]; !ok {
			return nil, models.NewValidationError("fields", fmt.Sprintf("unknown field %q", f))
		}
		add(f)
	}
	add(s.IDField)
	for _, attr := range s.keyAttributes(def) {
		add(attr)
	}
	return fields, nil
}
