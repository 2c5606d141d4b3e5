package repository

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"gopkg.in/yaml.v3"
)

// IndexAccess names the access pattern an index serves
type IndexAccess string

const (
	AccessPrimary    IndexAccess = "primary"
	AccessAll        IndexAccess = "all"
	AccessStatus     IndexAccess = "status"
	AccessName       IndexAccess = "name"
	AccessDate       IndexAccess = "date"
	AccessRoleStatus IndexAccess = "roleStatus"
)

// FieldType is the declared storage type of an attribute
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "bool"
	FieldMap    FieldType = "map"
	FieldList   FieldType = "list"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// KeyTemplate is a key pattern such as "USER#{status}"
type KeyTemplate string

// Fields lists the attributes the template reads
func (t KeyTemplate) Fields() []string {
	var fields []string
	for _, m := range placeholder.FindAllStringSubmatch(string(t), -1) {
		fields = append(fields, m[1])
	}
	return fields
}

// Render substitutes placeholders. It fails when a referenced value is missing or empty.
func (t KeyTemplate) Render(lookup func(field string) (string, bool)) (string, bool) {
	ok := true
	out := placeholder.ReplaceAllStringFunc(string(t), func(m string) string {
		v, found := lookup(m[1 : len(m)-1])
		if !found || v == "" {
			ok = false
		}
		return v
	})
	return out, ok
}

// checkKeyValue rejects values that cannot be stored in a key attribute
func checkKeyValue(field, v string) error {
	if strings.ContainsRune(v, '\x00') {
		return models.NewValidationError(field, "must not contain NUL characters")
	}
	return nil
}

// IndexDefinition binds a physical key pair to key templates
type IndexDefinition struct {
	Name              string      `yaml:"name"`
	Access            IndexAccess `yaml:"access"`
	PartitionKey      string      `yaml:"partitionKey"`
	SortKey           string      `yaml:"sortKey"`
	PartitionTemplate KeyTemplate `yaml:"partitionTemplate"`
	SortTemplate      KeyTemplate `yaml:"sortTemplate"`
	ExcludeStatuses   []string    `yaml:"excludeStatuses"`
}

func (d *IndexDefinition) excludes(status string) bool {
	for _, s := range d.ExcludeStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Schema describes one entity type stored in the table
type Schema struct {
	Type             string               `yaml:"type"`
	Resource         string               `yaml:"resource"`
	IDField          string               `yaml:"idField"`
	NameField        string               `yaml:"nameField"`
	StatusField      string               `yaml:"statusField"`
	RoleField        string               `yaml:"roleField"`
	DateField        string               `yaml:"dateField"`
	ActivityLogField string               `yaml:"activityLogField"`
	DefaultStatus    string               `yaml:"defaultStatus"`
	DeletedStatus    string               `yaml:"deletedStatus"`
	ActivityLogLimit int                  `yaml:"activityLogLimit"`
	Fields           map[string]FieldType `yaml:"fields"`
	TextFields       []string             `yaml:"textFields"`
	EnumFields       map[string][]string  `yaml:"enumFields"`
	PrimaryKey       IndexDefinition      `yaml:"primaryKey"`
	Indexes          []IndexDefinition    `yaml:"indexes"`
}

type schemaFile struct {
	Entities []*Schema `yaml:"entities"`
}

//go:embed schemas.yaml
var embeddedSchemas []byte

// LoadSchemas parses and validates the embedded entity descriptors
func LoadSchemas() (map[string]*Schema, error) {
	return ParseSchemas(embeddedSchemas)
}

// ParseSchemas parses and validates YAML entity descriptors, keyed by type
func ParseSchemas(data []byte) (map[string]*Schema, error) {
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse entity schemas: %w", err)
	}

	schemas := make(map[string]*Schema, len(file.Entities))
	for _, s := range file.Entities {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("entity %s: %w", s.Type, err)
		}
		if _, dup := schemas[s.Type]; dup {
			return nil, fmt.Errorf("entity %s declared twice", s.Type)
		}
		schemas[s.Type] = s
	}
	return schemas, nil
}

func (s *Schema) validate() error {
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}
	if strings.ContainsAny(s.Type, "#{}") {
		return fmt.Errorf("type may not contain key delimiters")
	}
	for _, f := range []string{s.IDField, s.NameField, s.StatusField} {
		if f == "" {
			return fmt.Errorf("id, name and status fields are required")
		}
		if _, ok := s.Fields[f]; !ok {
			return fmt.Errorf("field %q is not declared", f)
		}
	}
	for _, f := range []string{s.RoleField, s.DateField, s.ActivityLogField} {
		if f == "" {
			continue
		}
		if _, ok := s.Fields[f]; !ok {
			return fmt.Errorf("field %q is not declared", f)
		}
	}
	for _, f := range s.TextFields {
		if s.Fields[f] != FieldString {
			return fmt.Errorf("text field %q must be a declared string", f)
		}
	}
	if s.DeletedStatus == "" {
		return fmt.Errorf("deletedStatus is required")
	}
	if !s.isEnumValue(s.StatusField, s.DeletedStatus) || !s.isEnumValue(s.StatusField, s.DefaultStatus) {
		return fmt.Errorf("default and deleted statuses must be allowed status values")
	}

	s.PrimaryKey.Access = AccessPrimary
	defs := append([]IndexDefinition{s.PrimaryKey}, s.Indexes...)
	for _, d := range defs {
		if d.PartitionKey == "" || d.PartitionTemplate == "" {
			return fmt.Errorf("index %q needs a partition key and template", d.Name)
		}
		if (d.SortKey == "") != (d.SortTemplate == "") {
			return fmt.Errorf("index %q sort key and template must be set together", d.Name)
		}
		for _, f := range append(d.PartitionTemplate.Fields(), d.SortTemplate.Fields()...) {
			if _, ok := s.Fields[f]; !ok {
				return fmt.Errorf("index %q references undeclared field %q", d.Name, f)
			}
		}
		switch d.Access {
		case AccessPrimary, AccessAll, AccessStatus, AccessName, AccessDate:
		case AccessRoleStatus:
			if s.RoleField == "" {
				return fmt.Errorf("index %q needs a role field", d.Name)
			}
		default:
			return fmt.Errorf("index %q has unknown access %q", d.Name, d.Access)
		}
	}
	if s.index(AccessAll) == nil {
		return fmt.Errorf("a catch-all index is required")
	}
	return nil
}

// index returns the first index serving access, or nil
func (s *Schema) index(access IndexAccess) *IndexDefinition {
	for i := range s.Indexes {
		if s.Indexes[i].Access == access {
			return &s.Indexes[i]
		}
	}
	return nil
}

func (s *Schema) indexByName(name string) *IndexDefinition {
	if name == "" {
		return &s.PrimaryKey
	}
	for i := range s.Indexes {
		if s.Indexes[i].Name == name {
			return &s.Indexes[i]
		}
	}
	return nil
}

func (s *Schema) isEnumValue(field, value string) bool {
	for _, v := range s.EnumFields[field] {
		if v == value {
			return true
		}
	}
	return false
}

// CheckEnums rejects values of enumerated fields that are not allowed.
// Absent and empty values are accepted.
func (s *Schema) CheckEnums(values map[string]interface{}) error {
	for field := range s.EnumFields {
		raw, ok := values[field]
		if !ok || raw == nil {
			continue
		}
		value, isString := raw.(string)
		if !isString {
			return models.NewValidationError(field, "must be a string")
		}
		if value != "" && !s.isEnumValue(field, value) {
			return models.NewValidationError(field, fmt.Sprintf("invalid value %q, allowed: %s", value, strings.Join(s.EnumFields[field], ", ")))
		}
	}
	return nil
}

func (s *Schema) isTextField(field string) bool {
	for _, f := range s.TextFields {
		if f == field {
			return true
		}
	}
	return false
}

// keyAttributes lists the table key attributes plus those of the given index
func (s *Schema) keyAttributes(def *IndexDefinition) []string {
	attrs := []string{s.PrimaryKey.PartitionKey}
	if s.PrimaryKey.SortKey != "" {
		attrs = append(attrs, s.PrimaryKey.SortKey)
	}
	if def != nil && def.Access != AccessPrimary {
		attrs = append(attrs, def.PartitionKey)
		if def.SortKey != "" {
			attrs = append(attrs, def.SortKey)
		}
	}
	return attrs
}

// derivedAttributes lists every computed key attribute of the schema
func (s *Schema) derivedAttributes() []string {
	attrs := s.keyAttributes(nil)
	for _, d := range s.Indexes {
		attrs = append(attrs, d.PartitionKey)
		if d.SortKey != "" {
			attrs = append(attrs, d.SortKey)
		}
	}
	return attrs
}

// primaryKey builds the table key of the entity with the given id
func (s *Schema) primaryKey(id string) (dal.Item, error) {
	if err := checkKeyValue(s.IDField, id); err != nil {
		return nil, err
	}
	lookup := func(field string) (string, bool) {
		if field == s.IDField {
			return id, true
		}
		return "", false
	}
	pk, ok := s.PrimaryKey.PartitionTemplate.Render(lookup)
	if !ok {
		return nil, fmt.Errorf("cannot render partition key of %s", s.Type)
	}
	key := dal.Item{s.PrimaryKey.PartitionKey: dal.S(pk)}
	if s.PrimaryKey.SortKey != "" {
		sk, ok := s.PrimaryKey.SortTemplate.Render(lookup)
		if !ok {
			return nil, fmt.Errorf("cannot render sort key of %s", s.Type)
		}
		key[s.PrimaryKey.SortKey] = dal.S(sk)
	}
	return key, nil
}
