package view

type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeEmail   FieldType = "email"
	FieldTypePhone   FieldType = "phone"
	FieldTypeNumber  FieldType = "number"
	FieldTypeInteger FieldType = "integer"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeEnum    FieldType = "enum"
	FieldTypeUrl     FieldType = "url"
)

type EntityFieldDescriptor struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	DbColumn    string    `json:"dbColumn"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Importable  bool      `json:"importable"`
	EnumValues  []string  `json:"enumValues,omitempty"`
}

// Relation is a foreign key column in another live table which references records of a type.
type Relation struct {
	Table  string
	Column string
}

type ComparisonKind string

const (
	CompareEmail  ComparisonKind = "email"
	ComparePhone  ComparisonKind = "phone"
	CompareName   ComparisonKind = "name"
	CompareText   ComparisonKind = "text"
	CompareUrl    ComparisonKind = "url"
	CompareDomain ComparisonKind = "domain"
)

type DuplicateField struct {
	Field  string
	Kind   ComparisonKind
	Weight float64
}

type EntitySchema struct {
	Name               string
	DisplayName        string
	Table              string
	UniqueField        string
	Importable         bool
	Exportable         bool
	Fields             []EntityFieldDescriptor
	Relations          []Relation
	DuplicateFields    []DuplicateField
	GdprSubjectColumns []string
	PiiColumns         []string
}

func (s EntitySchema) FieldByName(name string) *EntityFieldDescriptor {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// FieldByNameOrColumn resolves keys coming from bulk update payloads and merge overrides.
func (s EntitySchema) FieldByNameOrColumn(key string) *EntityFieldDescriptor {
	for i := range s.Fields {
		if s.Fields[i].Name == key || s.Fields[i].DbColumn == key {
			return &s.Fields[i]
		}
	}
	return nil
}

func (s EntitySchema) ImportableFields() []EntityFieldDescriptor {
	result := make([]EntityFieldDescriptor, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Importable {
			result = append(result, f)
		}
	}
	return result
}

type EntityTypeInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type EntityTypeDetails struct {
	Name        string                  `json:"name"`
	DisplayName string                  `json:"displayName"`
	Fields      []EntityFieldDescriptor `json:"fields"`
}

type EntityTypes struct {
	Entities []EntityTypeDetails `json:"entities"`
}
