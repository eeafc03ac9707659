package service

import (
	"fmt"
	"strings"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

// ValidatedRow is a mapped row with values keyed by database column.
// Values holds only the fields that converted cleanly.
type ValidatedRow struct {
	RowNum   int
	Values   view.Record
	Errors   []view.ValidationIssue
	Warnings []view.ValidationIssue
}

func (r ValidatedRow) Valid() bool {
	return len(r.Errors) == 0
}

type ImportValidator interface {
	Validate(entityType string, rows []view.ParsedRow, mapping view.FieldMapping) (*view.ValidationResult, error)
	ValidateRows(schema *view.EntitySchema, rows []view.ParsedRow, mapping view.FieldMapping) ([]ValidatedRow, error)
}

func NewImportValidator(registry EntitySchemaRegistry, fieldMapper FieldMapper, maxIssuesReturned int) ImportValidator {
	return &importValidatorImpl{
		registry:          registry,
		fieldMapper:       fieldMapper,
		maxIssuesReturned: maxIssuesReturned,
	}
}

type importValidatorImpl struct {
	registry          EntitySchemaRegistry
	fieldMapper       FieldMapper
	maxIssuesReturned int
}

func (v importValidatorImpl) Validate(entityType string, rows []view.ParsedRow, mapping view.FieldMapping) (*view.ValidationResult, error) {
	schema, err := v.registry.GetSchema(entityType)
	if err != nil {
		return nil, err
	}
	validated, err := v.ValidateRows(schema, rows, mapping)
	if err != nil {
		return nil, err
	}
	result := &view.ValidationResult{
		TotalRows: len(validated),
		Errors:    make([]view.ValidationIssue, 0),
		Warnings:  make([]view.ValidationIssue, 0),
	}
	for _, row := range validated {
		if row.Valid() {
			result.ValidRows++
		}
		result.Errors = appendCapped(result.Errors, row.Errors, v.maxIssuesReturned)
		result.Warnings = appendCapped(result.Warnings, row.Warnings, v.maxIssuesReturned)
	}
	result.ErrorRows = result.TotalRows - result.ValidRows
	return result, nil
}

func (v importValidatorImpl) ValidateRows(schema *view.EntitySchema, rows []view.ParsedRow, mapping view.FieldMapping) ([]ValidatedRow, error) {
	if err := v.fieldMapper.ValidateMapping(mapping, schema); err != nil {
		return nil, err
	}
	headerByField := make(map[string]string, len(mapping))
	for header, fieldName := range mapping {
		if fieldName != "" {
			headerByField[fieldName] = header
		}
	}
	fields := schema.ImportableFields()

	result := make([]ValidatedRow, 0, len(rows))
	for i, row := range rows {
		validated := ValidatedRow{RowNum: i + 1, Values: view.Record{}}
		for _, field := range fields {
			header, mapped := headerByField[field.Name]
			if !mapped {
				if field.Required {
					validated.Errors = append(validated.Errors, issue(validated.RowNum, field.Name, "required field is not mapped"))
				}
				continue
			}
			raw := row[header]
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				if field.Required {
					validated.Errors = append(validated.Errors, issue(validated.RowNum, field.Name, "required field is empty"))
				}
				continue
			}
			if trimmed != raw {
				validated.Warnings = append(validated.Warnings, issue(validated.RowNum, field.Name, "leading or trailing whitespace trimmed"))
			}
			value, warning, err := ConvertValue(field, trimmed)
			if err != nil {
				validated.Errors = append(validated.Errors, issue(validated.RowNum, field.Name, err.Error()))
				continue
			}
			if warning != "" {
				validated.Warnings = append(validated.Warnings, issue(validated.RowNum, field.Name, warning))
			}
			validated.Values[field.DbColumn] = value
		}
		result = append(result, validated)
	}
	return result, nil
}

func issue(row int, field string, message string) view.ValidationIssue {
	return view.ValidationIssue{Row: row, Field: field, Message: message}
}

func appendCapped(dst []view.ValidationIssue, src []view.ValidationIssue, limit int) []view.ValidationIssue {
	for _, item := range src {
		if limit > 0 && len(dst) >= limit {
			return dst
		}
		dst = append(dst, item)
	}
	return dst
}

func issuesToString(issues []view.ValidationIssue) string {
	parts := make([]string, 0, len(issues))
	for _, i := range issues {
		parts = append(parts, fmt.Sprintf("%s: %s", i.Field, i.Message))
	}
	return strings.Join(parts, "; ")
}
