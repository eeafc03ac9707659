package service

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type FieldMapper interface {
	AutoMap(headers []string, fields []view.EntityFieldDescriptor) view.FieldMapping
	ApplyOverrides(mapping view.FieldMapping, overrides view.FieldMapping) view.FieldMapping
	ValidateMapping(mapping view.FieldMapping, schema *view.EntitySchema) error
}

func NewFieldMapper() FieldMapper {
	return &fieldMapperImpl{}
}

type fieldMapperImpl struct {
}

// AutoMap matches every header against importable fields by name or display name, ignoring case.
// The first field in descriptor order wins; headers without a match map to "".
func (m fieldMapperImpl) AutoMap(headers []string, fields []view.EntityFieldDescriptor) view.FieldMapping {
	mapping := make(view.FieldMapping, len(headers))
	for _, header := range headers {
		mapping[header] = ""
		key := strings.TrimSpace(header)
		for _, field := range fields {
			if !field.Importable {
				continue
			}
			if strings.EqualFold(key, field.Name) || strings.EqualFold(key, field.DisplayName) {
				mapping[header] = field.Name
				break
			}
		}
	}
	return mapping
}

func (m fieldMapperImpl) ApplyOverrides(mapping view.FieldMapping, overrides view.FieldMapping) view.FieldMapping {
	result := make(view.FieldMapping, len(mapping)+len(overrides))
	for header, field := range mapping {
		result[header] = field
	}
	for header, field := range overrides {
		result[header] = field
	}
	return result
}

func (m fieldMapperImpl) ValidateMapping(mapping view.FieldMapping, schema *view.EntitySchema) error {
	headers := make([]string, 0, len(mapping))
	for header := range mapping {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	usedBy := map[string]string{}
	for _, header := range headers {
		fieldName := mapping[header]
		if fieldName == "" {
			continue
		}
		field := schema.FieldByName(fieldName)
		if field == nil {
			return malformedMapping(fmt.Sprintf("column '%s' is mapped to unknown field '%s'", header, fieldName))
		}
		if !field.Importable {
			// exported read-only columns come back under their own name and are dropped
			if strings.EqualFold(strings.TrimSpace(header), field.Name) {
				continue
			}
			return malformedMapping(fmt.Sprintf("column '%s' is mapped to field '%s' which can not be imported", header, fieldName))
		}
		if other, exists := usedBy[fieldName]; exists {
			return malformedMapping(fmt.Sprintf("columns '%s' and '%s' are both mapped to field '%s'", other, header, fieldName))
		}
		usedBy[fieldName] = header
	}
	return nil
}

func malformedMapping(reason string) error {
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.MalformedFieldMapping,
		Message: exception.MalformedFieldMappingMsg,
		Params:  map[string]interface{}{"reason": reason},
	}
}
