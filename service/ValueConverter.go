package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/go-playground/validator/v10"
)

const isoDateLayout = "2006-01-02"

// two digit years above currentYear+pivot belong to the previous century
const twoDigitYearPivot = 10

var (
	numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

	isoDateLayouts = []string{
		isoDateLayout,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "01-02-06",
	}

	valueValidator = validator.New()
)

// ConvertValue coerces a raw cell into the storage representation of a field.
// Empty input yields a nil value. A non-empty warning means the value was accepted after coercion.
func ConvertValue(field view.EntityFieldDescriptor, raw string) (interface{}, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, "", nil
	}
	switch field.Type {
	case view.FieldTypeNumber:
		return convertNumber(s)
	case view.FieldTypeInteger:
		return convertInteger(s)
	case view.FieldTypeBoolean:
		return convertBool(s)
	case view.FieldTypeDate:
		return convertDate(s)
	case view.FieldTypeEmail:
		return convertEmail(s)
	case view.FieldTypePhone:
		return convertPhone(s)
	case view.FieldTypeUrl:
		return convertUrl(s)
	case view.FieldTypeEnum:
		return convertEnum(s, field.EnumValues)
	default:
		return s, "", nil
	}
}

// ConvertAny coerces a JSON payload value (bulk update, merge override) the same way as a file cell.
func ConvertAny(field view.EntityFieldDescriptor, value interface{}) (interface{}, error) {
	if value == nil {
		if field.Required {
			return nil, fmt.Errorf("value is required")
		}
		return nil, nil
	}
	converted, _, err := ConvertValue(field, FormatValue(value))
	if err != nil {
		return nil, err
	}
	if converted == nil && field.Required {
		return nil, fmt.Errorf("value is required")
	}
	return converted, nil
}

// FormatValue renders a stored value as a flat cell.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func cleanNumber(s string) (string, bool) {
	cleaned := s
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}
	for _, symbol := range []string{"$", "€", "£", ",", " "} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	if negative {
		cleaned = "-" + cleaned
	}
	return cleaned, cleaned != s
}

func convertNumber(s string) (interface{}, string, error) {
	cleaned, coerced := cleanNumber(s)
	if !numericRegex.MatchString(cleaned) {
		return nil, "", fmt.Errorf("'%s' is not a number", s)
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(n, 0) {
		return nil, "", fmt.Errorf("'%s' is not a number", s)
	}
	if coerced {
		return n, fmt.Sprintf("'%s' coerced to %s", s, FormatValue(n)), nil
	}
	return n, "", nil
}

func convertInteger(s string) (interface{}, string, error) {
	cleaned, coerced := cleanNumber(s)
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return nil, "", fmt.Errorf("'%s' is out of integer range", s)
	}
	if err != nil {
		f, ferr := strconv.ParseFloat(cleaned, 64)
		if ferr != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, "", fmt.Errorf("'%s' is not an integer", s)
		}
		n = int64(f)
		coerced = true
	}
	if coerced {
		return n, fmt.Sprintf("'%s' coerced to %d", s, n), nil
	}
	return n, "", nil
}

func convertBool(s string) (interface{}, string, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, "", nil
	case "false":
		return false, "", nil
	case "t", "yes", "y", "1":
		return true, fmt.Sprintf("'%s' coerced to true", s), nil
	case "f", "no", "n", "0":
		return false, fmt.Sprintf("'%s' coerced to false", s), nil
	}
	return nil, "", fmt.Errorf("'%s' is not a boolean", s)
}

func convertDate(s string) (interface{}, string, error) {
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDateLayout), "", nil
		}
	}
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDateLayout), fmt.Sprintf("'%s' interpreted as %s", s, t.Format(isoDateLayout)), nil
		}
	}
	pivotYear := time.Now().Year() + twoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.Format(isoDateLayout), fmt.Sprintf("'%s' interpreted as %s", s, t.Format(isoDateLayout)), nil
		}
	}
	return nil, "", fmt.Errorf("'%s' is not a date", s)
}

func convertEmail(s string) (interface{}, string, error) {
	if err := valueValidator.Var(s, "email"); err != nil {
		return nil, "", fmt.Errorf("'%s' is not a valid email", s)
	}
	lower := strings.ToLower(s)
	if lower != s {
		return lower, fmt.Sprintf("'%s' coerced to lower case", s), nil
	}
	return s, "", nil
}

func convertPhone(s string) (interface{}, string, error) {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("+-(). /x", r):
		default:
			return nil, "", fmt.Errorf("'%s' is not a phone number", s)
		}
	}
	if digits < 7 || digits > 15 {
		return nil, "", fmt.Errorf("'%s' is not a phone number", s)
	}
	return s, "", nil
}

func convertUrl(s string) (interface{}, string, error) {
	if err := valueValidator.Var(s, "url"); err == nil {
		return s, "", nil
	}
	withScheme := "https://" + s
	if err := valueValidator.Var(withScheme, "url"); err == nil && strings.Contains(s, ".") {
		return withScheme, fmt.Sprintf("'%s' coerced to %s", s, withScheme), nil
	}
	return nil, "", fmt.Errorf("'%s' is not a valid url", s)
}

func convertEnum(s string, allowed []string) (interface{}, string, error) {
	for _, v := range allowed {
		if v == s {
			return v, "", nil
		}
	}
	for _, v := range allowed {
		if strings.EqualFold(v, s) {
			return v, fmt.Sprintf("'%s' coerced to '%s'", s, v), nil
		}
	}
	return nil, "", fmt.Errorf("'%s' is not one of: %s", s, strings.Join(allowed, ", "))
}
