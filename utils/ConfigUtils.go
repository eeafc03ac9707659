package utils

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
)

const maskedValue = "*****"

// PrintConfig logs every top-level section of the config as one entry with masked secrets.
func PrintConfig(config interface{}) {
	sections := make(map[string][]string)
	for _, line := range ConfigLines(config) {
		section := line
		if i := strings.IndexByte(line, '.'); i > 0 {
			section = line[:i]
		}
		sections[section] = append(sections[section], line)
	}
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Infof("Config %s: %s", name, strings.Join(sections[name], ", "))
	}
}

// ConfigLines flattens a config struct into key=value lines; fields tagged `sensitive` are masked when set.
func ConfigLines(config interface{}) []string {
	lines := make([]string, 0)
	collectLines("", reflect.ValueOf(config), &lines)
	return lines
}

func collectLines(prefix string, v reflect.Value, lines *[]string) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key := lowerFirstRune(field.Name)
		if prefix != "" {
			key = prefix + "." + key
		}
		value := v.Field(i)
		if value.Kind() == reflect.Ptr {
			if value.IsNil() {
				*lines = append(*lines, key+"=<nil>")
				continue
			}
			value = value.Elem()
		}
		if value.Kind() == reflect.Struct {
			collectLines(key, value, lines)
			continue
		}
		_, sensitive := field.Tag.Lookup("sensitive")
		*lines = append(*lines, key+"="+formatConfigValue(value, sensitive))
	}
}

func formatConfigValue(value reflect.Value, sensitive bool) string {
	if sensitive {
		if value.IsZero() || (value.Kind() == reflect.String && value.Len() == 0) {
			return ""
		}
		return maskedValue
	}
	if !value.CanInterface() {
		return ""
	}
	return fmt.Sprintf("%v", value.Interface())
}

func lowerFirstRune(s string) string {
	runes := []rune(s)
	if len(runes) > 0 {
		runes[0] = unicode.ToLower(runes[0])
	}
	return string(runes)
}
