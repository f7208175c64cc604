package excelreport

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
)

// PromoteMapField takes a slice of structs and the name of a
// map[string]interface{} field, and returns a new slice of dynamically built
// structs where every map key has become a top-level exported field. The
// second return value is the list of the new field names, sorted by their
// originating keys. Timeline exports use this to turn free-form item metadata
// into real spreadsheet columns.
func PromoteMapField(data interface{}, mapFieldName string) (interface{}, []string, error) {
	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Slice {
		return nil, nil, fmt.Errorf("data must be a slice")
	}
	if val.Len() == 0 {
		return data, nil, nil
	}

	elemType := val.Type().Elem()
	if elemType.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("slice element must be a struct")
	}

	// Collect every key across all items so the column set is the union.
	keysSet := make(map[string]bool)
	for i := 0; i < val.Len(); i++ {
		mapField := val.Index(i).FieldByName(mapFieldName)
		if !mapField.IsValid() {
			return nil, nil, fmt.Errorf("field %s not found in struct", mapFieldName)
		}
		if mapField.Kind() != reflect.Map {
			return nil, nil, fmt.Errorf("field %s is not a map", mapFieldName)
		}
		if mapField.IsNil() {
			continue
		}
		iter := mapField.MapRange()
		for iter.Next() {
			if iter.Key().Kind() == reflect.String {
				keysSet[iter.Key().String()] = true
			}
		}
	}

	sortedKeys := make([]string, 0, len(keysSet))
	for k := range keysSet {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	var newStructFields []reflect.StructField
	var newFieldNames []string
	fieldToKey := make(map[string]string)

	// Field names must stay unique or StructOf panics; keys that sanitize to
	// the same name, or to an existing struct field, get a numeric suffix.
	usedNames := make(map[string]bool)
	for i := 0; i < elemType.NumField(); i++ {
		if f := elemType.Field(i); f.Name != mapFieldName {
			usedNames[f.Name] = true
		}
	}

	// The promoted fields replace the map field in place so column order is
	// preserved around them.
	for i := 0; i < elemType.NumField(); i++ {
		f := elemType.Field(i)
		if f.Name != mapFieldName {
			newStructFields = append(newStructFields, f)
			continue
		}
		for _, key := range sortedKeys {
			name := exportableFieldName(key)
			for base, n := name, 2; usedNames[name]; n++ {
				name = fmt.Sprintf("%s_%d", base, n)
			}
			usedNames[name] = true
			newStructFields = append(newStructFields, reflect.StructField{
				Name: name,
				Type: reflect.TypeOf((*interface{})(nil)).Elem(),
			})
			newFieldNames = append(newFieldNames, name)
			fieldToKey[name] = key
		}
	}

	dynamicType := reflect.StructOf(newStructFields)
	out := reflect.MakeSlice(reflect.SliceOf(dynamicType), val.Len(), val.Len())

	for i := 0; i < val.Len(); i++ {
		src := val.Index(i)
		dst := out.Index(i)

		for j := 0; j < elemType.NumField(); j++ {
			f := elemType.Field(j)
			if f.Name == mapFieldName {
				continue
			}
			dstField := dst.FieldByName(f.Name)
			if dstField.CanSet() {
				dstField.Set(src.Field(j))
			}
		}

		mapField := src.FieldByName(mapFieldName)
		if mapField.IsNil() {
			continue
		}
		for _, name := range newFieldNames {
			mapVal := mapField.MapIndex(reflect.ValueOf(fieldToKey[name]))
			if mapVal.IsValid() {
				dst.FieldByName(name).Set(mapVal)
			}
		}
	}

	return out.Interface(), newFieldNames, nil
}

// ExpandColumns replaces the column addressing mapFieldName with one column
// per promoted field, inheriting the original column's width.
func ExpandColumns(cols []ColumnConfig, mapFieldName string, newFieldNames []string) []ColumnConfig {
	var out []ColumnConfig
	for _, col := range cols {
		if col.FieldName != mapFieldName {
			out = append(out, col)
			continue
		}
		for _, name := range newFieldNames {
			expanded := col
			expanded.FieldName = name
			expanded.Header = name
			out = append(out, expanded)
		}
	}
	return out
}

// exportableFieldName sanitizes a map key into a valid exported Go field
// name: invalid runes become underscores, the first letter is capitalized,
// and a name that would not start with a letter is prefixed so it stays
// exported.
func exportableFieldName(s string) string {
	if s == "" {
		return "Empty"
	}

	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	res := sb.String()

	runes := []rune(res)
	if !unicode.IsLetter(runes[0]) {
		runes = append([]rune{'F'}, runes...)
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
