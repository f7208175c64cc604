package excelreport

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceItem struct {
	Name  string
	Value int
	Meta  map[string]interface{}
}

func TestPromoteMapField(t *testing.T) {
	data := []sourceItem{
		{"A", 1, map[string]interface{}{"foo": "bar", "baz": 123}},
		{"B", 2, map[string]interface{}{"foo": "qux", "extra": true}},
		{"C", 3, nil},
	}

	result, newFields, err := PromoteMapField(data, "Meta")
	require.NoError(t, err)

	// Keys sorted: baz, extra, foo.
	assert.Equal(t, []string{"Baz", "Extra", "Foo"}, newFields)

	resVal := reflect.ValueOf(result)
	require.Equal(t, reflect.Slice, resVal.Kind())
	require.Equal(t, 3, resVal.Len())

	item0 := resVal.Index(0)
	assert.Equal(t, "A", item0.FieldByName("Name").String())
	assert.Equal(t, int64(1), item0.FieldByName("Value").Int())
	assert.Equal(t, "bar", item0.FieldByName("Foo").Interface())
	assert.Equal(t, 123, item0.FieldByName("Baz").Interface())
	assert.Nil(t, item0.FieldByName("Extra").Interface())

	item1 := resVal.Index(1)
	assert.Equal(t, "qux", item1.FieldByName("Foo").Interface())
	assert.Equal(t, true, item1.FieldByName("Extra").Interface())

	// A nil map leaves every promoted field empty.
	item2 := resVal.Index(2)
	assert.Nil(t, item2.FieldByName("Foo").Interface())
}

func TestPromoteMapField_EmptySlice(t *testing.T) {
	result, newFields, err := PromoteMapField([]sourceItem{}, "Meta")
	require.NoError(t, err)
	assert.Empty(t, newFields)
	assert.Equal(t, []sourceItem{}, result)
}

func TestPromoteMapField_Errors(t *testing.T) {
	_, _, err := PromoteMapField("not a slice", "Meta")
	assert.Error(t, err)

	_, _, err = PromoteMapField([]sourceItem{{Name: "A"}}, "Nope")
	assert.Error(t, err)
}

func TestExportableFieldName(t *testing.T) {
	data := []sourceItem{
		{"A", 1, map[string]interface{}{"123key": "val", "bad space": "val"}},
	}

	_, newFields, err := PromoteMapField(data, "Meta")
	require.NoError(t, err)
	// "123key" sorts before "bad space"; digit prefix and space get fixed up.
	assert.Equal(t, []string{"F123key", "Bad_space"}, newFields)
}

func TestPromoteMapField_CollidingAndHostileKeys(t *testing.T) {
	// "a b" and "a_b" both sanitize to A_b, "_" alone would be unexported,
	// and "Name" collides with a real struct field. None of these may panic.
	data := []sourceItem{
		{"A", 1, map[string]interface{}{
			"a b":  "first",
			"a_b":  "second",
			"_":    "underscore",
			"Name": "shadow",
		}},
	}

	result, newFields, err := PromoteMapField(data, "Meta")
	require.NoError(t, err)
	// Keys sorted: "Name", "_", "a b", "a_b".
	assert.Equal(t, []string{"Name_2", "F_", "A_b", "A_b_2"}, newFields)

	item0 := reflect.ValueOf(result).Index(0)
	assert.Equal(t, "A", item0.FieldByName("Name").String())
	assert.Equal(t, "shadow", item0.FieldByName("Name_2").Interface())
	assert.Equal(t, "underscore", item0.FieldByName("F_").Interface())
	assert.Equal(t, "first", item0.FieldByName("A_b").Interface())
	assert.Equal(t, "second", item0.FieldByName("A_b_2").Interface())
}

func TestExpandColumns(t *testing.T) {
	cols := []ColumnConfig{
		{FieldName: "Name", Header: "Name"},
		{FieldName: "Meta", Header: "Meta Data", Width: 20},
		{FieldName: "Value", Header: "Value"},
	}

	expanded := ExpandColumns(cols, "Meta", []string{"Foo", "Bar"})

	require.Len(t, expanded, 4)
	assert.Equal(t, "Name", expanded[0].FieldName)
	assert.Equal(t, "Foo", expanded[1].FieldName)
	assert.Equal(t, "Foo", expanded[1].Header)
	assert.Equal(t, float64(20), expanded[1].Width)
	assert.Equal(t, "Bar", expanded[2].FieldName)
	assert.Equal(t, "Value", expanded[3].FieldName)
}
