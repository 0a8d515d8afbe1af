package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(vs ...int64) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Int(v)
	}
	return out
}

func TestNew_RejectsRaggedColumns(t *testing.T) {
	_, err := New("t",
		NewColumn("a", TypeInt, ints(1, 2)...),
		NewColumn("b", TypeInt, ints(1)...),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "b" has 1 rows, want 2`)
}

func TestDropDuplicateColumns_KeepsLeftmost(t *testing.T) {
	ds, err := New("t",
		NewColumn("x", TypeInt, ints(1, 2)...),
		NewColumn("y", TypeInt, ints(3, 4)...),
		NewColumn("x", TypeInt, ints(5, 6)...),
		NewColumn("x", TypeInt, ints(7, 8)...),
	)
	require.NoError(t, err)

	removed := ds.DropDuplicateColumns()

	assert.Equal(t, []string{"x", "x"}, removed)
	assert.Equal(t, []string{"x", "y"}, ds.Names())
	x, ok := ds.Column("x")
	require.True(t, ok)
	assert.Equal(t, ints(1, 2), x.Values)
}

func TestDrop(t *testing.T) {
	ds, err := New("t",
		NewColumn("a", TypeInt, ints(1)...),
		NewColumn("b", TypeInt, ints(2)...),
		NewColumn("c", TypeInt, ints(3)...),
	)
	require.NoError(t, err)

	require.NoError(t, ds.Drop("b"))
	assert.Equal(t, []string{"a", "c"}, ds.Names())

	err = ds.Drop("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
	assert.Equal(t, []string{"a", "c"}, ds.Names())
}

func TestRename_AllOccurrences(t *testing.T) {
	ds, err := New("t",
		NewColumn("a", TypeInt, ints(1)...),
		NewColumn("a", TypeInt, ints(2)...),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Rename("a", "b"))
	assert.Equal(t, []string{"b", "b"}, ds.Names())
	assert.Equal(t, "a", ds.Columns[0].Header)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	ds, err := New("t", NewColumn("a", TypeInt, ints(10, 20, 30)...))
	require.NoError(t, err)

	out := ds.Filter(func(row int) bool { return row != 1 })
	out.Columns[0].Values[0] = Int(99)
	out.Columns[0].Name = "renamed"

	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, ints(10, 20, 30), ds.Columns[0].Values)
	assert.Equal(t, "a", ds.Columns[0].Name)
}

func TestValue_Accessors(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		text    string
		null    bool
		numeric bool
	}{
		{name: "null", v: Null(), text: "", null: true},
		{name: "nan is null", v: Float(nan()), text: "", null: true},
		{name: "string", v: String("SUPP"), text: "SUPP"},
		{name: "int", v: Int(42), text: "42", numeric: true},
		{name: "float", v: Float(3.14), text: "3.14", numeric: true},
		{name: "bytes", v: Bytes([]byte("Y")), text: "Y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.v.Text())
			assert.Equal(t, tt.null, tt.v.IsNull())
			assert.Equal(t, tt.numeric, tt.v.IsNumeric())
		})
	}
}

func TestValue_Int64AcceptsIntegralFloat(t *testing.T) {
	i, ok := Float(7).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	_, ok = Float(7.5).Int64()
	assert.False(t, ok)
}
