package frame

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func namedDataset(t *testing.T, names ...string) *Dataset {
	t.Helper()
	cols := make([]*Column, len(names))
	for i, n := range names {
		cols[i] = NewColumn(n, TypeString)
	}
	ds, err := New("t", cols...)
	require.NoError(t, err)
	return ds
}

func TestSelectors(t *testing.T) {
	ds := namedDataset(t, "URN", "NAME", "TOTPUPS", "PTFSM", "READ_DESCR", "MATPROG")

	tests := []struct {
		name    string
		sel     Selector
		want    []string
		wantErr bool
	}{
		{name: "names", sel: Names("PTFSM", "URN"), want: []string{"URN", "PTFSM"}},
		{name: "names missing", sel: Names("NOPE"), wantErr: true},
		{name: "between", sel: Between("NAME", "PTFSM"), want: []string{"NAME", "TOTPUPS", "PTFSM"}},
		{name: "between reversed", sel: Between("PTFSM", "NAME"), wantErr: true},
		{name: "from", sel: From("READ_DESCR"), want: []string{"READ_DESCR", "MATPROG"}},
		{name: "from missing anchor", sel: From("TPUPYEAR"), wantErr: true},
		{name: "except ignores absent names", sel: Except("URN", "NAME", "GONE"), want: []string{"TOTPUPS", "PTFSM", "READ_DESCR", "MATPROG"}},
		{
			name: "minus matching",
			sel: Minus(From("TOTPUPS"), Matching(func(c *Column) bool {
				return strings.HasSuffix(c.Name, "_DESCR")
			})),
			want: []string{"TOTPUPS", "PTFSM", "MATPROG"},
		},
		{name: "union keeps dataset order", sel: Union(Names("MATPROG"), Between("URN", "NAME")), want: []string{"URN", "NAME", "MATPROG"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sel.Select(ds)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExcept_Absent(t *testing.T) {
	ds := namedDataset(t, "URN", "School name", "Grant Funding")

	sel := Except("URN", "School Name", "LA")
	var _ Lenient = sel

	names, err := sel.Select(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"School name", "Grant Funding"}, names)
	assert.Equal(t, []string{"School Name", "LA"}, sel.Absent(ds))
}
