package rollup

import (
	"testing"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/JonMunkholm/tessa/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRollups_KeepsEntityRowsInOrder(t *testing.T) {
	codes := []int64{1, 2, 3, 4, 5, 1}
	rectype := make([]frame.Value, len(codes))
	pos := make([]frame.Value, len(codes))
	for i, c := range codes {
		rectype[i] = frame.Int(c)
		pos[i] = frame.Int(int64(i))
	}
	ds, err := frame.New("ks2",
		frame.NewColumn(RecTypeColumn, frame.TypeInt, rectype...),
		frame.NewColumn("POS", frame.TypeInt, pos...),
	)
	require.NoError(t, err)

	out, err := FilterRollups(ds)
	require.NoError(t, err)

	require.Equal(t, 3, out.NumRows())
	p, _ := out.Column("POS")
	assert.Equal(t, []frame.Value{frame.Int(0), frame.Int(1), frame.Int(5)}, p.Values)
	assert.Equal(t, 6, ds.NumRows(), "input must not be modified")
}

func TestFilter_TextCodesAndNulls(t *testing.T) {
	ds, err := frame.New("ks2", frame.NewColumn(RecTypeColumn, frame.TypeString,
		frame.String("1"), frame.String("4"), frame.Null(), frame.String("x"), frame.String(" 3 ")))
	require.NoError(t, err)

	out, err := Filter(ds, RecTypeColumn, RollupCodes...)
	require.NoError(t, err)

	col, _ := out.Column(RecTypeColumn)
	assert.Equal(t, []frame.Value{frame.String("1"), frame.Null(), frame.String("x")}, col.Values)
}

func TestFilter_MissingColumn(t *testing.T) {
	ds, err := frame.New("ks2", frame.NewColumn("URN", frame.TypeInt, frame.Int(1)))
	require.NoError(t, err)

	_, err = FilterRollups(ds)
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

func TestFilterThenNormalize(t *testing.T) {
	ds, err := frame.New("ks2",
		frame.NewColumn(RecTypeColumn, frame.TypeInt, frame.Int(1), frame.Int(1), frame.Int(2), frame.Int(4)),
		frame.NewColumn("P_RATE", frame.TypeString,
			frame.String("10%"), frame.String("—"), frame.String("5%"), frame.String("SUPP")),
	)
	require.NoError(t, err)

	out, err := FilterRollups(ds)
	require.NoError(t, err)
	_, err = normalize.Column(out, "P_RATE")
	require.NoError(t, err)

	require.Equal(t, 3, out.NumRows())
	rate, _ := out.Column("P_RATE")
	f0, ok := rate.Values[0].Float64()
	require.True(t, ok)
	assert.InDelta(t, 0.10, f0, 1e-12)
	assert.True(t, rate.Values[1].IsNull())
	f2, ok := rate.Values[2].Float64()
	require.True(t, ok)
	assert.InDelta(t, 0.05, f2, 1e-12)
}
