package reconcile

import (
	"testing"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataset(t *testing.T, cols ...*frame.Column) *frame.Dataset {
	t.Helper()
	ds, err := frame.New("t", cols...)
	require.NoError(t, err)
	return ds
}

func col(name string, vs ...int64) *frame.Column {
	values := make([]frame.Value, len(vs))
	for i, v := range vs {
		values[i] = frame.Int(v)
	}
	return frame.NewColumn(name, frame.TypeInt, values...)
}

func TestSplitHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
		rule   SplitRule
		match  bool
		want   string
	}{
		{name: "code prefix", header: "I01 Income from government", rule: CodePrefix, match: true, want: "Income from government"},
		{name: "code prefix with letter", header: "CI04a Other grants", rule: CodePrefix, match: true, want: "Other grants"},
		{name: "plain header", header: "Teaching Staff", rule: CodePrefix, match: false, want: "Teaching Staff"},
		{name: "code only", header: "URN", rule: CodePrefix, match: false, want: "URN"},
		{name: "calc suffix", header: "Teaching Staff: total cost", rule: CalcSuffix, match: true, want: "Teaching Staff"},
		{name: "no suffix", header: "Supply Staff", rule: CalcSuffix, match: false, want: "Supply Staff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.rule.Match(tt.header))
			if tt.match {
				assert.Equal(t, tt.want, tt.rule.Rewrite(tt.header))
			}
		})
	}
}

func TestApply_FinanceHeaders(t *testing.T) {
	ds := dataset(t,
		col("URN", 1),
		frame.NewColumn("Did Not Supply flag", frame.TypeInt, frame.Int(0)),
		col("I01 Income from government", 10),
		col("E01 Teaching Staff", 20),
		col("Supply Staff: per pupil", 30),
		col("Teaching Staff  E01", 40),
	)

	plan := Plan{
		Force:   []string{"Did Not Supply flag"},
		Splits:  []SplitRule{CodePrefix, CalcSuffix},
		Aliases: []Alias{{From: "Teaching Staff  E01", To: "Teaching Staff"}},
		Kinds: []KindRule{{
			Select: frame.Except("URN", "Did Not Supply flag"),
			Policy: func(string) frame.Kind { return frame.KindNumeric },
		}},
	}

	rep, err := plan.Apply(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"URN", "Did Not Supply flag", "Income from government", "Teaching Staff", "Supply Staff"}, ds.Names())
	assert.Equal(t, []string{"Teaching Staff"}, rep.Duplicates)

	teaching, _ := ds.Column("Teaching Staff")
	assert.Equal(t, []frame.Value{frame.Int(20)}, teaching.Values, "leftmost occurrence survives")
	assert.Equal(t, "E01 Teaching Staff", teaching.Header)

	flag, _ := ds.Column("Did Not Supply flag")
	assert.Equal(t, frame.KindForcedString, flag.Kind)
	assert.Equal(t, frame.TypeBytes, flag.Type)
	b, ok := flag.Values[0].BytesValue()
	require.True(t, ok)
	assert.Equal(t, "0", string(b))

	assert.Equal(t, 3, rep.Classified[frame.KindNumeric])
	assert.Empty(t, rep.Absent)
}

func TestApply_FirstMatchingSplitWins(t *testing.T) {
	ds := dataset(t,
		col("E02 Supply: agency", 1),
		col("Supply Staff: per pupil", 2),
	)

	plan := Plan{Splits: []SplitRule{CodePrefix, CalcSuffix}}
	rep, err := plan.Apply(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"Supply: agency", "Supply Staff"}, ds.Names())
	assert.Equal(t, "E02 Supply: agency", rep.Renamed["Supply: agency"])
}

func TestApply_ReportsAbsentIdentifiers(t *testing.T) {
	ds := dataset(t,
		frame.NewColumn("URN", frame.TypeInt, frame.Int(140001)),
		frame.NewColumn("School name", frame.TypeString, frame.String("Oak Academy")),
		col("Grant Funding", 12000),
	)

	plan := Plan{
		Kinds: []KindRule{{
			Select: frame.Except("URN", "School Name", "Trust or Company Name"),
			Policy: func(string) frame.Kind { return frame.KindNumeric },
		}},
	}

	rep, err := plan.Apply(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"School Name", "Trust or Company Name"}, rep.Absent)
	name, _ := ds.Column("School name")
	assert.Equal(t, frame.KindNumeric, name.Kind, "a renamed identifier falls into the measure scope")
}

func TestApply_DedupInvariant(t *testing.T) {
	ds := dataset(t,
		col("A 1", 1),
		col("B", 2),
		col("A 2", 3),
		col("A 3", 4),
		col("B", 5),
	)

	plan := Plan{Splits: []SplitRule{{
		Name:    "first word",
		Match:   func(string) bool { return true },
		Rewrite: func(h string) string { return h[:1] },
	}}}

	_, err := plan.Apply(ds)
	require.NoError(t, err)

	require.Equal(t, []string{"A", "B"}, ds.Names())
	a, _ := ds.Column("A")
	b, _ := ds.Column("B")
	assert.Equal(t, []frame.Value{frame.Int(1)}, a.Values)
	assert.Equal(t, []frame.Value{frame.Int(2)}, b.Values)
}

func TestApply_DropBeforeDedup(t *testing.T) {
	ds := dataset(t,
		col("Metafile heading", 1),
		col("Metafile description", 2),
		col("2019 field name", 3),
		col("new for 2023", 4),
		col("Field Name", 5),
	)

	plan := Plan{
		Aliases: []Alias{
			{From: "Metafile heading", To: "Field Name"},
			{From: "Metafile description", To: "Label/Description"},
		},
		Drop: []string{"2019 field name", "new for 2023"},
	}

	rep, err := plan.Apply(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"Field Name", "Label/Description"}, ds.Names())
	assert.Equal(t, []string{"2019 field name", "new for 2023"}, rep.Dropped)
	field, _ := ds.Column("Field Name")
	assert.Equal(t, []frame.Value{frame.Int(1)}, field.Values)
}

func TestApply_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want error
	}{
		{name: "missing alias source", plan: Plan{Aliases: []Alias{{From: "Teaching Staff  E01", To: "Teaching Staff"}}}, want: ErrRenameTarget},
		{name: "missing forced column", plan: Plan{Force: []string{"Did Not Supply flag"}}, want: frame.ErrColumnNotFound},
		{name: "missing drop column", plan: Plan{Drop: []string{"new for 2023"}}, want: frame.ErrColumnNotFound},
		{
			name: "missing kind anchor",
			plan: Plan{Kinds: []KindRule{{Select: frame.From("TOTPUPS"), Policy: func(string) frame.Kind { return frame.KindNumeric }}}},
			want: frame.ErrColumnNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := dataset(t, col("URN", 1))
			_, err := tt.plan.Apply(ds)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApply_KindsSkipForcedString(t *testing.T) {
	ds := dataset(t, col("PFLAG", 1), col("PTFSM", 2))

	plan := Plan{
		Force: []string{"PFLAG"},
		Kinds: []KindRule{{
			Select: frame.From("PFLAG"),
			Policy: func(string) frame.Kind { return frame.KindPercent },
		}},
	}

	_, err := plan.Apply(ds)
	require.NoError(t, err)

	flag, _ := ds.Column("PFLAG")
	pct, _ := ds.Column("PTFSM")
	assert.Equal(t, frame.KindForcedString, flag.Kind)
	assert.Equal(t, frame.KindPercent, pct.Kind)
}
