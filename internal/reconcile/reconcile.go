// Package reconcile aligns column names across source years and entity
// types so the same concept always lands in a column with the same name.
//
// A Plan runs once per dataset, straight after load, in a fixed order:
// force, splits, aliases, drop, dedup, kinds. Later stages see the names
// produced by earlier ones.
package reconcile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/tessa/internal/frame"
)

// ErrRenameTarget is returned when an alias names a column that was not loaded.
var ErrRenameTarget = errors.New("rename target missing")

// codePrefix matches a leading field code such as "I01", "E01" or "CI04a"
// followed by whitespace.
var codePrefix = regexp.MustCompile(`^[A-Z]{1,3}\d{1,3}[a-z]?\s+\S`)

// SplitRule rewrites headers that match it.
type SplitRule struct {
	Name    string
	Match   func(header string) bool
	Rewrite func(header string) string
}

// CodePrefix strips a leading field code: "I01 Income from government"
// becomes "Income from government".
var CodePrefix = SplitRule{
	Name:    "code-prefix",
	Match:   HasCodePrefix,
	Rewrite: SplitCodePrefix,
}

// CalcSuffix strips a colon-delimited calculation suffix:
// "Teaching Staff: total cost" becomes "Teaching Staff".
var CalcSuffix = SplitRule{
	Name:    "calc-suffix",
	Match:   HasCalcSuffix,
	Rewrite: SplitCalcSuffix,
}

// HasCodePrefix reports whether header starts with a field code token.
func HasCodePrefix(header string) bool { return codePrefix.MatchString(header) }

// SplitCodePrefix returns the part of header after the first space.
func SplitCodePrefix(header string) string {
	_, rest, ok := strings.Cut(header, " ")
	if !ok {
		return header
	}
	return strings.TrimSpace(rest)
}

// HasCalcSuffix reports whether header carries a ":" suffix.
func HasCalcSuffix(header string) bool { return strings.Contains(header, ":") }

// SplitCalcSuffix returns the part of header before the first colon.
func SplitCalcSuffix(header string) string {
	head, _, _ := strings.Cut(header, ":")
	return strings.TrimSpace(head)
}

// Alias renames one column by exact name.
type Alias struct {
	From string
	To   string
}

// KindRule assigns a semantic kind to the selected columns.
type KindRule struct {
	Select frame.Selector
	Policy func(name string) frame.Kind
}

// Plan is the reconciliation recipe for one source.
type Plan struct {
	// Force lists columns kept as raw bytes and never coerced.
	Force []string
	// Splits are tried in order; at most one rewrites each header.
	Splits  []SplitRule
	Aliases []Alias
	Drop    []string
	Kinds   []KindRule
}

// Report summarizes what a Plan changed.
type Report struct {
	Renamed    map[string]string // new name -> header it came from
	Dropped    []string
	Duplicates []string
	Classified map[frame.Kind]int
	// Absent lists names a lenient kind selector expected but did not find.
	// The columns they stand for, if renamed, were classified like the rest.
	Absent []string
}

// Apply reconciles ds in place. On error ds may be partially reconciled and
// must be discarded.
func (p Plan) Apply(ds *frame.Dataset) (Report, error) {
	rep := Report{
		Renamed:    make(map[string]string),
		Classified: make(map[frame.Kind]int),
	}

	for _, name := range p.Force {
		col, err := ds.MustColumn(name)
		if err != nil {
			return rep, fmt.Errorf("force string: %w", err)
		}
		ForceBytes(col)
	}

	// The first matching rule owns a header; later rules never see it.
	for _, col := range ds.Columns {
		for _, rule := range p.Splits {
			if !rule.Match(col.Name) {
				continue
			}
			renamed := rule.Rewrite(col.Name)
			if renamed != col.Name {
				rep.Renamed[renamed] = col.Header
				col.Name = renamed
			}
			break
		}
	}

	for _, a := range p.Aliases {
		if ds.Rename(a.From, a.To) == 0 {
			return rep, fmt.Errorf("alias %q -> %q: %w", a.From, a.To, ErrRenameTarget)
		}
		rep.Renamed[a.To] = a.From
	}

	if len(p.Drop) > 0 {
		if err := ds.Drop(p.Drop...); err != nil {
			return rep, err
		}
		rep.Dropped = append(rep.Dropped, p.Drop...)
	}

	rep.Duplicates = ds.DropDuplicateColumns()

	for _, rule := range p.Kinds {
		names, err := rule.Select.Select(ds)
		if err != nil {
			return rep, fmt.Errorf("classify: %w", err)
		}
		if l, ok := rule.Select.(frame.Lenient); ok {
			rep.Absent = append(rep.Absent, l.Absent(ds)...)
		}
		for _, n := range names {
			col, _ := ds.Column(n)
			if col.Kind == frame.KindForcedString {
				continue
			}
			col.Kind = rule.Policy(n)
			rep.Classified[col.Kind]++
		}
	}

	return rep, nil
}

// ForceBytes turns col into a forced-string column holding the text form of
// every cell. Nulls stay null.
func ForceBytes(col *frame.Column) {
	for i, v := range col.Values {
		if v.IsNull() {
			continue
		}
		col.Values[i] = frame.Bytes([]byte(v.Text()))
	}
	col.Type = frame.TypeBytes
	col.Kind = frame.KindForcedString
}
