package frame

import "fmt"

// Selector resolves a set of columns against a dataset. Selectors are
// evaluated after reconciliation so they see the final column names, and
// they return names in dataset order.
type Selector interface {
	Select(ds *Dataset) ([]string, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ds *Dataset) ([]string, error)

// Select implements Selector.
func (f SelectorFunc) Select(ds *Dataset) ([]string, error) { return f(ds) }

// Names selects the listed columns. Every name must exist.
func Names(names ...string) Selector {
	return SelectorFunc(func(ds *Dataset) ([]string, error) {
		want := make(map[string]bool, len(names))
		for _, n := range names {
			if ds.Index(n) < 0 {
				return nil, fmt.Errorf("select: %w: %q", ErrColumnNotFound, n)
			}
			want[n] = true
		}
		return pick(ds, func(i int, c *Column) bool { return want[c.Name] }), nil
	})
}

// Between selects the columns from first through last inclusive.
func Between(first, last string) Selector {
	return SelectorFunc(func(ds *Dataset) ([]string, error) {
		lo := ds.Index(first)
		if lo < 0 {
			return nil, fmt.Errorf("select: anchor %w: %q", ErrColumnNotFound, first)
		}
		hi := ds.Index(last)
		if hi < 0 {
			return nil, fmt.Errorf("select: anchor %w: %q", ErrColumnNotFound, last)
		}
		if hi < lo {
			return nil, fmt.Errorf("select: %q comes after %q", first, last)
		}
		return pick(ds, func(i int, c *Column) bool { return i >= lo && i <= hi }), nil
	})
}

// From selects the anchor column and every column after it.
func From(anchor string) Selector {
	return SelectorFunc(func(ds *Dataset) ([]string, error) {
		lo := ds.Index(anchor)
		if lo < 0 {
			return nil, fmt.Errorf("select: anchor %w: %q", ErrColumnNotFound, anchor)
		}
		return pick(ds, func(i int, c *Column) bool { return i >= lo }), nil
	})
}

// Lenient is implemented by selectors that tolerate listed names missing
// from the dataset. Absent returns those names in list order.
type Lenient interface {
	Absent(ds *Dataset) []string
}

// ExceptSelector selects every column not listed.
type ExceptSelector struct {
	names []string
	skip  map[string]bool
}

// Except selects every column not listed. Listed names that are absent do not
// fail the selection, so an identifier list can cover several source years;
// they are available through Absent.
func Except(names ...string) *ExceptSelector {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	return &ExceptSelector{names: names, skip: skip}
}

// Select implements Selector.
func (e *ExceptSelector) Select(ds *Dataset) ([]string, error) {
	return pick(ds, func(i int, c *Column) bool { return !e.skip[c.Name] }), nil
}

// Absent implements Lenient.
func (e *ExceptSelector) Absent(ds *Dataset) []string {
	var out []string
	for _, n := range e.names {
		if ds.Index(n) < 0 {
			out = append(out, n)
		}
	}
	return out
}

// Matching selects the columns for which pred returns true.
func Matching(pred func(c *Column) bool) Selector {
	return SelectorFunc(func(ds *Dataset) ([]string, error) {
		return pick(ds, func(i int, c *Column) bool { return pred(c) }), nil
	})
}

// Minus selects the columns of sel that exclude does not select.
func Minus(sel, exclude Selector) Selector {
	return SelectorFunc(func(ds *Dataset) ([]string, error) {
		names, err := sel.Select(ds)
		if err != nil {
			return nil, err
		}
		drop, err := exclude.Select(ds)
		if err != nil {
			return nil, err
		}
		skip := make(map[string]bool, len(drop))
		for _, n := range drop {
			skip[n] = true
		}
		out := names[:0]
		for _, n := range names {
			if !skip[n] {
				out = append(out, n)
			}
		}
		return out, nil
	})
}

// Union selects every column chosen by any of sels, in dataset order.
func Union(sels ...Selector) Selector {
	return SelectorFunc(func(ds *Dataset) ([]string, error) {
		want := make(map[string]bool)
		for _, s := range sels {
			names, err := s.Select(ds)
			if err != nil {
				return nil, err
			}
			for _, n := range names {
				want[n] = true
			}
		}
		return pick(ds, func(i int, c *Column) bool { return want[c.Name] }), nil
	})
}

func pick(ds *Dataset, keep func(i int, c *Column) bool) []string {
	var out []string
	seen := make(map[string]bool)
	for i, c := range ds.Columns {
		if seen[c.Name] || !keep(i, c) {
			continue
		}
		seen[c.Name] = true
		out = append(out, c.Name)
	}
	return out
}
