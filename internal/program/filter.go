package program

import (
	"cmp"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// StipendMode selects programs by whether they pay a stipend.
type StipendMode int

const (
	StipendAny StipendMode = iota
	StipendPaid
	StipendUnpaid
)

// ParseStipendMode maps a control value to a mode. Unknown values mean any.
func ParseStipendMode(s string) StipendMode {
	switch s {
	case "yes":
		return StipendPaid
	case "no":
		return StipendUnpaid
	default:
		return StipendAny
	}
}

// String returns the control value for the mode.
func (m StipendMode) String() string {
	switch m {
	case StipendPaid:
		return "yes"
	case StipendUnpaid:
		return "no"
	default:
		return ""
	}
}

// SortKey selects the ordering of the result.
type SortKey int

const (
	SortByName SortKey = iota
	SortByContributors
)

// ParseSortKey maps a control value to a sort key. Unknown values sort by name.
func ParseSortKey(s string) SortKey {
	if s == "contributors" {
		return SortByContributors
	}
	return SortByName
}

// String returns the control value for the sort key.
func (k SortKey) String() string {
	if k == SortByContributors {
		return "contributors"
	}
	return "name"
}

// Filter is derived from control values on every pass and never stored.
type Filter struct {
	Difficulty string // "" matches any difficulty
	Stipend    StipendMode
	Sort       SortKey
}

// ParseFilter builds a Filter from raw control values.
func ParseFilter(difficulty, stipend, sort string) Filter {
	return Filter{
		Difficulty: difficulty,
		Stipend:    ParseStipendMode(stipend),
		Sort:       ParseSortKey(sort),
	}
}

// DefaultFilter matches everything and sorts by name.
func DefaultFilter() Filter {
	return Filter{}
}

// Select returns the programs that pass f, in f's order. The input slice is
// never modified. The result is never nil but may be empty.
func Select(programs []Program, f Filter) []Program {
	out := make([]Program, 0, len(programs))

	// A Caser keeps state and must not be shared across goroutines.
	folder := cases.Fold()
	want := folder.String(f.Difficulty)

	for _, p := range programs {
		if f.Difficulty != "" && folder.String(p.Difficulty) != want {
			continue
		}
		switch f.Stipend {
		case StipendPaid:
			if !p.HasStipend() {
				continue
			}
		case StipendUnpaid:
			if p.HasStipend() {
				continue
			}
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortByContributors:
		slices.SortStableFunc(out, func(a, b Program) int {
			return cmp.Compare(b.Contributors, a.Contributors)
		})
	default:
		col := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b Program) int {
			return col.CompareString(a.Name, b.Name)
		})
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}
