// Package tags declares accounting tag dimensions and their per-organization
// configuration. A tag is an auxiliary classification on a ledger entry
// (division, department, activity), orthogonal to the GL account.
package tags

// MaxDimensions caps the number of tag slots an organization may enable.
const MaxDimensions = 7

// TagNone is the reserved filter value selecting the explicit "no tag" bucket.
const TagNone = "_NA_"

// TagVector is an ordered sequence of optional classification values indexed
// by dimension. Index 0 holds dimension 1. An empty string means untagged.
type TagVector []string

// Value returns the tag value for a 1-based dimension, empty when absent.
func (v TagVector) Value(dimension int) string {
	idx := dimension - 1
	if idx < 0 || idx >= len(v) {
		return ""
	}
	return v[idx]
}

// TagFilter selects fact rows by exact tag value per dimension (1-based keys).
// Omitted dimensions match any value; TagNone matches only untagged rows.
type TagFilter map[int]string

// Matches reports whether the vector satisfies every constraint in the filter.
func (f TagFilter) Matches(v TagVector) bool {
	for dim, want := range f {
		got := v.Value(dim)
		if want == TagNone {
			if got != "" {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

// Dimension describes one enabled tag slot for an organization.
type Dimension struct {
	Index           int
	Name            string
	BalanceRequired bool
}

// DimensionConfig is the per-organization declaration of tag slots.
type DimensionConfig struct {
	OrganizationID string
	Dimensions     []Dimension
}

// BalanceRequired returns the enabled dimensions that must balance, in index order.
func (c DimensionConfig) BalanceRequired() []Dimension {
	var out []Dimension
	for _, d := range c.Dimensions {
		if d.BalanceRequired {
			out = append(out, d)
		}
	}
	return out
}
