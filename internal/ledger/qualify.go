package ledger

// ColumnMap maps each recognized role to the index of the first column that
// carries it. Unknown columns are not recorded.
type ColumnMap map[ColumnRole]int

// Index returns the column index for role.
func (m ColumnMap) Index(role ColumnRole) (int, bool) {
	i, ok := m[role]
	return i, ok
}

// Has reports whether role is mapped.
func (m ColumnMap) Has(role ColumnRole) bool {
	_, ok := m[role]
	return ok
}

// Qualifies reports whether headers describe a transaction ledger: at least
// one date column, one description column and one amount column of any kind.
// A balance column is not required.
func Qualifies(headers []string) bool {
	return qualifiesRoles(ClassifyAll(headers))
}

func qualifiesRoles(roles []ColumnRole) bool {
	var date, desc, amount bool
	for _, r := range roles {
		switch {
		case r == Date:
			date = true
		case r == Description:
			desc = true
		case r.IsAmount():
			amount = true
		}
	}
	return date && desc && amount
}

// BuildColumnMap builds the role → index mapping for headers. When a role
// appears on several headers the first one wins and the rest are ignored.
func BuildColumnMap(headers []string) ColumnMap {
	return columnMapFromRoles(ClassifyAll(headers))
}

func columnMapFromRoles(roles []ColumnRole) ColumnMap {
	m := make(ColumnMap, len(roles))
	for i, r := range roles {
		if r == Unknown {
			continue
		}
		if _, seen := m[r]; seen {
			continue
		}
		m[r] = i
	}
	return m
}
