package condition

import "strings"

// Interest decides which columns produce conditions.
type Interest interface {
	IsInteresting(column, table string) bool
	HasTable(table string) bool
}

type Resolver interface {
	// Resolve maps a possibly qualified column to a logic table name, or ""
	// when it cannot be attributed.
	Resolve(owner, column string, interest Interest) string
}

// TableRef is one table of the statement, optionally aliased.
type TableRef struct {
	Name  string
	Alias string
}

type TableResolver struct {
	byOwner map[string]string
	tables  []string
}

var _ Resolver = &TableResolver{}

func NewTableResolver(tables ...TableRef) *TableResolver {
	r := &TableResolver{byOwner: map[string]string{}}
	for _, t := range tables {
		r.byOwner[strings.ToLower(t.Name)] = t.Name
		if t.Alias != "" {
			r.byOwner[strings.ToLower(t.Alias)] = t.Name
		}
		r.tables = append(r.tables, t.Name)
	}
	return r
}

func (r *TableResolver) Tables() []string {
	return r.tables
}

func (r *TableResolver) Resolve(owner, column string, interest Interest) string {
	if owner != "" {
		return r.byOwner[strings.ToLower(owner)]
	}

	var known, owning []string
	for _, t := range r.tables {
		if !interest.HasTable(t) {
			continue
		}
		known = append(known, t)
		if interest.IsInteresting(column, t) {
			owning = append(owning, t)
		}
	}
	switch {
	case len(known) == 1:
		return known[0]
	case len(owning) == 1:
		return owning[0]
	}
	return ""
}
