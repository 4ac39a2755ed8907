package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderByClause joins the orderings whose field is allowed, falling back to def.
func OrderByClause(orderings []DBOrdering, allowed []string, def ...DBOrdering) string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if StringInSlice(ord.Field, allowed) {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		for _, ord := range def {
			parts = append(parts, ord.String())
		}
	}
	return strings.Join(parts, ", ")
}
