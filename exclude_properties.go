package persistence

import "slices"

// ColumnExclusion is an interface that can be passed as an option to NewStructMapper
//
// excluded columns are treated as if they were absent from the row
type ColumnExclusion interface {
	// Exclude should return true if the column is to be excluded
	Exclude(column string, row Row) bool
}

type ConditionalExclude func(column string, row Row) bool

// AllowedColumns is a ColumnExclusion that excludes every column not in the map
//
// a column in the map is only excluded if its ConditionalExclude (when non-nil) returns true
type AllowedColumns map[string]ConditionalExclude

var _ ColumnExclusion = AllowedColumns{}

func (ac AllowedColumns) Exclude(column string, row Row) bool {
	if cx, ok := ac[column]; ok {
		if cx != nil {
			return cx(column, row)
		}
		return false
	}
	return true
}

// ExcludeColumns is a ColumnExclusion that excludes the named columns
type ExcludeColumns []string

var _ ColumnExclusion = ExcludeColumns{}

func (xc ExcludeColumns) Exclude(column string, row Row) bool {
	return slices.Contains(xc, column)
}
