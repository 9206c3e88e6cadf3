package persistence

import (
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Arguments maps placeholder names (without the leading colon) to the values bound to them
type Arguments map[string]any

// Named returns the arguments as sql.NamedArg values, sorted by name
//
// the result can be passed as the args of Connector.Execute or Connector.Query
func (a Arguments) Named() []any {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	slices.Sort(names)
	result := make([]any, 0, len(names))
	for _, name := range names {
		result = append(result, sql.Named(name, a[name]))
	}
	return result
}

// PlaceholderGenerator generates named placeholders and arguments for statements
// binding several rows of values at once (e.g. multi-row INSERT ... VALUES)
//
// for prefixes ["a","b"] and rows [[1,2],[3,4]] the placeholders are
// [[":a_0",":b_0"],[":a_1",":b_1"]] and the arguments {a_0:1, b_0:2, a_1:3, b_1:4}
type PlaceholderGenerator struct {
	prefixes []string
	rows     [][]any
}

// NewPlaceholderGenerator creates a PlaceholderGenerator
//
// every row must have exactly one value per prefix, prefixes must be non-empty and unique
func NewPlaceholderGenerator(prefixes []string, rows [][]any) (*PlaceholderGenerator, error) {
	if err := checkPrefixes(prefixes); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != len(prefixes) {
			return nil, &RowWidthError{Row: i, Width: len(row), Prefixes: len(prefixes)}
		}
	}
	return &PlaceholderGenerator{
		prefixes: slices.Clone(prefixes),
		rows:     rows,
	}, nil
}

// MustNewPlaceholderGenerator is the same as NewPlaceholderGenerator, except it panics on error
func MustNewPlaceholderGenerator(prefixes []string, rows [][]any) *PlaceholderGenerator {
	g, err := NewPlaceholderGenerator(prefixes, rows)
	if err != nil {
		panic(err)
	}
	return g
}

func checkPrefixes(prefixes []string) error {
	seen := make(map[string]struct{}, len(prefixes))
	for _, prefix := range prefixes {
		if prefix == "" {
			return newConfigurationError("placeholder prefix must not be empty")
		}
		if _, ok := seen[prefix]; ok {
			return newConfigurationError(fmt.Sprintf("duplicate placeholder prefix %q", prefix))
		}
		seen[prefix] = struct{}{}
	}
	return nil
}

func placeholderName(prefix string, index int) string {
	return prefix + "_" + strconv.Itoa(index)
}

// NamedPlaceholders returns, per row, the placeholders of that row in prefix order
func (g *PlaceholderGenerator) NamedPlaceholders() [][]string {
	result := make([][]string, 0, len(g.rows))
	for i := range g.rows {
		group := make([]string, 0, len(g.prefixes))
		for _, prefix := range g.prefixes {
			group = append(group, ":"+placeholderName(prefix, i))
		}
		result = append(result, group)
	}
	return result
}

// Arguments returns the values of all rows keyed by placeholder name
func (g *PlaceholderGenerator) Arguments() Arguments {
	result := make(Arguments, len(g.rows)*len(g.prefixes))
	for i, row := range g.rows {
		for j, value := range row {
			result[placeholderName(g.prefixes[j], i)] = value
		}
	}
	return result
}

// Values renders the placeholders as a VALUES list, e.g. "(:a_0, :b_0), (:a_1, :b_1)"
//
// returns an empty string if there are no rows
func (g *PlaceholderGenerator) Values() string {
	var sb strings.Builder
	for i, group := range g.NamedPlaceholders() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		sb.WriteString(strings.Join(group, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

// InList generates named placeholders and arguments for an IN (...) list
type InList struct {
	prefix string
	values []any
}

// NewInList creates an InList whose placeholders are named <prefix>_<index>
func NewInList(prefix string, values []any) (*InList, error) {
	if err := checkPrefixes([]string{prefix}); err != nil {
		return nil, err
	}
	return &InList{prefix: prefix, values: values}, nil
}

// Placeholders returns the comma separated placeholders, e.g. ":id_0, :id_1"
func (l *InList) Placeholders() string {
	names := make([]string, 0, len(l.values))
	for i := range l.values {
		names = append(names, ":"+placeholderName(l.prefix, i))
	}
	return strings.Join(names, ", ")
}

// Arguments returns the values keyed by placeholder name
func (l *InList) Arguments() Arguments {
	result := make(Arguments, len(l.values))
	for i, value := range l.values {
		result[placeholderName(l.prefix, i)] = value
	}
	return result
}
