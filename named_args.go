package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderStyle is the parameter syntax a database/sql driver understands
type PlaceholderStyle int

const (
	// PlaceholderNative passes statements and arguments unchanged (the driver binds :name itself)
	PlaceholderNative PlaceholderStyle = iota
	// PlaceholderQuestion rewrites :name to ? and binds positionally (MySQL)
	PlaceholderQuestion
	// PlaceholderDollar rewrites :name to $n and binds positionally (PostgreSQL)
	PlaceholderDollar
	// PlaceholderAt rewrites :name to @name and binds by name (SQL Server)
	PlaceholderAt
)

// namedStatement is a statement with its :name placeholders rewritten to a PlaceholderStyle
type namedStatement struct {
	style PlaceholderStyle
	query string
	// names in bind order
	names []string
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func rewriteNamed(query string, style PlaceholderStyle) *namedStatement {
	result := &namedStatement{style: style, query: query}
	if style == PlaceholderNative || !strings.Contains(query, ":") {
		return result
	}
	var sb strings.Builder
	positions := map[string]int{}
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == '\\' && quote != '`' && style == PlaceholderQuestion && i+1 < len(query) {
				// mysql backslash escape
				sb.WriteByte(c)
				i++
				c = query[i]
			} else if c == quote {
				quote = 0
			}
			sb.WriteByte(c)
		case c == '\'' || c == '"' || c == '`':
			quote = c
			sb.WriteByte(c)
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query) - i
			}
			sb.WriteString(query[i : i+end])
			i += end - 1
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = len(query) - i
			} else {
				end += 4
			}
			sb.WriteString(query[i : i+end])
			i += end - 1
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			// postgres type cast
			sb.WriteString("::")
			i++
		case c == ':' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdentChar(query[j]) {
				j++
			}
			name := query[i+1 : j]
			switch style {
			case PlaceholderQuestion:
				sb.WriteByte('?')
				result.names = append(result.names, name)
			case PlaceholderDollar:
				pos, ok := positions[name]
				if !ok {
					result.names = append(result.names, name)
					pos = len(result.names)
					positions[name] = pos
				}
				sb.WriteString("$" + strconv.Itoa(pos))
			case PlaceholderAt:
				sb.WriteString("@" + name)
				result.names = append(result.names, name)
			}
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}
	result.query = sb.String()
	return result
}

// bind converts named arguments to the positional arguments of the rewritten statement
//
// positional arguments are passed unchanged
func (s *namedStatement) bind(args []any) ([]any, error) {
	if len(s.names) == 0 || len(args) == 0 || s.style == PlaceholderAt {
		return args, nil
	}
	values := make(map[string]any, len(args))
	named := 0
	for _, arg := range args {
		if na, ok := arg.(sql.NamedArg); ok {
			values[na.Name] = na.Value
			named++
		}
	}
	if named == 0 {
		return args, nil
	} else if named != len(args) {
		return nil, errors.New("cannot mix named and positional arguments")
	}
	result := make([]any, 0, len(s.names))
	for _, name := range s.names {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing argument for placeholder :%s", name)
		}
		result = append(result, v)
	}
	return result, nil
}
