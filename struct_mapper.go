package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

const sqlTag = "sql"

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// UseTagName is a type that can be passed as an option to NewStructMapper
// and determines the field tag name to use for field column mappings
//
// If this option is not passed to NewStructMapper, then the default "sql" tag is used
type UseTagName string

// FieldColumnNamer is an interface that can be passed as an option to NewStructMapper
// and is used to derive the column name to use for a given field
//
// If this option is not specified (or none are satisfied), the name is deduced from the "sql" tag for the field
type FieldColumnNamer interface {
	// ColumnName returns the column name to use for the given struct field
	//
	// The returned name is only used if second return arg is true
	ColumnName(structType reflect.Type, fld reflect.StructField) (string, bool)
}

// ErrorOnUnknownColumns is a type that can be passed as an option to NewStructMapper
// and determines whether an error is raised when a field is mapped, by tag, to a column missing from the row
type ErrorOnUnknownColumns bool

// ErrorOnUnMappedColumns is a type that can be passed as an option to NewStructMapper
// and determines whether an error is raised when a row has columns that are not mapped to fields
type ErrorOnUnMappedColumns bool

// StructMapper is a RowMapper that maps rows into tagged structs of type T
//
// fields of nested (non-scannable) structs are mapped as if they were fields of T
type StructMapper[T any] struct {
	fields                 map[string][]int
	useTagName             string
	fieldColumnNamers      []FieldColumnNamer
	errorOnUnknownColumns  bool
	errorOnUnMappedColumns bool
	exclusions             []ColumnExclusion
	postProcessors         []RowPostProcessor[T]
}

var _ RowMapper[struct{}] = (*StructMapper[struct{}])(nil)

// NewStructMapper creates a new struct mapper for mapping rows to structs
//
// options can be any of UseTagName, FieldColumnNamer, ErrorOnUnknownColumns, ErrorOnUnMappedColumns,
// ColumnExclusion or RowPostProcessor[T]
func NewStructMapper[T any](options ...any) (*StructMapper[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, errors.New("StructMapper can only be used with struct types")
	}
	m := &StructMapper[T]{useTagName: sqlTag}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case ErrorOnUnknownColumns:
				m.errorOnUnknownColumns = bool(option)
			case ErrorOnUnMappedColumns:
				m.errorOnUnMappedColumns = bool(option)
			case UseTagName:
				if option != "" {
					m.useTagName = string(option)
				}
			case FieldColumnNamer:
				m.fieldColumnNamers = append(m.fieldColumnNamers, option)
			case ColumnExclusion:
				m.exclusions = append(m.exclusions, option)
			case RowPostProcessor[T]:
				m.postProcessors = append(m.postProcessors, option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	m.fieldColumnNamers = append(m.fieldColumnNamers, &defaultFieldColumnNamer{tagName: m.useTagName})
	m.fields = make(map[string][]int)
	if err := buildFieldMapRecursive(m.fieldColumnNamers, rt, nil, m.fields); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNewStructMapper is the same as NewStructMapper except that it panics on error
func MustNewStructMapper[T any](options ...any) *StructMapper[T] {
	result, err := NewStructMapper[T](options...)
	if err != nil {
		panic(err)
	}
	return result
}

// MapFromRow maps a row into a new T
func (m *StructMapper[T]) MapFromRow(row Row) (result T, err error) {
	row = m.excludeColumns(row)
	if err = m.checkColumns(row); err != nil {
		return result, err
	}
	rv := reflect.ValueOf(&result).Elem()
	for col, value := range row {
		index, ok := m.fields[col]
		if !ok {
			continue
		}
		if err = assignField(rv.FieldByIndex(index), value); err != nil {
			return result, fmt.Errorf("column %q: %w", col, err)
		}
	}
	for _, pp := range m.postProcessors {
		if err = pp.PostProcess(row, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (m *StructMapper[T]) excludeColumns(row Row) Row {
	if len(m.exclusions) == 0 {
		return row
	}
	result := make(Row, len(row))
	for col, value := range row {
		excluded := false
		for _, x := range m.exclusions {
			if excluded = x.Exclude(col, row); excluded {
				break
			}
		}
		if !excluded {
			result[col] = value
		}
	}
	return result
}

func (m *StructMapper[T]) checkColumns(row Row) error {
	if m.errorOnUnMappedColumns {
		unmapped := make([]string, 0)
		for col := range row {
			if _, ok := m.fields[col]; !ok {
				unmapped = append(unmapped, col)
			}
		}
		if len(unmapped) > 0 {
			slices.Sort(unmapped)
			return fmt.Errorf("unmapped column(s): %s", `"`+strings.Join(unmapped, `","`)+`"`)
		}
	}
	if m.errorOnUnknownColumns {
		unknown := make([]string, 0)
		for col := range m.fields {
			if _, ok := row[col]; !ok {
				unknown = append(unknown, col)
			}
		}
		if len(unknown) > 0 {
			slices.Sort(unknown)
			return fmt.Errorf("unknown column(s): %s", `"`+strings.Join(unknown, `","`)+`"`)
		}
	}
	return nil
}

func buildFieldMapRecursive(namers []FieldColumnNamer, rt reflect.Type, parentIndex []int, result map[string][]int) (err error) {
	for i := 0; err == nil && i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		index := append([]int{}, parentIndex...)
		index = append(index, f.Index...)
		if f.Type.Kind() == reflect.Struct && !isScannable(f.Type) {
			err = buildFieldMapRecursive(namers, f.Type, index, result)
			continue
		}
		useColName := ""
		named := false
		for _, namer := range namers {
			if useColName, named = namer.ColumnName(rt, f); named {
				break
			}
		}
		if !named || useColName == "-" || useColName == "" {
			continue
		}
		if _, exists := result[useColName]; exists {
			return fmt.Errorf("duplicate column mapping %q", useColName)
		}
		result[useColName] = index
	}
	return err
}

func isScannable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return true
	}
	if t == decimalType || (t.PkgPath() == "time" && t.Name() == "Time") {
		return true
	}
	return t.Implements(scannerType) || reflect.PointerTo(t).Implements(scannerType)
}

func assignField(fv reflect.Value, value any) error {
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	ft := fv.Type()
	if ft == decimalType {
		d, err := toDecimal(value)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(d))
		return nil
	}
	if fv.CanAddr() {
		if s, ok := fv.Addr().Interface().(sql.Scanner); ok {
			return s.Scan(value)
		}
	}
	if ft.Kind() == reflect.Ptr {
		pv := reflect.New(ft.Elem())
		if err := assignField(pv.Elem(), value); err != nil {
			return err
		}
		fv.Set(pv)
		return nil
	}
	vv := reflect.ValueOf(value)
	if vv.Type().AssignableTo(ft) {
		fv.Set(vv)
		return nil
	}
	if d, ok := value.(decimal.Decimal); ok {
		return assignDecimal(fv, d)
	}
	if b, ok := value.([]byte); ok && ft.Kind() == reflect.String {
		fv.SetString(string(b))
		return nil
	}
	if isNumberKind(vv.Kind()) && ft.Kind() == reflect.String {
		// reflect would convert ints to runes
		return fmt.Errorf("cannot assign %T to field of type %s", value, ft)
	}
	if vv.Type().ConvertibleTo(ft) {
		cv := vv.Convert(ft)
		if isNumberKind(vv.Kind()) && isNumberKind(ft.Kind()) && (signLost(vv, cv) || !reflect.DeepEqual(cv.Convert(vv.Type()).Interface(), value)) {
			return fmt.Errorf("value %v does not fit field of type %s", value, ft)
		}
		fv.Set(cv)
		return nil
	}
	return fmt.Errorf("cannot assign %T to field of type %s", value, ft)
}

func isNumberKind(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}

// signLost reports whether converting vv to cv changed the sign, which a same width round trip does not detect
func signLost(vv, cv reflect.Value) bool {
	signed := func(k reflect.Kind) bool { return k >= reflect.Int && k <= reflect.Int64 }
	unsigned := func(k reflect.Kind) bool { return k >= reflect.Uint && k <= reflect.Uint64 }
	float := func(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }
	switch {
	case signed(vv.Kind()) && unsigned(cv.Kind()):
		return vv.Int() < 0
	case float(vv.Kind()) && unsigned(cv.Kind()):
		return vv.Float() < 0
	case unsigned(vv.Kind()) && signed(cv.Kind()):
		return cv.Int() < 0
	}
	return false
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	}
	return decimal.Zero, fmt.Errorf("cannot convert %T to decimal", value)
}

func assignDecimal(fv reflect.Value, d decimal.Decimal) error {
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		fv.SetFloat(d.InexactFloat64())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !d.IsInteger() || fv.OverflowInt(d.IntPart()) {
			return fmt.Errorf("decimal %s does not fit field of type %s", d, fv.Type())
		}
		fv.SetInt(d.IntPart())
	case reflect.String:
		fv.SetString(d.String())
	default:
		return fmt.Errorf("cannot assign decimal to field of type %s", fv.Type())
	}
	return nil
}

type defaultFieldColumnNamer struct {
	tagName string
}

var _ FieldColumnNamer = &defaultFieldColumnNamer{}

func (d *defaultFieldColumnNamer) ColumnName(structType reflect.Type, fld reflect.StructField) (string, bool) {
	tag, ok := fld.Tag.Lookup(d.tagName)
	if !ok || tag == "-" || tag == "" {
		return "", false
	}
	return tag, true
}
