package sqlqueue

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"github.com/shopspring/decimal"
	"reflect"
	"strings"
	"sync"
)

const sqlTag = "sql"

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	fieldMaps   sync.Map // reflect.Type -> *fieldMap
)

// FetchStruct fetches the next row into a new T
//
// columns are mapped to fields by `sql:"name"` tag - untagged exported fields match a column by name (case-insensitive),
// a tag of "-" excludes the field and nested structs are flattened. Columns with no matching field are ignored
//
// returns ErrNoMoreRows when there are no more rows
func FetchStruct[T any](r *Result) (*T, error) {
	fm, err := fieldMapFor[T]()
	if err != nil {
		return nil, err
	}
	row, err := r.FetchRow()
	if err != nil {
		return nil, err
	}
	var item T
	if err = fm.assign(reflect.ValueOf(&item).Elem(), r.columns.keys, row); err != nil {
		return nil, r.withDriver(err)
	}
	return &item, nil
}

// FetchAllStructs fetches every remaining row into a slice of T (see FetchStruct for mapping rules)
func FetchAllStructs[T any](r *Result) ([]T, error) {
	fm, err := fieldMapFor[T]()
	if err != nil {
		return nil, err
	}
	result := make([]T, 0, r.remaining())
	err = r.each(func(row []any) (bool, error) {
		var item T
		if err := fm.assign(reflect.ValueOf(&item).Elem(), r.columns.keys, row); err != nil {
			return false, r.withDriver(err)
		}
		result = append(result, item)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type fieldMap struct {
	tagged map[string][]int
	named  map[string][]int
}

func fieldMapFor[T any]() (*fieldMap, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, newError(MisuseError, "", nil, "FetchStruct can only be used with struct types (not %s)", rt)
	}
	if fm, ok := fieldMaps.Load(rt); ok {
		return fm.(*fieldMap), nil
	}
	fm := &fieldMap{
		tagged: map[string][]int{},
		named:  map[string][]int{},
	}
	if err := fm.build(rt, nil); err != nil {
		return nil, err
	}
	actual, _ := fieldMaps.LoadOrStore(rt, fm)
	return actual.(*fieldMap), nil
}

func (fm *fieldMap) build(rt reflect.Type, parentIndex []int) error {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() && !(f.Anonymous && f.Type.Kind() == reflect.Struct) {
			continue
		}
		index := append(append([]int{}, parentIndex...), f.Index...)
		tag, tagged := f.Tag.Lookup(sqlTag)
		if tag == "-" {
			continue
		}
		if !tagged && f.Type.Kind() == reflect.Struct && !isScannable(f.Type) {
			if err := fm.build(f.Type, index); err != nil {
				return err
			}
			continue
		}
		if tagged && tag != "" {
			if _, exists := fm.tagged[tag]; exists {
				return newError(MisuseError, "", nil, "duplicate column mapping %q", tag)
			}
			fm.tagged[tag] = index
		} else if _, exists := fm.named[strings.ToLower(f.Name)]; !exists {
			fm.named[strings.ToLower(f.Name)] = index
		}
	}
	return nil
}

func (fm *fieldMap) lookup(column string) ([]int, bool) {
	if index, ok := fm.tagged[column]; ok {
		return index, true
	}
	index, ok := fm.named[strings.ToLower(column)]
	return index, ok
}

func (fm *fieldMap) assign(item reflect.Value, columns []string, row []any) error {
	for i, col := range columns {
		index, ok := fm.lookup(col)
		if !ok {
			continue
		}
		if err := setField(item.FieldByIndex(index), row[i]); err != nil {
			return &Error{
				Kind:     ConversionError,
				SQLState: DefaultSQLState,
				Message:  fmt.Sprintf("column %q: %s", col, err.Error()),
				cause:    err,
			}
		}
	}
	return nil
}

func setField(fv reflect.Value, value any) error {
	if fv.CanAddr() && fv.Addr().Type().Implements(scannerType) {
		return fv.Addr().Interface().(sql.Scanner).Scan(value)
	}
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	if fv.Kind() == reflect.Pointer {
		pv := reflect.New(fv.Type().Elem())
		if err := setField(pv.Elem(), value); err != nil {
			return err
		}
		fv.Set(pv)
		return nil
	}
	vv := reflect.ValueOf(value)
	switch {
	case vv.Type().AssignableTo(fv.Type()):
		fv.Set(vv)
		return nil
	case fv.Kind() == reflect.String && vv.Kind() != reflect.String:
		fv.SetString(fmt.Sprint(value))
		return nil
	case isConvertibleScalar(vv.Kind()) && isConvertibleScalar(fv.Kind()) && vv.Type().ConvertibleTo(fv.Type()):
		fv.Set(vv.Convert(fv.Type()))
		return nil
	}
	switch v := value.(type) {
	case decimal.Decimal:
		switch fv.Kind() {
		case reflect.Float32, reflect.Float64:
			f, _ := v.Float64()
			fv.SetFloat(f)
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fv.SetInt(v.IntPart())
			return nil
		}
	case map[string]any, []any:
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, fv.Addr().Interface())
	}
	return fmt.Errorf("cannot assign %T to field of type %s", value, fv.Type())
}

func isConvertibleScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
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
	// bizarrely, time.Time isn't scannable but drivers can scan it...
	if t.PkgPath() == "time" && t.Name() == "Time" {
		return true
	}
	return t.Implements(scannerType) || reflect.PointerTo(t).Implements(scannerType)
}
