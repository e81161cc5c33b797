package remote

import (
	"reflect"
	"strings"
	"time"
)

type Op string

const (
	OpEqual         Op = "=="
	OpNotEqual      Op = "!="
	OpLess          Op = "<"
	OpLessEqual     Op = "<="
	OpGreater       Op = ">"
	OpGreaterEqual  Op = ">="
	OpArrayContains Op = "array-contains"
)

// Filter compares a document field, addressed by its firestore path
// (e.g. "metadata.entityId"), with Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Matches evaluates filters against doc in memory, with the same field
// addressing the remote store uses. It lets records that never reached the
// remote store be filtered like the ones that did.
func Matches(doc any, filters []Filter) bool {
	for _, f := range filters {
		value, ok := FieldValue(doc, f.Field)
		if !ok {
			return false
		}
		if !compare(value, f.Op, f.Value) {
			return false
		}
	}
	return true
}

// FieldValue resolves a dotted firestore path on a struct value.
func FieldValue(doc any, path string) (any, bool) {
	v := reflect.ValueOf(doc)
	for _, part := range strings.Split(path, ".") {
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return nil, false
		}

		field, ok := fieldByTag(v, part)
		if !ok {
			return nil, false
		}
		v = field
	}

	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}

	return v.Interface(), true
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := strings.Split(sf.Tag.Get("firestore"), ",")[0]
		if tag == "-" {
			continue
		}

		if sf.Anonymous && tag == "" {
			if found, ok := fieldByTag(reflect.Indirect(v.Field(i)), name); ok {
				return found, true
			}
			continue
		}

		if tag == name || (tag == "" && sf.Name == name) {
			return v.Field(i), true
		}
	}

	return reflect.Value{}, false
}

func compare(left any, op Op, right any) bool {
	if op == OpArrayContains {
		lv := reflect.ValueOf(left)
		if lv.Kind() != reflect.Slice && lv.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < lv.Len(); i++ {
			if reflect.DeepEqual(normalize(lv.Index(i).Interface()), normalize(right)) {
				return true
			}
		}
		return false
	}

	cmp, ok := order(normalize(left), normalize(right))
	if !ok {
		switch op {
		case OpEqual:
			return reflect.DeepEqual(left, right)
		case OpNotEqual:
			return !reflect.DeepEqual(left, right)
		default:
			return false
		}
	}

	switch op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpLess:
		return cmp < 0
	case OpLessEqual:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpGreaterEqual:
		return cmp >= 0
	default:
		return false
	}
}

// normalize folds named string/number/bool types into their base kinds so
// that a model.NotificationType compares equal to a plain string.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}

	return v
}

// Compare orders two field values the way the remote store does. ok is false
// when the values are not comparable.
func Compare(a, b any) (cmp int, ok bool) {
	return order(normalize(a), normalize(b))
}

func order(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}

	return 0, false
}
