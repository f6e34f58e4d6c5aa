package validate

import (
	"fmt"
	"math"
	"reflect"
)

// Kind 参数的期望类型
type Kind int

const (
	Bool Kind = iota
	Int
	Float
	String
	IntSlice
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case IntSlice:
		return "[]int"
	default:
		return "unknown"
	}
}

// Field 模式中的单个参数声明
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema 参数校验模式。由静态声明构建，在被保护的调用之前显式执行，
// 不在运行时内省函数签名。
type Schema struct {
	fields []Field
}

// NewSchema 按声明顺序构建模式
func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

// Check 按声明顺序校验参数表，返回第一个不匹配的错误。
// 缺失的必填参数视为不匹配；未声明的多余键被忽略。
func (s *Schema) Check(args map[string]interface{}) error {
	for _, f := range s.fields {
		value, ok := args[f.Name]
		if !ok {
			if f.Required {
				return fmt.Errorf("argument %q is required but missing", f.Name)
			}
			continue
		}
		if !matches(f.Kind, value) {
			return fmt.Errorf("argument %q expected type %s, but got type %T with value %v",
				f.Name, f.Kind, value, value)
		}
	}
	return nil
}

// matches 判断值是否符合期望类型。布尔值不算整数，整数不算布尔值，
// 与参照行为保持一致的严格匹配；JSON 解码出的 float64 仅在数值为
// 整数时才接受为 Int。
func matches(kind Kind, value interface{}) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)

	switch kind {
	case Bool:
		return rv.Kind() == reflect.Bool
	case Int:
		return isInteger(rv)
	case Float:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case String:
		return rv.Kind() == reflect.String
	case IntSlice:
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			if elem.Kind() == reflect.Interface {
				elem = elem.Elem()
			}
			if !elem.IsValid() || !isInteger(elem) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isInteger(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float64, reflect.Float32:
		// JSON 数字统一解码为 float64
		f := rv.Float()
		return f == math.Trunc(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

// Int64Slice 把已通过 IntSlice 校验的值转换为 []int64。
// 值形状不符时第二个返回值为 false。
func Int64Slice(value interface{}) ([]int64, bool) {
	if value == nil {
		return nil, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]int64, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			return nil, false
		}
		switch elem.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, elem.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, int64(elem.Uint()))
		case reflect.Float32, reflect.Float64:
			f := elem.Float()
			if f != math.Trunc(f) {
				return nil, false
			}
			out = append(out, int64(f))
		default:
			return nil, false
		}
	}
	return out, true
}
