package vm

import (
	"fmt"
	"math"
)

// ============================================================================
// 值类型
// ============================================================================

// ValueType 值的存储类型/显示类型
type ValueType uint8

const (
	TypeBoolean ValueType = iota
	TypeByte
	TypeChar
	TypeShort
	TypeInt
	TypeFloat
	TypeLong
	TypeDouble
	TypeReturnAddr
	TypeReference
	TypePadding
)

var valueTypeNames = [...]string{
	TypeBoolean:    "boolean",
	TypeByte:       "byte",
	TypeChar:       "char",
	TypeShort:      "short",
	TypeInt:        "int",
	TypeFloat:      "float",
	TypeLong:       "long",
	TypeDouble:     "double",
	TypeReturnAddr: "returnAddress",
	TypeReference:  "reference",
	TypePadding:    "padding",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// IsNarrow 是否为存储时需要拓宽为 int 的窄整数类型
func (t ValueType) IsNarrow() bool {
	return t <= TypeShort
}

// TypeForDescriptor 按描述符首字符返回存储类型
func TypeForDescriptor(kind byte) ValueType {
	switch kind {
	case 'Z':
		return TypeBoolean
	case 'B':
		return TypeByte
	case 'C':
		return TypeChar
	case 'S':
		return TypeShort
	case 'I':
		return TypeInt
	case 'F':
		return TypeFloat
	case 'J':
		return TypeLong
	case 'D':
		return TypeDouble
	default:
		return TypeReference
	}
}

// ============================================================================
// Value
// ============================================================================

// Ref 堆对象句柄，0 表示 null，其余为堆下标 +1
type Ref uint32

// Null 空引用
const Null Ref = 0

// Value 带类型标签的值
//
// Type 是存储类型，窄整数在操作数栈和局部变量中以 TypeInt 存储，
// PrintType 保留原始的窄类型用于打印和写回字段/数组时的转换。
// long/double 在栈和局部变量表中总是与一个 TypePadding 槽位成对出现。
type Value struct {
	Type      ValueType
	PrintType ValueType
	raw       uint64
}

// IntValue 创建 int 值
func IntValue(v int32) Value {
	return Value{Type: TypeInt, PrintType: TypeInt, raw: uint64(uint32(v))}
}

// NarrowValue 创建以 int 存储、以窄类型显示的值
func NarrowValue(kind ValueType, v int32) Value {
	return Value{Type: TypeInt, PrintType: kind, raw: uint64(uint32(narrow(kind, v)))}
}

// LongValue 创建 long 值
func LongValue(v int64) Value {
	return Value{Type: TypeLong, PrintType: TypeLong, raw: uint64(v)}
}

// FloatValue 创建 float 值
func FloatValue(v float32) Value {
	return Value{Type: TypeFloat, PrintType: TypeFloat, raw: uint64(math.Float32bits(v))}
}

// DoubleValue 创建 double 值
func DoubleValue(v float64) Value {
	return Value{Type: TypeDouble, PrintType: TypeDouble, raw: math.Float64bits(v)}
}

// RefValue 创建引用值
func RefValue(r Ref) Value {
	return Value{Type: TypeReference, PrintType: TypeReference, raw: uint64(r)}
}

// NullValue 空引用
func NullValue() Value {
	return RefValue(Null)
}

// PaddingValue long/double 的占位槽位
func PaddingValue() Value {
	return Value{Type: TypePadding, PrintType: TypePadding}
}

// ReturnAddrValue jsr 压入的返回地址
func ReturnAddrValue(pc int) Value {
	return Value{Type: TypeReturnAddr, PrintType: TypeReturnAddr, raw: uint64(uint32(pc))}
}

// DefaultValue 字段/数组元素的默认值，按描述符首字符决定类型
func DefaultValue(kind byte) Value {
	t := TypeForDescriptor(kind)
	return Value{Type: t, PrintType: t}
}

// ZeroValue 指定类型的零值
func ZeroValue(t ValueType) Value {
	return Value{Type: t, PrintType: t}
}

// narrow 将 int 截断为窄类型的语义值
func narrow(kind ValueType, v int32) int32 {
	switch kind {
	case TypeBoolean:
		return v & 1
	case TypeByte:
		return int32(int8(v))
	case TypeChar:
		return int32(uint16(v))
	case TypeShort:
		return int32(int16(v))
	default:
		return v
	}
}

// Int int 载荷（窄类型同样适用）
func (v Value) Int() int32 { return int32(uint32(v.raw)) }

// Long long 载荷
func (v Value) Long() int64 { return int64(v.raw) }

// Float float 载荷
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.raw)) }

// Double double 载荷
func (v Value) Double() float64 { return math.Float64frombits(v.raw) }

// Ref 引用载荷
func (v Value) Ref() Ref { return Ref(uint32(v.raw)) }

// ReturnAddr 返回地址载荷
func (v Value) ReturnAddr() int { return int(uint32(v.raw)) }

// IsWide 是否占两个槽位
func (v Value) IsWide() bool {
	return v.Type == TypeLong || v.Type == TypeDouble
}

// IsNull 是否为空引用
func (v Value) IsNull() bool {
	return v.Type == TypeReference && v.Ref() == Null
}

// Widen 读出字段/数组元素时拓宽：窄类型以 int 存储，保留显示类型
func (v Value) Widen() Value {
	if v.Type.IsNarrow() {
		return Value{Type: TypeInt, PrintType: v.Type, raw: v.raw}
	}
	if v.Type == TypeInt {
		v.PrintType = TypeInt
	}
	return v
}

// Coerce 写入字段时转换为描述符声明的窄类型
func (v Value) Coerce(kind byte) Value {
	return v.As(TypeForDescriptor(kind))
}

// As 写入字段或数组元素时转换为窄类型，其他类型原样返回
func (v Value) As(t ValueType) Value {
	if !t.IsNarrow() || v.IsWide() {
		return v
	}
	return Value{Type: t, PrintType: t, raw: uint64(uint32(narrow(t, v.Int())))}
}

// String 调试用文本
func (v Value) String() string {
	switch v.Type {
	case TypeBoolean, TypeByte, TypeChar, TypeShort, TypeInt:
		return fmt.Sprintf("%s %d", v.PrintType, v.Int())
	case TypeFloat:
		return fmt.Sprintf("float %g", v.Float())
	case TypeLong:
		return fmt.Sprintf("long %d", v.Long())
	case TypeDouble:
		return fmt.Sprintf("double %g", v.Double())
	case TypeReference:
		if v.Ref() == Null {
			return "null"
		}
		return fmt.Sprintf("ref #%d", v.Ref())
	case TypeReturnAddr:
		return fmt.Sprintf("returnAddress %d", v.ReturnAddr())
	default:
		return v.Type.String()
	}
}
