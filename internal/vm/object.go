package vm

import (
	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 对象
// ============================================================================

// ObjectType 对象变体标签
type ObjectType uint8

const (
	ObjectClassInstance ObjectType = iota // 用户类实例
	ObjectArray                           // 数组
	ObjectString                          // java/lang/String
)

// Object 堆对象
type Object interface {
	ObjectType() ObjectType
}

// ============================================================================
// ClassInstance
// ============================================================================

// ClassInstance 用户类的实例
type ClassInstance struct {
	class  *ClassRuntime
	fields map[string]Value
}

// NewClassInstance 创建实例。hierarchy[0] 为实例的运行时类，其余为已加载的用户超类，
// 每个类声明的非静态、非 final 字段按描述符取默认值。
func NewClassInstance(hierarchy ...*ClassRuntime) (*ClassInstance, error) {
	cls := hierarchy[0]
	if cls.IsAbstract() {
		return nil, errors.NewRuntimeError(errors.R0302, cls.Name())
	}
	inst := &ClassInstance{class: cls, fields: make(map[string]Value)}
	// 从最远的超类开始，子类的同名字段覆盖超类
	for i := len(hierarchy) - 1; i >= 0; i-- {
		for _, f := range hierarchy[i].instanceFields {
			inst.fields[f.name] = DefaultValue(f.descriptor[0])
		}
	}
	return inst, nil
}

func (o *ClassInstance) ObjectType() ObjectType { return ObjectClassInstance }

// Class 运行时类
func (o *ClassInstance) Class() *ClassRuntime { return o.class }

// Field 读取字段
func (o *ClassInstance) Field(name string) (Value, bool) {
	v, ok := o.fields[name]
	return v, ok
}

// SetField 写入字段，字段不存在时创建
func (o *ClassInstance) SetField(name string, v Value) {
	o.fields[name] = v
}

// FieldCount 字段数量
func (o *ClassInstance) FieldCount() int { return len(o.fields) }

// ============================================================================
// ArrayObject
// ============================================================================

// ArrayObject 单一元素类型的数组
type ArrayObject struct {
	elemType ValueType
	elems    []Value
}

// NewArrayObject 创建长度为 n、以元素类型零值填充的数组
func NewArrayObject(elemType ValueType, n int) *ArrayObject {
	a := &ArrayObject{elemType: elemType, elems: make([]Value, n)}
	for i := range a.elems {
		a.elems[i] = ZeroValue(elemType)
	}
	return a
}

func (a *ArrayObject) ObjectType() ObjectType { return ObjectArray }

// ElementType 元素类型
func (a *ArrayObject) ElementType() ValueType { return a.elemType }

// Len 长度
func (a *ArrayObject) Len() int { return len(a.elems) }

// InBounds 下标是否合法
func (a *ArrayObject) InBounds(i int32) bool {
	return i >= 0 && int(i) < len(a.elems)
}

// Get 按下标读取，调用方负责越界检查
func (a *ArrayObject) Get(i int) Value { return a.elems[i] }

// Set 按下标写入，调用方负责越界检查
func (a *ArrayObject) Set(i int, v Value) { a.elems[i] = v }

// Append 追加元素
func (a *ArrayObject) Append(v Value) { a.elems = append(a.elems, v) }

// RemoveFirst 删除首元素
func (a *ArrayObject) RemoveFirst() bool {
	if len(a.elems) == 0 {
		return false
	}
	a.elems = a.elems[1:]
	return true
}

// RemoveLast 删除末元素
func (a *ArrayObject) RemoveLast() bool {
	if len(a.elems) == 0 {
		return false
	}
	a.elems = a.elems[:len(a.elems)-1]
	return true
}

// RemoveAt 删除指定下标的元素
func (a *ArrayObject) RemoveAt(i int) bool {
	if i < 0 || i >= len(a.elems) {
		return false
	}
	a.elems = append(a.elems[:i], a.elems[i+1:]...)
	return true
}

// ============================================================================
// StringObject
// ============================================================================

// StringObject java/lang/String 实例
type StringObject struct {
	value string
}

// NewStringObject 创建字符串对象
func NewStringObject(s string) *StringObject {
	return &StringObject{value: s}
}

func (s *StringObject) ObjectType() ObjectType { return ObjectString }

// Value 文本
func (s *StringObject) Value() string { return s.value }

// SetValue 替换文本
func (s *StringObject) SetValue(v string) { s.value = v }
