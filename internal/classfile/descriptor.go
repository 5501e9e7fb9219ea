package classfile

import (
	"strings"

	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 描述符
// ============================================================================

// FieldType 字段类型描述符
type FieldType struct {
	Descriptor string // 原始描述符，如 I、Ljava/lang/String;、[[J
}

// Kind 返回描述符首字符 (B C D F I J S Z L [)
func (t FieldType) Kind() byte {
	return t.Descriptor[0]
}

// Slots 返回该类型在操作数栈/局部变量表中占用的槽位数
func (t FieldType) Slots() int {
	switch t.Descriptor {
	case "J", "D":
		return 2
	default:
		return 1
	}
}

// IsWide 是否为 long/double
func (t FieldType) IsWide() bool {
	return t.Slots() == 2
}

// IsReference 是否为引用类型（对象或数组）
func (t FieldType) IsReference() bool {
	k := t.Kind()
	return k == 'L' || k == '['
}

// ClassName 对象类型返回类名，数组返回数组描述符本身，基本类型返回空串
func (t FieldType) ClassName() string {
	switch t.Kind() {
	case 'L':
		return t.Descriptor[1 : len(t.Descriptor)-1]
	case '[':
		return t.Descriptor
	default:
		return ""
	}
}

// ElementType 数组元素类型
func (t FieldType) ElementType() (FieldType, bool) {
	if t.Kind() != '[' {
		return FieldType{}, false
	}
	return FieldType{Descriptor: t.Descriptor[1:]}, true
}

// MethodDescriptor 方法描述符
type MethodDescriptor struct {
	Parameters []FieldType
	Return     FieldType // void 时 Descriptor 为 "V"
}

// ArgSlots 参数占用的总槽位数
func (m MethodDescriptor) ArgSlots() int {
	n := 0
	for _, p := range m.Parameters {
		n += p.Slots()
	}
	return n
}

// IsVoid 返回值是否为 void
func (m MethodDescriptor) IsVoid() bool {
	return m.Return.Descriptor == "V"
}

// ParseFieldType 解析字段描述符
func ParseFieldType(d string) (FieldType, error) {
	n, ok := scanFieldType(d, 0)
	if !ok || n != len(d) {
		return FieldType{}, errors.NewClassError(errors.C0006, d)
	}
	return FieldType{Descriptor: d}, nil
}

// ParseMethodDescriptor 解析方法描述符，如 (I[JLjava/lang/String;)V
func ParseMethodDescriptor(d string) (MethodDescriptor, error) {
	var md MethodDescriptor
	if !strings.HasPrefix(d, "(") {
		return md, errors.NewClassError(errors.C0006, d)
	}
	i := 1
	for i < len(d) && d[i] != ')' {
		end, ok := scanFieldType(d, i)
		if !ok {
			return md, errors.NewClassError(errors.C0006, d)
		}
		md.Parameters = append(md.Parameters, FieldType{Descriptor: d[i:end]})
		i = end
	}
	if i >= len(d) {
		return md, errors.NewClassError(errors.C0006, d)
	}
	i++ // ')'

	ret := d[i:]
	if ret == "V" {
		md.Return = FieldType{Descriptor: "V"}
		return md, nil
	}
	end, ok := scanFieldType(d, i)
	if !ok || end != len(d) {
		return md, errors.NewClassError(errors.C0006, d)
	}
	md.Return = FieldType{Descriptor: ret}
	return md, nil
}

// scanFieldType 从 d[i] 开始扫描一个字段类型，返回结束位置
func scanFieldType(d string, i int) (int, bool) {
	for i < len(d) && d[i] == '[' {
		i++
	}
	if i >= len(d) {
		return 0, false
	}
	switch d[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, true
	case 'L':
		semi := strings.IndexByte(d[i:], ';')
		if semi <= 1 {
			return 0, false
		}
		return i + semi + 1, true
	default:
		return 0, false
	}
}
