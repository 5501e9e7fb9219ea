package classfile

import (
	"encoding/binary"
	"io"
	"math"
)

// ConstantPool 常量池，索引从 1 开始，下标 0 恒为 nil
type ConstantPool []ConstantPoolEntry

// ConstantPoolEntry 常量池条目
type ConstantPoolEntry interface {
	Tag() uint8
	Write(w io.Writer) error
}

// ConstantUtf8Info UTF8 字符串常量
type ConstantUtf8Info struct {
	Value string
	Raw   []byte // 原始的 modified UTF-8 字节
}

func (c *ConstantUtf8Info) Tag() uint8 { return ConstantUtf8 }
func (c *ConstantUtf8Info) Write(w io.Writer) error {
	raw := c.Raw
	if raw == nil {
		raw = EncodeModifiedUTF8(c.Value)
	}
	binary.Write(w, binary.BigEndian, c.Tag())
	binary.Write(w, binary.BigEndian, uint16(len(raw)))
	_, err := w.Write(raw)
	return err
}

// ConstantIntegerInfo int 常量
type ConstantIntegerInfo struct {
	Bytes uint32
}

func (c *ConstantIntegerInfo) Tag() uint8 { return ConstantInteger }
func (c *ConstantIntegerInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	return binary.Write(w, binary.BigEndian, c.Bytes)
}

// Value 返回有符号值
func (c *ConstantIntegerInfo) Value() int32 { return int32(c.Bytes) }

// ConstantFloatInfo float 常量
type ConstantFloatInfo struct {
	Bytes uint32
}

func (c *ConstantFloatInfo) Tag() uint8 { return ConstantFloat }
func (c *ConstantFloatInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	return binary.Write(w, binary.BigEndian, c.Bytes)
}

// Value 返回 IEEE-754 单精度值
func (c *ConstantFloatInfo) Value() float32 { return math.Float32frombits(c.Bytes) }

// ConstantLongInfo long 常量，占用两个常量池槽位
type ConstantLongInfo struct {
	HighBytes uint32
	LowBytes  uint32
}

func (c *ConstantLongInfo) Tag() uint8 { return ConstantLong }
func (c *ConstantLongInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	binary.Write(w, binary.BigEndian, c.HighBytes)
	return binary.Write(w, binary.BigEndian, c.LowBytes)
}

// Value 返回有符号值
func (c *ConstantLongInfo) Value() int64 {
	return int64(uint64(c.HighBytes)<<32 | uint64(c.LowBytes))
}

// ConstantDoubleInfo double 常量，占用两个常量池槽位
type ConstantDoubleInfo struct {
	HighBytes uint32
	LowBytes  uint32
}

func (c *ConstantDoubleInfo) Tag() uint8 { return ConstantDouble }
func (c *ConstantDoubleInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	binary.Write(w, binary.BigEndian, c.HighBytes)
	return binary.Write(w, binary.BigEndian, c.LowBytes)
}

// Value 返回 IEEE-754 双精度值
func (c *ConstantDoubleInfo) Value() float64 {
	return math.Float64frombits(uint64(c.HighBytes)<<32 | uint64(c.LowBytes))
}

// ConstantClassInfo 类引用常量
type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() uint8 { return ConstantClass }
func (c *ConstantClassInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	return binary.Write(w, binary.BigEndian, c.NameIndex)
}

// ConstantStringInfo 字符串常量
type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() uint8 { return ConstantString }
func (c *ConstantStringInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	return binary.Write(w, binary.BigEndian, c.StringIndex)
}

// ConstantMemberrefInfo 字段/方法/接口方法引用常量，三者布局相同
type ConstantMemberrefInfo struct {
	Kind             uint8 // ConstantFieldref / ConstantMethodref / ConstantInterfaceMethodref
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMemberrefInfo) Tag() uint8 { return c.Kind }
func (c *ConstantMemberrefInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	binary.Write(w, binary.BigEndian, c.ClassIndex)
	return binary.Write(w, binary.BigEndian, c.NameAndTypeIndex)
}

// ConstantNameAndTypeInfo 名称和类型描述符常量
type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() uint8 { return ConstantNameAndType }
func (c *ConstantNameAndTypeInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	binary.Write(w, binary.BigEndian, c.NameIndex)
	return binary.Write(w, binary.BigEndian, c.DescriptorIndex)
}

// ConstantMethodHandleInfo 方法句柄常量
type ConstantMethodHandleInfo struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() uint8 { return ConstantMethodHandle }
func (c *ConstantMethodHandleInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	binary.Write(w, binary.BigEndian, c.ReferenceKind)
	return binary.Write(w, binary.BigEndian, c.ReferenceIndex)
}

// ConstantMethodTypeInfo 方法类型常量
type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() uint8 { return ConstantMethodType }
func (c *ConstantMethodTypeInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	return binary.Write(w, binary.BigEndian, c.DescriptorIndex)
}

// ConstantInvokeDynamicInfo invokedynamic 调用点常量
type ConstantInvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamicInfo) Tag() uint8 { return ConstantInvokeDynamic }
func (c *ConstantInvokeDynamicInfo) Write(w io.Writer) error {
	binary.Write(w, binary.BigEndian, c.Tag())
	binary.Write(w, binary.BigEndian, c.BootstrapMethodAttrIndex)
	return binary.Write(w, binary.BigEndian, c.NameAndTypeIndex)
}

// ConstantUnusable long/double 之后不可用的占位槽位
type ConstantUnusable struct{}

func (c *ConstantUnusable) Tag() uint8            { return ConstantLargeContinued }
func (c *ConstantUnusable) Write(io.Writer) error { return nil }

// TagName 常量标签的可读名称
func TagName(tag uint8) string {
	switch tag {
	case ConstantUtf8:
		return "CONSTANT_Utf8_info"
	case ConstantInteger:
		return "CONSTANT_Integer_info"
	case ConstantFloat:
		return "CONSTANT_Float_info"
	case ConstantLong:
		return "CONSTANT_Long_info"
	case ConstantDouble:
		return "CONSTANT_Double_info"
	case ConstantClass:
		return "CONSTANT_Class_info"
	case ConstantString:
		return "CONSTANT_String_info"
	case ConstantFieldref:
		return "CONSTANT_Fieldref_info"
	case ConstantMethodref:
		return "CONSTANT_Methodref_info"
	case ConstantInterfaceMethodref:
		return "CONSTANT_InterfaceMethodref_info"
	case ConstantNameAndType:
		return "CONSTANT_NameAndType_info"
	case ConstantMethodHandle:
		return "CONSTANT_MethodHandle_info"
	case ConstantMethodType:
		return "CONSTANT_MethodType_info"
	case ConstantInvokeDynamic:
		return "CONSTANT_InvokeDynamic_info"
	default:
		return "(large numeric continued)"
	}
}
