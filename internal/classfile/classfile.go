// Package classfile 实现 JVM class 文件的数据模型、解析、格式化与汇编
package classfile

import (
	"bytes"
	"fmt"
	"io"
)

// Class 文件常量
const (
	ClassFileMagic         = 0xCAFEBABE
	DefaultMaxMajorVersion = 52 // Java 8
	MinMajorVersion        = 45
)

// 常量池标签
const (
	ConstantLargeContinued     = 0 // long/double 占用的第二个槽位
	ConstantUtf8               = 1
	ConstantInteger            = 3
	ConstantFloat              = 4
	ConstantLong               = 5
	ConstantDouble             = 6
	ConstantClass              = 7
	ConstantString             = 8
	ConstantFieldref           = 9
	ConstantMethodref          = 10
	ConstantInterfaceMethodref = 11
	ConstantNameAndType        = 12
	ConstantMethodHandle       = 15
	ConstantMethodType         = 16
	ConstantInvokeDynamic      = 18
)

// 访问标志
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccVolatile   = 0x0040
	AccTransient  = 0x0080
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
)

// ClassFile JVM class 文件结构
type ClassFile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo
}

// FieldInfo 字段信息
type FieldInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// MethodInfo 方法信息
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// IsStatic 是否为静态字段
func (f *FieldInfo) IsStatic() bool { return f.AccessFlags&AccStatic != 0 }

// IsFinal 是否为 final 字段
func (f *FieldInfo) IsFinal() bool { return f.AccessFlags&AccFinal != 0 }

// IsStatic 是否为静态方法
func (m *MethodInfo) IsStatic() bool { return m.AccessFlags&AccStatic != 0 }

// Code 返回方法的 Code 属性，抽象/native 方法返回 nil
func (m *MethodInfo) Code() *CodeAttribute {
	for i := range m.Attributes {
		if code, ok := m.Attributes[i].Parsed.(*CodeAttribute); ok {
			return code
		}
	}
	return nil
}

// Exceptions 返回方法的 Exceptions 属性
func (m *MethodInfo) Exceptions() *ExceptionsAttribute {
	for i := range m.Attributes {
		if ex, ok := m.Attributes[i].Parsed.(*ExceptionsAttribute); ok {
			return ex
		}
	}
	return nil
}

// ConstantValue 返回字段的 ConstantValue 属性
func (f *FieldInfo) ConstantValue() *ConstantValueAttribute {
	for i := range f.Attributes {
		if cv, ok := f.Attributes[i].Parsed.(*ConstantValueAttribute); ok {
			return cv
		}
	}
	return nil
}

// ============================================================================
// 查询
// ============================================================================

// Name 返回 this_class 的类名
func (cf *ClassFile) Name() (string, error) {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

// SuperName 返回父类名，没有父类时返回空字符串
func (cf *ClassFile) SuperName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.ConstantPool.ClassName(cf.SuperClass)
}

// FieldName 返回字段名与描述符
func (cf *ClassFile) FieldName(f *FieldInfo) (name, descriptor string, err error) {
	if name, err = cf.ConstantPool.Utf8(f.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cf.ConstantPool.Utf8(f.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// MethodName 返回方法名与描述符
func (cf *ClassFile) MethodName(m *MethodInfo) (name, descriptor string, err error) {
	if name, err = cf.ConstantPool.Utf8(m.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cf.ConstantPool.Utf8(m.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// FindMethod 按名称和描述符查找本类声明的方法
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		n, d, err := cf.MethodName(&cf.Methods[i])
		if err == nil && n == name && d == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

// FindField 按名称查找本类声明的字段
func (cf *ClassFile) FindField(name string) *FieldInfo {
	for i := range cf.Fields {
		n, _, err := cf.FieldName(&cf.Fields[i])
		if err == nil && n == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

// SourceFile 返回 SourceFile 属性中的文件名
func (cf *ClassFile) SourceFile() string {
	for i := range cf.Attributes {
		if sf, ok := cf.Attributes[i].Parsed.(*SourceFileAttribute); ok {
			name, _ := cf.ConstantPool.Utf8(sf.SourceFileIndex)
			return name
		}
	}
	return ""
}

// ============================================================================
// 写出
// ============================================================================

// Write 将 class 文件写入 io.Writer
func (cf *ClassFile) Write(w io.Writer) error {
	bw := NewByteWriter()
	bw.WriteU32(cf.Magic)
	bw.WriteU16(cf.MinorVersion)
	bw.WriteU16(cf.MajorVersion)

	bw.WriteU16(uint16(len(cf.ConstantPool)))
	for i := 1; i < len(cf.ConstantPool); i++ {
		entry := cf.ConstantPool[i]
		if entry == nil || entry.Tag() == ConstantLargeContinued {
			continue
		}
		if err := entry.Write(bw); err != nil {
			return fmt.Errorf("failed to write constant #%d: %w", i, err)
		}
	}

	bw.WriteU16(cf.AccessFlags)
	bw.WriteU16(cf.ThisClass)
	bw.WriteU16(cf.SuperClass)

	bw.WriteU16(uint16(len(cf.Interfaces)))
	for _, iface := range cf.Interfaces {
		bw.WriteU16(iface)
	}

	bw.WriteU16(uint16(len(cf.Fields)))
	for _, f := range cf.Fields {
		writeMember(bw, f.AccessFlags, f.NameIndex, f.DescriptorIndex, f.Attributes)
	}

	bw.WriteU16(uint16(len(cf.Methods)))
	for _, m := range cf.Methods {
		writeMember(bw, m.AccessFlags, m.NameIndex, m.DescriptorIndex, m.Attributes)
	}

	writeAttributes(bw, cf.Attributes)

	_, err := w.Write(bw.Bytes())
	return err
}

// ToBytes 将 class 文件转换为字节数组
func (cf *ClassFile) ToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := cf.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeMember(bw *ByteWriter, flags, name, desc uint16, attrs []AttributeInfo) {
	bw.WriteU16(flags)
	bw.WriteU16(name)
	bw.WriteU16(desc)
	writeAttributes(bw, attrs)
}

func writeAttributes(bw *ByteWriter, attrs []AttributeInfo) {
	bw.WriteU16(uint16(len(attrs)))
	for i := range attrs {
		data := attrs[i].Bytes()
		bw.WriteU16(attrs[i].NameIndex)
		bw.WriteU32(uint32(len(data)))
		bw.WriteBytes(data)
	}
}
