package classfile

import (
	"fmt"
	"math"
)

// ============================================================================
// 汇编器
// ============================================================================

// Builder 在内存中组装 class 文件，常量池条目自动去重
type Builder struct {
	cf      *ClassFile
	cpIndex map[string]uint16 // 常量池索引缓存
}

// NewBuilder 创建类构建器，superName 为空表示没有父类
func NewBuilder(className, superName string) *Builder {
	b := &Builder{
		cf: &ClassFile{
			Magic:        ClassFileMagic,
			MajorVersion: DefaultMaxMajorVersion,
			AccessFlags:  AccPublic | AccSuper,
			ConstantPool: ConstantPool{nil},
		},
		cpIndex: make(map[string]uint16),
	}
	b.cf.ThisClass = b.Class(className)
	if superName != "" {
		b.cf.SuperClass = b.Class(superName)
	}
	return b
}

// SetAccessFlags 设置类访问标志
func (b *Builder) SetAccessFlags(flags uint16) *Builder {
	b.cf.AccessFlags = flags
	return b
}

// SetVersion 设置版本号
func (b *Builder) SetVersion(major, minor uint16) *Builder {
	b.cf.MajorVersion = major
	b.cf.MinorVersion = minor
	return b
}

// AddInterface 添加实现的接口
func (b *Builder) AddInterface(name string) *Builder {
	b.cf.Interfaces = append(b.cf.Interfaces, b.Class(name))
	return b
}

// AddField 添加字段
func (b *Builder) AddField(flags uint16, name, descriptor string) *Builder {
	b.cf.Fields = append(b.cf.Fields, FieldInfo{
		AccessFlags:     flags,
		NameIndex:       b.Utf8(name),
		DescriptorIndex: b.Utf8(descriptor),
	})
	return b
}

// AddConstantField 添加带 ConstantValue 属性的字段，valueIndex 为常量池索引
func (b *Builder) AddConstantField(flags uint16, name, descriptor string, valueIndex uint16) *Builder {
	b.AddField(flags, name, descriptor)
	f := &b.cf.Fields[len(b.cf.Fields)-1]
	f.Attributes = append(f.Attributes, b.attribute(&ConstantValueAttribute{ConstantValueIndex: valueIndex}))
	return b
}

// AddMethod 添加带 Code 属性的方法
func (b *Builder) AddMethod(flags uint16, name, descriptor string, maxStack, maxLocals uint16, code []byte) *Builder {
	m := MethodInfo{
		AccessFlags:     flags,
		NameIndex:       b.Utf8(name),
		DescriptorIndex: b.Utf8(descriptor),
	}
	if flags&(AccAbstract) == 0 {
		m.Attributes = append(m.Attributes, b.attribute(&CodeAttribute{
			MaxStack:  maxStack,
			MaxLocals: maxLocals,
			Code:      code,
		}))
	}
	b.cf.Methods = append(b.cf.Methods, m)
	return b
}

// SetSourceFile 设置 SourceFile 属性
func (b *Builder) SetSourceFile(name string) *Builder {
	b.cf.Attributes = append(b.cf.Attributes, b.attribute(&SourceFileAttribute{SourceFileIndex: b.Utf8(name)}))
	return b
}

// Build 返回组装好的 class 文件
func (b *Builder) Build() *ClassFile {
	return b.cf
}

// Bytes 返回序列化后的 class 文件
func (b *Builder) Bytes() ([]byte, error) {
	return b.cf.ToBytes()
}

func (b *Builder) attribute(attr Attribute) AttributeInfo {
	return AttributeInfo{
		NameIndex: b.Utf8(attr.AttributeName()),
		Name:      attr.AttributeName(),
		Parsed:    attr,
	}
}

// ============================================================================
// 常量池辅助方法
// ============================================================================

func (b *Builder) add(key string, entry ConstantPoolEntry) uint16 {
	if idx, ok := b.cpIndex[key]; ok {
		return idx
	}
	idx := uint16(len(b.cf.ConstantPool))
	b.cf.ConstantPool = append(b.cf.ConstantPool, entry)
	if tag := entry.Tag(); tag == ConstantLong || tag == ConstantDouble {
		b.cf.ConstantPool = append(b.cf.ConstantPool, &ConstantUnusable{})
	}
	b.cpIndex[key] = idx
	return idx
}

// Utf8 添加 UTF8 常量
func (b *Builder) Utf8(value string) uint16 {
	return b.add("utf8:"+value, &ConstantUtf8Info{Value: value})
}

// Class 添加类引用
func (b *Builder) Class(name string) uint16 {
	key := "class:" + name
	if idx, ok := b.cpIndex[key]; ok {
		return idx
	}
	return b.add(key, &ConstantClassInfo{NameIndex: b.Utf8(name)})
}

// String 添加字符串常量
func (b *Builder) String(value string) uint16 {
	key := "string:" + value
	if idx, ok := b.cpIndex[key]; ok {
		return idx
	}
	return b.add(key, &ConstantStringInfo{StringIndex: b.Utf8(value)})
}

// Integer 添加 int 常量
func (b *Builder) Integer(v int32) uint16 {
	return b.add(fmt.Sprintf("int:%d", v), IntegerConstant(v))
}

// Float 添加 float 常量
func (b *Builder) Float(v float32) uint16 {
	return b.add(fmt.Sprintf("float:%08x", math.Float32bits(v)), FloatConstant(v))
}

// Long 添加 long 常量
func (b *Builder) Long(v int64) uint16 {
	return b.add(fmt.Sprintf("long:%d", v), LongConstant(v))
}

// Double 添加 double 常量
func (b *Builder) Double(v float64) uint16 {
	return b.add(fmt.Sprintf("double:%016x", math.Float64bits(v)), DoubleConstant(v))
}

// NameAndType 添加名称和类型常量
func (b *Builder) NameAndType(name, descriptor string) uint16 {
	key := "nameandtype:" + name + ":" + descriptor
	if idx, ok := b.cpIndex[key]; ok {
		return idx
	}
	return b.add(key, &ConstantNameAndTypeInfo{NameIndex: b.Utf8(name), DescriptorIndex: b.Utf8(descriptor)})
}

// Fieldref 添加字段引用
func (b *Builder) Fieldref(className, name, descriptor string) uint16 {
	return b.memberref(ConstantFieldref, "fieldref:", className, name, descriptor)
}

// Methodref 添加方法引用
func (b *Builder) Methodref(className, name, descriptor string) uint16 {
	return b.memberref(ConstantMethodref, "methodref:", className, name, descriptor)
}

// InterfaceMethodref 添加接口方法引用
func (b *Builder) InterfaceMethodref(className, name, descriptor string) uint16 {
	return b.memberref(ConstantInterfaceMethodref, "imethodref:", className, name, descriptor)
}

func (b *Builder) memberref(kind uint8, prefix, className, name, descriptor string) uint16 {
	key := prefix + className + "." + name + ":" + descriptor
	if idx, ok := b.cpIndex[key]; ok {
		return idx
	}
	classIdx := b.Class(className)
	natIdx := b.NameAndType(name, descriptor)
	return b.add(key, &ConstantMemberrefInfo{Kind: kind, ClassIndex: classIdx, NameAndTypeIndex: natIdx})
}

// ============================================================================
// 字节码拼装
// ============================================================================

// Asm 字节码拼装器
type Asm struct {
	code []byte
}

// NewAsm 创建字节码拼装器
func NewAsm() *Asm {
	return &Asm{}
}

// Op 写入操作码和单字节操作数
func (a *Asm) Op(op byte, operands ...byte) *Asm {
	a.code = append(a.code, op)
	a.code = append(a.code, operands...)
	return a
}

// OpU16 写入操作码和两字节无符号操作数（常量池索引等）
func (a *Asm) OpU16(op byte, v uint16) *Asm {
	a.code = append(a.code, op, byte(v>>8), byte(v))
	return a
}

// OpS16 写入操作码和两字节有符号操作数（分支偏移、sipush）
func (a *Asm) OpS16(op byte, v int16) *Asm {
	return a.OpU16(op, uint16(v))
}

// U16 写入两字节
func (a *Asm) U16(v uint16) *Asm {
	a.code = append(a.code, byte(v>>8), byte(v))
	return a
}

// S32 写入四字节有符号值
func (a *Asm) S32(v int32) *Asm {
	u := uint32(v)
	a.code = append(a.code, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
	return a
}

// Align 写入 switch 指令的对齐填充，须紧跟在 switch 操作码之后调用
func (a *Asm) Align() *Asm {
	for len(a.code)%4 != 0 {
		a.code = append(a.code, 0)
	}
	return a
}

// PatchS16 回填 at 处操作码的两字节分支偏移，目标为当前位置
func (a *Asm) PatchS16(at int) *Asm {
	off := uint16(int16(len(a.code) - at))
	a.code[at+1] = byte(off >> 8)
	a.code[at+2] = byte(off)
	return a
}

// Pos 当前偏移
func (a *Asm) Pos() int {
	return len(a.code)
}

// Bytes 返回字节码
func (a *Asm) Bytes() []byte {
	return a.code
}
