package classfile

// ============================================================================
// 属性
// ============================================================================

// 已知属性名
const (
	AttrCode               = "Code"
	AttrConstantValue      = "ConstantValue"
	AttrExceptions         = "Exceptions"
	AttrInnerClasses       = "InnerClasses"
	AttrSourceFile         = "SourceFile"
	AttrLineNumberTable    = "LineNumberTable"
	AttrLocalVariableTable = "LocalVariableTable"
	AttrSynthetic          = "Synthetic"
	AttrDeprecated         = "Deprecated"
)

// AttributeInfo 属性表条目
type AttributeInfo struct {
	NameIndex uint16
	Name      string    // 从常量池解析出的属性名
	Info      []byte    // 原始内容，为 nil 时写出 Parsed.Encode()
	Parsed    Attribute // 解码后的属性；未知属性为 *RawAttribute
}

// Attribute 已解码的属性
type Attribute interface {
	AttributeName() string
	Encode() []byte
}

// Bytes 返回属性内容
func (a *AttributeInfo) Bytes() []byte {
	if a.Info == nil && a.Parsed != nil {
		return a.Parsed.Encode()
	}
	return a.Info
}

// CodeAttribute 方法体
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

// ExceptionTableEntry 异常表条目
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 表示 finally
}

func (c *CodeAttribute) AttributeName() string { return AttrCode }

func (c *CodeAttribute) Encode() []byte {
	w := NewByteWriter()
	w.WriteU16(c.MaxStack)
	w.WriteU16(c.MaxLocals)
	w.WriteU32(uint32(len(c.Code)))
	w.WriteBytes(c.Code)
	w.WriteU16(uint16(len(c.ExceptionTable)))
	for _, e := range c.ExceptionTable {
		w.WriteU16(e.StartPC)
		w.WriteU16(e.EndPC)
		w.WriteU16(e.HandlerPC)
		w.WriteU16(e.CatchType)
	}
	writeAttributes(w, c.Attributes)
	return w.Bytes()
}

// LineNumber 返回 pc 对应的源码行号，没有行号表时返回 0
func (c *CodeAttribute) LineNumber(pc int) int {
	line := 0
	for i := range c.Attributes {
		table, ok := c.Attributes[i].Parsed.(*LineNumberTableAttribute)
		if !ok {
			continue
		}
		best := -1
		for _, e := range table.Entries {
			if int(e.StartPC) <= pc && int(e.StartPC) > best {
				best = int(e.StartPC)
				line = int(e.LineNumber)
			}
		}
	}
	return line
}

// ConstantValueAttribute 字段常量值
type ConstantValueAttribute struct {
	ConstantValueIndex uint16
}

func (c *ConstantValueAttribute) AttributeName() string { return AttrConstantValue }

func (c *ConstantValueAttribute) Encode() []byte {
	w := NewByteWriter()
	w.WriteU16(c.ConstantValueIndex)
	return w.Bytes()
}

// ExceptionsAttribute 方法声明抛出的异常
type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

func (e *ExceptionsAttribute) AttributeName() string { return AttrExceptions }

func (e *ExceptionsAttribute) Encode() []byte {
	w := NewByteWriter()
	w.WriteU16(uint16(len(e.ExceptionIndexTable)))
	for _, idx := range e.ExceptionIndexTable {
		w.WriteU16(idx)
	}
	return w.Bytes()
}

// InnerClassesAttribute 内部类表
type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

// InnerClassEntry 内部类条目
type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags uint16
}

func (a *InnerClassesAttribute) AttributeName() string { return AttrInnerClasses }

func (a *InnerClassesAttribute) Encode() []byte {
	w := NewByteWriter()
	w.WriteU16(uint16(len(a.Classes)))
	for _, c := range a.Classes {
		w.WriteU16(c.InnerClassInfoIndex)
		w.WriteU16(c.OuterClassInfoIndex)
		w.WriteU16(c.InnerNameIndex)
		w.WriteU16(c.InnerClassAccessFlags)
	}
	return w.Bytes()
}

// SourceFileAttribute 源文件名
type SourceFileAttribute struct {
	SourceFileIndex uint16
}

func (s *SourceFileAttribute) AttributeName() string { return AttrSourceFile }

func (s *SourceFileAttribute) Encode() []byte {
	w := NewByteWriter()
	w.WriteU16(s.SourceFileIndex)
	return w.Bytes()
}

// LineNumberTableAttribute 行号表
type LineNumberTableAttribute struct {
	Entries []LineNumberEntry
}

// LineNumberEntry 行号表条目
type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

func (l *LineNumberTableAttribute) AttributeName() string { return AttrLineNumberTable }

func (l *LineNumberTableAttribute) Encode() []byte {
	w := NewByteWriter()
	w.WriteU16(uint16(len(l.Entries)))
	for _, e := range l.Entries {
		w.WriteU16(e.StartPC)
		w.WriteU16(e.LineNumber)
	}
	return w.Bytes()
}

// LocalVariableTableAttribute 局部变量表
type LocalVariableTableAttribute struct {
	Entries []LocalVariableEntry
}

// LocalVariableEntry 局部变量表条目
type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

func (l *LocalVariableTableAttribute) AttributeName() string { return AttrLocalVariableTable }

func (l *LocalVariableTableAttribute) Encode() []byte {
	w := NewByteWriter()
	w.WriteU16(uint16(len(l.Entries)))
	for _, e := range l.Entries {
		w.WriteU16(e.StartPC)
		w.WriteU16(e.Length)
		w.WriteU16(e.NameIndex)
		w.WriteU16(e.DescriptorIndex)
		w.WriteU16(e.Index)
	}
	return w.Bytes()
}

// SyntheticAttribute 编译器生成标记
type SyntheticAttribute struct{}

func (SyntheticAttribute) AttributeName() string { return AttrSynthetic }
func (SyntheticAttribute) Encode() []byte        { return []byte{} }

// DeprecatedAttribute 废弃标记
type DeprecatedAttribute struct{}

func (DeprecatedAttribute) AttributeName() string { return AttrDeprecated }
func (DeprecatedAttribute) Encode() []byte        { return []byte{} }

// RawAttribute 未识别的属性，按原样保留
type RawAttribute struct {
	Name string
	Data []byte
}

func (r *RawAttribute) AttributeName() string { return r.Name }
func (r *RawAttribute) Encode() []byte        { return r.Data }

// ============================================================================
// 解码
// ============================================================================

// decodeAttribute 按属性名解码内容
func decodeAttribute(name string, info []byte, cp ConstantPool) (Attribute, error) {
	r := NewByteReader(info)
	var attr Attribute

	switch name {
	case AttrCode:
		code := &CodeAttribute{}
		code.MaxStack = r.ReadU16()
		code.MaxLocals = r.ReadU16()
		code.Code = r.ReadBytes(int(r.ReadU32()))
		n := int(r.ReadU16())
		for i := 0; i < n && r.Err() == nil; i++ {
			code.ExceptionTable = append(code.ExceptionTable, ExceptionTableEntry{
				StartPC:   r.ReadU16(),
				EndPC:     r.ReadU16(),
				HandlerPC: r.ReadU16(),
				CatchType: r.ReadU16(),
			})
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		attrs, err := readAttributes(r, cp)
		if err != nil {
			return nil, err
		}
		code.Attributes = attrs
		attr = code

	case AttrConstantValue:
		attr = &ConstantValueAttribute{ConstantValueIndex: r.ReadU16()}

	case AttrExceptions:
		ex := &ExceptionsAttribute{}
		n := int(r.ReadU16())
		for i := 0; i < n && r.Err() == nil; i++ {
			ex.ExceptionIndexTable = append(ex.ExceptionIndexTable, r.ReadU16())
		}
		attr = ex

	case AttrInnerClasses:
		ic := &InnerClassesAttribute{}
		n := int(r.ReadU16())
		for i := 0; i < n && r.Err() == nil; i++ {
			ic.Classes = append(ic.Classes, InnerClassEntry{
				InnerClassInfoIndex:   r.ReadU16(),
				OuterClassInfoIndex:   r.ReadU16(),
				InnerNameIndex:        r.ReadU16(),
				InnerClassAccessFlags: r.ReadU16(),
			})
		}
		attr = ic

	case AttrSourceFile:
		attr = &SourceFileAttribute{SourceFileIndex: r.ReadU16()}

	case AttrLineNumberTable:
		lt := &LineNumberTableAttribute{}
		n := int(r.ReadU16())
		for i := 0; i < n && r.Err() == nil; i++ {
			lt.Entries = append(lt.Entries, LineNumberEntry{StartPC: r.ReadU16(), LineNumber: r.ReadU16()})
		}
		attr = lt

	case AttrLocalVariableTable:
		lv := &LocalVariableTableAttribute{}
		n := int(r.ReadU16())
		for i := 0; i < n && r.Err() == nil; i++ {
			lv.Entries = append(lv.Entries, LocalVariableEntry{
				StartPC:         r.ReadU16(),
				Length:          r.ReadU16(),
				NameIndex:       r.ReadU16(),
				DescriptorIndex: r.ReadU16(),
				Index:           r.ReadU16(),
			})
		}
		attr = lv

	case AttrSynthetic:
		attr = SyntheticAttribute{}

	case AttrDeprecated:
		attr = DeprecatedAttribute{}

	default:
		attr = &RawAttribute{Name: name, Data: info}
	}

	if r.Err() != nil {
		return nil, r.Err()
	}
	return attr, nil
}

// readAttributes 读取 attributes_count 及其后的属性表
func readAttributes(r *ByteReader, cp ConstantPool) ([]AttributeInfo, error) {
	count := int(r.ReadU16())
	if r.Err() != nil {
		return nil, r.Err()
	}
	attrs := make([]AttributeInfo, 0, count)
	for i := 0; i < count; i++ {
		nameIndex := r.ReadU16()
		info := r.ReadBytes(int(r.ReadU32()))
		if r.Err() != nil {
			return nil, r.Err()
		}
		name, err := cp.Utf8(nameIndex)
		if err != nil {
			return nil, err
		}
		parsed, err := decodeAttribute(name, info, cp)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, AttributeInfo{NameIndex: nameIndex, Name: name, Info: info, Parsed: parsed})
	}
	return attrs, nil
}
