package classfile

import (
	"fmt"
	"io"
	"strings"
)

// ============================================================================
// 文本打印
// ============================================================================

// Printer 以文本形式打印 class 文件结构
type Printer struct {
	w   io.Writer
	cp  ConstantPool
	err error
}

// NewPrinter 创建打印器
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print 打印整个 class 文件
func (p *Printer) Print(cf *ClassFile) error {
	p.cp = cf.ConstantPool

	p.printf("General Information\n{\n")
	p.printGeneral(cf)
	p.printf("}\n\n")

	p.printf("Constant Pool (Member count: %d)\n{\n", len(cf.ConstantPool))
	p.printConstantPool()
	p.printf("}\n\n")

	p.printf("Interfaces (Member count: %d)\n{\n", len(cf.Interfaces))
	for i, iface := range cf.Interfaces {
		p.printf("\t Interface %d\n", i)
		p.printf("\t\t Interface: \t\t cp_info #%d <%s>\n", iface, p.cp.formatOrMark(iface))
	}
	p.printf("}\n\n")

	p.printf("Fields (Member count: %d)\n{\n", len(cf.Fields))
	for i := range cf.Fields {
		f := &cf.Fields[i]
		p.printMember(i, f.AccessFlags, f.NameIndex, f.DescriptorIndex, f.Attributes)
	}
	p.printf("}\n\n")

	p.printf("Methods (Member count: %d)\n{\n", len(cf.Methods))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		p.printMember(i, m.AccessFlags, m.NameIndex, m.DescriptorIndex, m.Attributes)
	}
	p.printf("}\n\n")

	p.printf("Attributes (Member count: %d)\n{\n", len(cf.Attributes))
	for i := range cf.Attributes {
		p.printAttribute(&cf.Attributes[i], i, 1)
	}
	p.printf("}\n\n")

	return p.err
}

func (p *Printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) tabs(n int) {
	p.printf("%s", strings.Repeat("\t", n))
}

func (p *Printer) printGeneral(cf *ClassFile) {
	p.printf("\t Minor Version: \t\t %d\n", cf.MinorVersion)
	p.printf("\t Major Version: \t\t %d [%s]\n", cf.MajorVersion, FriendlyVersion(cf.MajorVersion))
	p.printf("\t Constant pool count: \t\t %d\n", len(cf.ConstantPool))
	p.printf("\t Access Flags: \t\t\t 0x%04X [%s]\n", cf.AccessFlags, AccessFlagsString(cf.AccessFlags))
	p.printf("\t This class: \t\t\t cp_info #%d <%s>\n", cf.ThisClass, p.cp.formatOrMark(cf.ThisClass))
	if cf.SuperClass == 0 {
		p.printf("\t Super class: \t\t\t none\n")
	} else {
		p.printf("\t Super class: \t\t\t cp_info #%d <%s>\n", cf.SuperClass, p.cp.formatOrMark(cf.SuperClass))
	}
	p.printf("\t Interfaces count: \t\t %d\n", len(cf.Interfaces))
	p.printf("\t Fields count: \t\t\t %d\n", len(cf.Fields))
	p.printf("\t Methods count: \t\t %d\n", len(cf.Methods))
	p.printf("\t Attributes count: \t\t %d\n", len(cf.Attributes))
}

func (p *Printer) printConstantPool() {
	for i := 1; i < len(p.cp); i++ {
		idx := uint16(i)
		entry := p.cp[i]
		if entry == nil {
			continue
		}
		p.printf("\t [%d] %s\n", i, TagName(entry.Tag()))

		switch c := entry.(type) {
		case *ConstantClassInfo:
			p.printf("\t\t Class name: \t\t\t cp_info #%d <%s>\n", c.NameIndex, p.cp.formatOrMark(c.NameIndex))
		case *ConstantMemberrefInfo:
			p.printf("\t\t Class name: \t\t\t cp_info #%d <%s>\n", c.ClassIndex, p.cp.formatOrMark(c.ClassIndex))
			p.printf("\t\t Name and type: \t\t cp_info #%d <%s>\n", c.NameAndTypeIndex, p.cp.formatOrMark(c.NameAndTypeIndex))
		case *ConstantStringInfo:
			p.printf("\t\t String: \t\t\t cp_info #%d <%s>\n", c.StringIndex, p.cp.formatOrMark(c.StringIndex))
		case *ConstantIntegerInfo:
			p.printf("\t\t Bytes: \t\t\t 0x%08X\n", c.Bytes)
			p.printf("\t\t Integer: \t\t\t %s\n", p.cp.formatOrMark(idx))
		case *ConstantFloatInfo:
			p.printf("\t\t Bytes: \t\t\t 0x%08X\n", c.Bytes)
			p.printf("\t\t Float: \t\t\t %s\n", p.cp.formatOrMark(idx))
		case *ConstantLongInfo:
			p.printf("\t\t High Bytes: \t\t\t 0x%08X\n", c.HighBytes)
			p.printf("\t\t Low Bytes: \t\t\t 0x%08X\n", c.LowBytes)
			p.printf("\t\t Long: \t\t\t\t %s\n", p.cp.formatOrMark(idx))
		case *ConstantDoubleInfo:
			p.printf("\t\t High Bytes: \t\t\t 0x%08X\n", c.HighBytes)
			p.printf("\t\t Low Bytes: \t\t\t 0x%08X\n", c.LowBytes)
			p.printf("\t\t Double: \t\t\t %s\n", p.cp.formatOrMark(idx))
		case *ConstantNameAndTypeInfo:
			p.printf("\t\t Name: \t\t\t\t cp_info #%d <%s>\n", c.NameIndex, p.cp.formatOrMark(c.NameIndex))
			p.printf("\t\t Descriptor: \t\t\t cp_info #%d <%s>\n", c.DescriptorIndex, p.cp.formatOrMark(c.DescriptorIndex))
		case *ConstantUtf8Info:
			raw := c.Raw
			if raw == nil {
				raw = EncodeModifiedUTF8(c.Value)
			}
			p.printf("\t\t Length of byte array: \t\t %d\n", len(raw))
			p.printf("\t\t Length of string: \t\t %d\n", UTF16Length(c.Value))
			p.printf("\t\t String: \t\t\t %s\n", c.Value)
		case *ConstantMethodHandleInfo:
			p.printf("\t\t Reference kind: \t\t %d\n", c.ReferenceKind)
			p.printf("\t\t Reference: \t\t\t cp_info #%d <%s>\n", c.ReferenceIndex, p.cp.formatOrMark(c.ReferenceIndex))
		case *ConstantMethodTypeInfo:
			p.printf("\t\t Descriptor: \t\t\t cp_info #%d <%s>\n", c.DescriptorIndex, p.cp.formatOrMark(c.DescriptorIndex))
		case *ConstantInvokeDynamicInfo:
			p.printf("\t\t Bootstrap method: \t\t %d\n", c.BootstrapMethodAttrIndex)
			p.printf("\t\t Name and type: \t\t cp_info #%d <%s>\n", c.NameAndTypeIndex, p.cp.formatOrMark(c.NameAndTypeIndex))
		}
		p.printf("\n")
	}
}

func (p *Printer) printMember(i int, flags, nameIndex, descIndex uint16, attrs []AttributeInfo) {
	name := p.cp.formatOrMark(nameIndex)
	p.printf("\t[%d] %s\n", i, name)
	p.printf("\t{\n")
	p.printf("\t\tName: \t\t cp_info #%d <%s>\n", nameIndex, name)
	p.printf("\t\tDescriptor: \t cp_info #%d <%s>\n", descIndex, p.cp.formatOrMark(descIndex))
	p.printf("\t\tAccess flags: \t 0x%04X [%s]\n", flags, AccessFlagsString(flags))
	p.printf("\t\tAttributes:\n")
	for j := range attrs {
		p.printAttribute(&attrs[j], j, 3)
	}
	p.printf("\t}\n")
}

func (p *Printer) printAttribute(a *AttributeInfo, index, indent int) {
	p.tabs(indent)
	p.printf("[%d] %s\n", index, a.Name)
	p.tabs(indent + 1)
	p.printf("Attribute name index:\t cp_info #%d\n", a.NameIndex)
	p.tabs(indent + 1)
	p.printf("Attribute length:\t %d\n", len(a.Bytes()))

	switch attr := a.Parsed.(type) {
	case *ConstantValueAttribute:
		p.tabs(indent + 1)
		p.printf("Constant value index:\t cp_info #%d <%s>\n", attr.ConstantValueIndex, p.cp.formatOrMark(attr.ConstantValueIndex))

	case *CodeAttribute:
		p.printCode(attr, indent+1)

	case *ExceptionsAttribute:
		p.tabs(indent + 1)
		p.printf("Nr.\t exception\t verbose\n")
		for i, idx := range attr.ExceptionIndexTable {
			p.tabs(indent + 1)
			p.printf("%d\t cp_info #%d\t %s\n", i, idx, p.cp.formatOrMark(idx))
		}

	case *InnerClassesAttribute:
		p.tabs(indent + 1)
		p.printf("Nr.\t inner_class\t outer_class\t inner_name\t access flags\n")
		for i, c := range attr.Classes {
			p.tabs(indent + 1)
			p.printf("%d\t cp_info #%d <%s>\t cp_info #%d <%s>\t cp_info #%d <%s>\t 0x%04X [%s]\n", i,
				c.InnerClassInfoIndex, p.optionalConstant(c.InnerClassInfoIndex),
				c.OuterClassInfoIndex, p.optionalConstant(c.OuterClassInfoIndex),
				c.InnerNameIndex, p.optionalConstant(c.InnerNameIndex),
				c.InnerClassAccessFlags, AccessFlagsString(c.InnerClassAccessFlags))
		}

	case *SourceFileAttribute:
		p.tabs(indent + 1)
		p.printf("Source file name index:\t cp_info #%d <%s>\n", attr.SourceFileIndex, p.cp.formatOrMark(attr.SourceFileIndex))

	case *LineNumberTableAttribute:
		p.tabs(indent + 1)
		p.printf("Nr.\t start_pc\t line_number\n")
		for i, e := range attr.Entries {
			p.tabs(indent + 1)
			p.printf("%d\t %d\t %d\n", i, e.StartPC, e.LineNumber)
		}

	case *LocalVariableTableAttribute:
		p.tabs(indent + 1)
		p.printf("Nr.\t start_pc\t length\t index\t name\t descriptor\n")
		for i, e := range attr.Entries {
			p.tabs(indent + 1)
			p.printf("%d\t %d\t %d\t %d\t cp_info #%d <%s>\t cp_info #%d <%s>\n", i,
				e.StartPC, e.Length, e.Index,
				e.NameIndex, p.cp.formatOrMark(e.NameIndex),
				e.DescriptorIndex, p.cp.formatOrMark(e.DescriptorIndex))
		}

	case *RawAttribute:
		p.tabs(indent + 1)
		p.printf("Unrecognized attribute, %d bytes kept\n", len(attr.Data))
	}
	p.printf("\n")
}

// optionalConstant 索引为 0 时表示缺省
func (p *Printer) optionalConstant(i uint16) string {
	if i == 0 {
		return "none"
	}
	return p.cp.formatOrMark(i)
}

func (p *Printer) printCode(code *CodeAttribute, indent int) {
	p.tabs(indent)
	p.printf("Maximum stack depth:\t %d\n", code.MaxStack)
	p.tabs(indent)
	p.printf("Maximum local variables: %d\n", code.MaxLocals)
	p.tabs(indent)
	p.printf("Code length:\t\t %d\n", len(code.Code))

	p.tabs(indent)
	p.printf("Exception table:\n")
	p.tabs(indent + 1)
	if len(code.ExceptionTable) == 0 {
		p.printf("Exception table is empty.\n")
	} else {
		p.printf("Nr.\t start_pc\t end_pc\t handler_pc\t catch_type\t verbose\n")
		for i, e := range code.ExceptionTable {
			p.tabs(indent + 1)
			p.printf("%d\t %d\t %d\t %d\t ", i, e.StartPC, e.EndPC, e.HandlerPC)
			if e.CatchType == 0 {
				p.printf("0\n")
			} else {
				p.printf("cp_info #%d\t %s\n", e.CatchType, p.cp.formatOrMark(e.CatchType))
			}
		}
	}

	p.tabs(indent)
	p.printf("Bytecode:\n")
	insns, err := Disassemble(code.Code, p.cp)
	line := 1
	for _, in := range insns {
		p.tabs(indent + 1)
		p.printf("%d\t%d\t%s\n", line, in.PC, in.Text)
		line++
		for _, c := range in.Cases {
			p.tabs(indent + 1)
			p.printf("%d\t\t\t%s\n", line, c)
			line++
		}
	}
	if err != nil {
		p.tabs(indent + 1)
		p.printf("Invalid bytecode: %v\n", err)
	}

	p.tabs(indent)
	p.printf("Attributes:\n")
	for i := range code.Attributes {
		p.printAttribute(&code.Attributes[i], i, indent+1)
	}
}

// Print 将 class 文件以文本形式打印到 w
func Print(w io.Writer, cf *ClassFile) error {
	return NewPrinter(w).Print(cf)
}
