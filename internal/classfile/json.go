package classfile

import (
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"
)

// ============================================================================
// JSON 输出
// ============================================================================

type jsonClass struct {
	Magic        string         `json:"magic"`
	MinorVersion uint16         `json:"minor_version"`
	MajorVersion uint16         `json:"major_version"`
	JavaVersion  string         `json:"java_version"`
	AccessFlags  uint16         `json:"access_flags"`
	Flags        string         `json:"flags"`
	ThisClass    string         `json:"this_class"`
	SuperClass   string         `json:"super_class,omitempty"`
	ConstantPool []jsonConstant `json:"constant_pool"`
	Interfaces   []string       `json:"interfaces"`
	Fields       []jsonMember   `json:"fields"`
	Methods      []jsonMember   `json:"methods"`
	Attributes   []jsonAttr     `json:"attributes"`
}

type jsonConstant struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Value string `json:"value,omitempty"`
}

type jsonMember struct {
	Name        string     `json:"name"`
	Descriptor  string     `json:"descriptor"`
	AccessFlags uint16     `json:"access_flags"`
	Flags       string     `json:"flags"`
	Attributes  []jsonAttr `json:"attributes"`
}

type jsonAttr struct {
	Name   string    `json:"name"`
	Length int       `json:"length"`
	Value  string    `json:"value,omitempty"`
	Code   *jsonCode `json:"code,omitempty"`
}

type jsonCode struct {
	MaxStack     uint16     `json:"max_stack"`
	MaxLocals    uint16     `json:"max_locals"`
	Instructions []jsonInsn `json:"instructions"`
	Attributes   []jsonAttr `json:"attributes,omitempty"`
}

type jsonInsn struct {
	PC    int      `json:"pc"`
	Text  string   `json:"text"`
	Cases []string `json:"cases,omitempty"`
}

// WriteJSON 以 JSON 形式输出 class 文件结构
func WriteJSON(w io.Writer, cf *ClassFile) error {
	cp := cf.ConstantPool
	doc := jsonClass{
		Magic:        fmt.Sprintf("0x%08X", cf.Magic),
		MinorVersion: cf.MinorVersion,
		MajorVersion: cf.MajorVersion,
		JavaVersion:  FriendlyVersion(cf.MajorVersion),
		AccessFlags:  cf.AccessFlags,
		Flags:        AccessFlagsString(cf.AccessFlags),
		ThisClass:    cp.formatOrMark(cf.ThisClass),
		Interfaces:   []string{},
	}
	if cf.SuperClass != 0 {
		doc.SuperClass = cp.formatOrMark(cf.SuperClass)
	}

	for i := 1; i < len(cp); i++ {
		if cp[i] == nil {
			continue
		}
		c := jsonConstant{Index: i, Tag: TagName(cp[i].Tag())}
		if cp[i].Tag() != ConstantLargeContinued {
			c.Value = cp.formatOrMark(uint16(i))
		}
		doc.ConstantPool = append(doc.ConstantPool, c)
	}
	for _, iface := range cf.Interfaces {
		doc.Interfaces = append(doc.Interfaces, cp.formatOrMark(iface))
	}
	for i := range cf.Fields {
		f := &cf.Fields[i]
		doc.Fields = append(doc.Fields, jsonMemberOf(cp, f.AccessFlags, f.NameIndex, f.DescriptorIndex, f.Attributes))
	}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		doc.Methods = append(doc.Methods, jsonMemberOf(cp, m.AccessFlags, m.NameIndex, m.DescriptorIndex, m.Attributes))
	}
	doc.Attributes = jsonAttrsOf(cp, cf.Attributes)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func jsonMemberOf(cp ConstantPool, flags, nameIndex, descIndex uint16, attrs []AttributeInfo) jsonMember {
	return jsonMember{
		Name:        cp.formatOrMark(nameIndex),
		Descriptor:  cp.formatOrMark(descIndex),
		AccessFlags: flags,
		Flags:       AccessFlagsString(flags),
		Attributes:  jsonAttrsOf(cp, attrs),
	}
}

func jsonAttrsOf(cp ConstantPool, attrs []AttributeInfo) []jsonAttr {
	out := make([]jsonAttr, 0, len(attrs))
	for i := range attrs {
		a := &attrs[i]
		ja := jsonAttr{Name: a.Name, Length: len(a.Bytes())}
		switch attr := a.Parsed.(type) {
		case *ConstantValueAttribute:
			ja.Value = cp.formatOrMark(attr.ConstantValueIndex)
		case *SourceFileAttribute:
			ja.Value = cp.formatOrMark(attr.SourceFileIndex)
		case *CodeAttribute:
			code := &jsonCode{MaxStack: attr.MaxStack, MaxLocals: attr.MaxLocals}
			insns, _ := Disassemble(attr.Code, cp)
			for _, in := range insns {
				code.Instructions = append(code.Instructions, jsonInsn{PC: in.PC, Text: in.Text, Cases: in.Cases})
			}
			code.Attributes = jsonAttrsOf(cp, attr.Attributes)
			ja.Code = code
		}
		out = append(out, ja)
	}
	return out
}
