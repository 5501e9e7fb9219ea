package vm

import (
	"fmt"

	"github.com/tangzhangming/javm/internal/classfile"
)

// fieldDecl 已解析名称的字段声明
type fieldDecl struct {
	name       string
	descriptor string
	info       *classfile.FieldInfo
}

// ClassRuntime 已加载类的运行时状态：解析后的 class 结构与静态字段表
type ClassRuntime struct {
	name       string
	superName  string
	interfaces []string
	file       *classfile.ClassFile

	statics        map[string]Value     // 非 final 静态字段，加载时即创建
	staticFinals   map[string]fieldDecl // static final 字段，首次访问时物化
	instanceFields []fieldDecl          // 非静态、非 final 字段
}

// NewClassRuntime 包装 class 结构并以默认值创建非 final 静态字段
func NewClassRuntime(cf *classfile.ClassFile) (*ClassRuntime, error) {
	name, err := cf.Name()
	if err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	superName, err := cf.SuperName()
	if err != nil {
		return nil, fmt.Errorf("%s: super_class: %w", name, err)
	}
	cls := &ClassRuntime{
		name:         name,
		superName:    superName,
		file:         cf,
		statics:      make(map[string]Value),
		staticFinals: make(map[string]fieldDecl),
	}
	for _, idx := range cf.Interfaces {
		iface, err := cf.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, fmt.Errorf("%s: interfaces: %w", name, err)
		}
		cls.interfaces = append(cls.interfaces, iface)
	}
	for i := range cf.Fields {
		f := &cf.Fields[i]
		fname, desc, err := cf.FieldName(f)
		if err != nil {
			return nil, fmt.Errorf("%s: field #%d: %w", name, i, err)
		}
		decl := fieldDecl{name: fname, descriptor: desc, info: f}
		switch {
		case f.IsStatic() && f.IsFinal():
			cls.staticFinals[fname] = decl
		case f.IsStatic():
			cls.statics[fname] = DefaultValue(desc[0])
		case !f.IsFinal():
			cls.instanceFields = append(cls.instanceFields, decl)
		}
	}
	return cls, nil
}

// Name 类名 (a/b/C)
func (c *ClassRuntime) Name() string { return c.name }

// SuperName 父类名，java/lang/Object 的父类为空
func (c *ClassRuntime) SuperName() string { return c.superName }

// Interfaces 直接实现的接口名
func (c *ClassRuntime) Interfaces() []string { return c.interfaces }

// File 解析后的 class 结构
func (c *ClassRuntime) File() *classfile.ClassFile { return c.file }

// ConstantPool 常量池
func (c *ClassRuntime) ConstantPool() classfile.ConstantPool { return c.file.ConstantPool }

// IsAbstract 抽象类或接口
func (c *ClassRuntime) IsAbstract() bool {
	return c.file.AccessFlags&(classfile.AccAbstract|classfile.AccInterface) != 0
}

// IsInterface 是否为接口
func (c *ClassRuntime) IsInterface() bool {
	return c.file.AccessFlags&classfile.AccInterface != 0
}

// DeclaredMethod 本类声明的方法
func (c *ClassRuntime) DeclaredMethod(name, descriptor string) *classfile.MethodInfo {
	return c.file.FindMethod(name, descriptor)
}

// HasStaticField 本类是否声明了该静态字段（含 static final）
func (c *ClassRuntime) HasStaticField(name string) bool {
	if _, ok := c.statics[name]; ok {
		return true
	}
	_, ok := c.staticFinals[name]
	return ok
}

// StaticField 读取已物化的静态字段
func (c *ClassRuntime) StaticField(name string) (Value, bool) {
	v, ok := c.statics[name]
	return v, ok
}

// SetStaticField 写入静态字段
func (c *ClassRuntime) SetStaticField(name string, v Value) {
	c.statics[name] = v
}

// staticFinal 未物化的 static final 字段声明
func (c *ClassRuntime) staticFinal(name string) (fieldDecl, bool) {
	d, ok := c.staticFinals[name]
	return d, ok
}

// SourceFile SourceFile 属性
func (c *ClassRuntime) SourceFile() string { return c.file.SourceFile() }

// Implements 本类是否直接声明实现该接口
func (c *ClassRuntime) Implements(iface string) bool {
	for _, name := range c.interfaces {
		if name == iface {
			return true
		}
	}
	return false
}
