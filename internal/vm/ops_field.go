package vm

import (
	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
	"github.com/tangzhangming/javm/internal/loader"
)

// System.out 的字段引用：读取它不产生任何值，print/println 由原生方法实现
const (
	systemClass       = "java/lang/System"
	printStreamFieldT = "Ljava/io/PrintStream;"
)

// ============================================================================
// 静态字段
// ============================================================================

// resolveStatic 解析静态字段的声明类。加载或超类遍历压入了 <clinit> 时返回 false，
// 此时尚未修改操作数栈，指令在初始化完成后重新执行。
func (vm *VM) resolveStatic(ref *memberRef) (*ClassRuntime, bool) {
	if loader.IsLibraryClass(ref.class) {
		vm.throw(errors.R0306, ref.class, ref.name, ref.descriptor)
	}
	cls, ok := vm.loadClass(ref.class)
	if !ok {
		return nil, false
	}
	owner, status, err := vm.area.ResolveStaticField(cls, ref.name)
	vm.must(err)
	if status == Deferred {
		vm.deferred(ref.class)
		return nil, false
	}
	return owner, true
}

// staticValue 读取静态字段；static final 字段首次访问时以 ConstantValue（或默认值）物化
func (vm *VM) staticValue(owner *ClassRuntime, name string) Value {
	if v, ok := owner.StaticField(name); ok {
		return v
	}
	decl, ok := owner.staticFinal(name)
	if !ok {
		vm.throw(errors.R0304, owner.Name(), name)
	}
	v := vm.constantValue(owner, decl)
	owner.SetStaticField(name, v)
	return v
}

// constantValue 计算 static final 字段的初始值
func (vm *VM) constantValue(owner *ClassRuntime, decl fieldDecl) Value {
	kind := decl.descriptor[0]
	cv := decl.info.ConstantValue()
	if cv == nil {
		return DefaultValue(kind)
	}
	cp := owner.ConstantPool()
	entry, err := cp.Entry(cv.ConstantValueIndex)
	vm.must(err)
	switch c := entry.(type) {
	case *classfile.ConstantIntegerInfo:
		return IntValue(c.Value()).Coerce(kind)
	case *classfile.ConstantFloatInfo:
		return FloatValue(c.Value())
	case *classfile.ConstantLongInfo:
		return LongValue(c.Value())
	case *classfile.ConstantDoubleInfo:
		return DoubleValue(c.Value())
	case *classfile.ConstantStringInfo:
		s, err := cp.Utf8(c.StringIndex)
		vm.must(err)
		return vm.newString(s)
	default:
		vm.internal("field %s.%s has an unusable ConstantValue %s", owner.Name(), decl.name, classfile.TagName(entry.Tag()))
		return Value{}
	}
}

// opGetstatic 读取静态字段：窄类型以 int 存储并保留显示类型，宽类型先压入占位槽位
func opGetstatic(vm *VM) {
	ref, err := vm.refs.lookup(vm.frame().Class(), vm.u16(1), false)
	vm.must(err)
	if ref.class == systemClass && ref.descriptor == printStreamFieldT {
		vm.advance(3)
		return
	}
	owner, ok := vm.resolveStatic(ref)
	if !ok {
		return
	}
	vm.pushValue(vm.staticValue(owner, ref.name).Widen())
	vm.advance(3)
}

// opPutstatic 写入静态字段，值先转换为字段声明的窄类型
func opPutstatic(vm *VM) {
	ref, err := vm.refs.lookup(vm.frame().Class(), vm.u16(1), false)
	vm.must(err)
	owner, ok := vm.resolveStatic(ref)
	if !ok {
		return
	}
	v := vm.popValue(ref.field)
	owner.SetStaticField(ref.name, v.Coerce(ref.field.Kind()))
	vm.advance(3)
}

// ============================================================================
// 实例字段
// ============================================================================

func opGetfield(vm *VM) {
	ref, err := vm.refs.lookup(vm.frame().Class(), vm.u16(1), false)
	vm.must(err)
	inst := vm.instanceOf(vm.popRef(), "read field "+ref.name)
	v, ok := inst.Field(ref.name)
	if !ok {
		vm.fatal(errors.NewRuntimeError(errors.R0304, ref.class, ref.name).With("class", ref.class).WithHints())
	}
	vm.pushValue(v.Widen())
	vm.advance(3)
}

func opPutfield(vm *VM) {
	ref, err := vm.refs.lookup(vm.frame().Class(), vm.u16(1), false)
	vm.must(err)
	v := vm.popValue(ref.field)
	inst := vm.instanceOf(vm.popRef(), "write field "+ref.name)
	inst.SetField(ref.name, v.Coerce(ref.field.Kind()))
	vm.advance(3)
}
