package vm

import (
	"fmt"
	"strconv"
	"unicode/utf16"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 库方法
// ============================================================================
//
// java/ 下的类从不加载，对它们的调用按 "类.方法名" 查表，由下面的原生实现
// 自行弹出实参与接收者。System.out 的读取不压入任何值，因此 print/println
// 没有接收者。

// NativeMethod 原生方法实现
type NativeMethod func(vm *VM, ref *memberRef)

var natives = map[string]NativeMethod{
	"java/io/PrintStream.println":      nativePrintln,
	"java/io/PrintStream.print":        nativePrint,
	"java/lang/Object.<init>":          nativeObjectInit,
	"java/lang/Object.registerNatives": nativeNoOp,
	"java/lang/String.<init>":          nativeStringInit,
	"java/lang/String.equals":          nativeStringEquals,
	"java/lang/String.length":          nativeStringLength,
	"java/lang/String.charAt":          nativeStringCharAt,
}

// invokeNative 执行库方法，未实现时抛出 UnsatisfiedLinkError
func (vm *VM) invokeNative(ref *memberRef) {
	fn, ok := natives[ref.key()]
	if !ok {
		vm.fatal(errors.NewRuntimeError(errors.R0306, ref.class, ref.name, ref.descriptor).WithHints())
	}
	fn(vm, ref)
}

// nativeArgs 弹出原生方法的实参，宽类型只保留值本身
func (vm *VM) nativeArgs(ref *memberRef) []Value {
	args := make([]Value, len(ref.method.Parameters))
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = vm.popValue(ref.method.Parameters[i])
	}
	return args
}

// pushResult 按返回类型压入结果
func (vm *VM) pushResult(ref *memberRef, v Value) {
	if ref.method.IsVoid() {
		return
	}
	vm.pushValue(v.Coerce(ref.method.Return.Kind()).Widen())
}

// ============================================================================
// PrintStream
// ============================================================================

func nativePrintln(vm *VM, ref *memberRef) {
	vm.print(ref)
	vm.out.WriteByte('\n')
}

func nativePrint(vm *VM, ref *memberRef) {
	vm.print(ref)
}

// print 输出唯一的实参；无参的 println() 只输出换行
func (vm *VM) print(ref *memberRef) {
	args := vm.nativeArgs(ref)
	if len(args) == 0 {
		return
	}
	if len(args) > 1 {
		vm.fatal(errors.NewRuntimeError(errors.R0306, ref.class, ref.name, ref.descriptor).WithHints())
	}
	vm.out.WriteString(vm.format(args[0], ref.method.Parameters[0]))
}

// format 生成打印文本。参数描述符为 Z/C 时按描述符，否则按值的显示类型
func (vm *VM) format(v Value, t classfile.FieldType) string {
	switch t.Kind() {
	case 'Z':
		return formatBool(v.Int())
	case 'C':
		return formatChar(v.Int())
	case '[', 'L':
		return vm.formatRef(v, t)
	}

	switch v.Type {
	case TypeInt:
		switch v.PrintType {
		case TypeBoolean:
			return formatBool(v.Int())
		case TypeChar:
			return formatChar(v.Int())
		}
		return strconv.FormatInt(int64(v.Int()), 10)
	case TypeLong:
		return strconv.FormatInt(v.Long(), 10)
	case TypeFloat:
		return fmt.Sprintf("%f", v.Float())
	case TypeDouble:
		return fmt.Sprintf("%f", v.Double())
	default:
		vm.internal("cannot print a %s value", v.Type)
		return ""
	}
}

func formatBool(v int32) string {
	if v != 0 {
		return "true"
	}
	return "false"
}

func formatChar(v int32) string {
	return string(utf16.Decode([]uint16{uint16(v)}))
}

// formatRef 字符串输出内容，char[] 输出字符，其余对象输出 类名@引用
func (vm *VM) formatRef(v Value, t classfile.FieldType) string {
	vm.expect(v, TypeReference)
	obj := vm.heap.Get(v.Ref())
	if obj == nil {
		return "null"
	}
	switch o := obj.(type) {
	case *StringObject:
		return o.Value()
	case *ArrayObject:
		if t.Descriptor == "[C" {
			units := make([]uint16, o.Len())
			for i := range units {
				units[i] = uint16(o.Get(i).Int())
			}
			return string(utf16.Decode(units))
		}
		return fmt.Sprintf("[%c@%x", descriptorOf(o.ElementType()), uint32(v.Ref()))
	case *ClassInstance:
		return fmt.Sprintf("%s@%x", o.Class().Name(), uint32(v.Ref()))
	default:
		vm.internal("cannot print object %T", obj)
		return ""
	}
}

// ============================================================================
// Object / String
// ============================================================================

// nativeNoOp Object.registerNatives()V 等静态方法，不做任何事
func nativeNoOp(vm *VM, ref *memberRef) {
	vm.nativeArgs(ref)
}

// nativeObjectInit Object.<init>()V 只弹出接收者
func nativeObjectInit(vm *VM, ref *memberRef) {
	vm.nativeArgs(ref)
	vm.popRef()
}

// nativeStringInit String.<init>：()V 得到空串，(String)V 复制内容，([C)V 由字符数组构造
func nativeStringInit(vm *VM, ref *memberRef) {
	args := vm.nativeArgs(ref)
	s := vm.stringOf(vm.popRef(), "construct a string")
	switch ref.descriptor {
	case "()V":
	case "(Ljava/lang/String;)V":
		s.SetValue(vm.stringOf(args[0], "copy a string").Value())
	case "([C)V":
		s.SetValue(vm.formatRef(args[0], ref.method.Parameters[0]))
	default:
		vm.fatal(errors.NewRuntimeError(errors.R0306, ref.class, ref.name, ref.descriptor).WithHints())
	}
}

// nativeStringEquals 参数为 null 或不是字符串时为 false
func nativeStringEquals(vm *VM, ref *memberRef) {
	args := vm.nativeArgs(ref)
	s := vm.stringOf(vm.popRef(), "call String.equals")
	equal := int32(0)
	if other, ok := vm.heap.Get(args[0].Ref()).(*StringObject); ok && other.Value() == s.Value() {
		equal = 1
	}
	vm.pushResult(ref, NarrowValue(TypeBoolean, equal))
}

// nativeStringLength 以 UTF-16 代码单元计数
func nativeStringLength(vm *VM, ref *memberRef) {
	s := vm.stringOf(vm.popRef(), "call String.length")
	vm.pushResult(ref, IntValue(int32(classfile.UTF16Length(s.Value()))))
}

func nativeStringCharAt(vm *VM, ref *memberRef) {
	args := vm.nativeArgs(ref)
	s := vm.stringOf(vm.popRef(), "call String.charAt")
	units := utf16.Encode([]rune(s.Value()))
	idx := args[0].Int()
	if idx < 0 || int(idx) >= len(units) {
		vm.fatal(errors.NewRuntimeError(errors.R0100, idx, len(units)).
			With("index", int(idx)).With("length", len(units)).WithHints())
	}
	vm.pushResult(ref, NarrowValue(TypeChar, int32(units[idx])))
}
