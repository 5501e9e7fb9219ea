package vm

import (
	"github.com/tangzhangming/javm/internal/errors"
	"github.com/tangzhangming/javm/internal/loader"
)

// ============================================================================
// 方法调用
// ============================================================================
//
// 调用协议：先备份操作数栈，再按描述符弹出实参（宽类型连同占位槽位）和接收者，
// 然后加载目标类并解析方法。任何一步压入了 <clinit> 帧时恢复备份并返回，
// 不前进 pc，指令在初始化完成后重新执行。解析成功后先前进调用者的 pc，再压入新帧。

// methodRef 读取 pc+1 处的方法引用
func (vm *VM) methodRef() *memberRef {
	ref, err := vm.refs.lookup(vm.frame().Class(), vm.u16(1), true)
	vm.must(err)
	return ref
}

// popArgs 按描述符弹出实参，返回的切片从 offset 开始依次为各参数槽位，
// long/double 占两个槽位 (值, 占位)，与局部变量表布局一致
func (vm *VM) popArgs(ref *memberRef, offset int) []Value {
	f := vm.frame()
	args := getArgs(offset + ref.method.ArgSlots())
	pos := len(args)
	for i := len(ref.method.Parameters) - 1; i >= 0; i-- {
		if ref.method.Parameters[i].IsWide() {
			pos -= 2
			args[pos] = f.PopWide()
			args[pos+1] = PaddingValue()
		} else {
			pos--
			args[pos] = f.Pop()
		}
	}
	return args
}

// popReceiverAndArgs 弹出实参与接收者，接收者放在 args[0]
func (vm *VM) popReceiverAndArgs(ref *memberRef) ([]Value, *ClassInstance) {
	args := vm.popArgs(ref, 1)
	recv := vm.popRef()
	args[0] = recv
	return args, vm.instanceOf(recv, "invoke "+ref.class+"."+ref.name)
}

// enter 前进调用者的 pc 并压入新帧
func (vm *VM) enter(frame *Frame, length int, args []Value) {
	putArgs(args)
	vm.advance(length)
	vm.pushFrame(frame)
}

// rollback 恢复调用者的操作数栈，放弃本次执行。
// 此时栈顶已是 <clinit> 帧，必须使用调用者自己的帧
func rollback(caller *Frame, backup []Value, args []Value) {
	putArgs(args)
	caller.RestoreOperandStack(backup)
}

// opInvokestatic 调用静态方法
func opInvokestatic(vm *VM) {
	ref := vm.methodRef()
	if loader.IsLibraryClass(ref.class) {
		vm.invokeNative(ref)
		vm.advance(3)
		return
	}
	f := vm.frame()
	backup := f.BackupOperandStack()
	args := vm.popArgs(ref, 0)

	cls, ok := vm.loadClass(ref.class)
	if !ok {
		rollback(f, backup, args)
		return
	}
	frame, status, err := NewStaticFrame(vm.area, cls, ref.name, ref.descriptor, args)
	vm.must(err)
	if status == Deferred {
		rollback(f, backup, args)
		vm.deferred(ref.class)
		return
	}
	vm.enter(frame, 3, args)
}

// opInvokevirtual 按常量池声明的类解析方法，不按接收者的运行时类分派；
// java/ 库类上的调用由原生方法实现
func opInvokevirtual(vm *VM) {
	ref := vm.methodRef()
	if loader.IsLibraryClass(ref.class) {
		vm.invokeNative(ref)
		vm.advance(3)
		return
	}
	vm.invokeInstance(ref, 3, false)
}

// opInvokespecial 构造器、私有方法与 super 调用；Object/String 的 <init> 为原生实现
func opInvokespecial(vm *VM) {
	ref := vm.methodRef()
	if loader.IsLibraryClass(ref.class) {
		vm.invokeNative(ref)
		vm.advance(3)
		return
	}
	vm.invokeInstance(ref, 3, false)
}

// opInvokeinterface 按接收者自身的运行时类解析方法（与 invokevirtual 不对称）
func opInvokeinterface(vm *VM) {
	ref := vm.methodRef()
	if loader.IsLibraryClass(ref.class) {
		vm.throw(errors.R0306, ref.class, ref.name, ref.descriptor)
	}
	vm.invokeInstance(ref, 5, true)
}

// invokeInstance 实例方法调用。byReceiver 为 true 时在接收者的运行时类上解析，
// 否则在常量池声明的类上解析
func (vm *VM) invokeInstance(ref *memberRef, length int, byReceiver bool) {
	f := vm.frame()
	backup := f.BackupOperandStack()
	args, inst := vm.popReceiverAndArgs(ref)

	cls, ok := vm.loadClass(ref.class)
	if !ok {
		rollback(f, backup, args)
		return
	}
	if byReceiver {
		cls = inst.Class()
	}
	frame, status, err := NewInstanceFrame(vm.area, inst, cls, ref.name, ref.descriptor, args)
	vm.must(err)
	if status == Deferred {
		rollback(f, backup, args)
		vm.deferred(cls.Name())
		return
	}
	vm.enter(frame, length, args)
}

// opInvokedynamic 不支持
func opInvokedynamic(vm *VM) {
	vm.internal("invokedynamic at pc %d is not supported", vm.frame().PC)
}
