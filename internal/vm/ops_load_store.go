package vm

import (
	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 局部变量
// ============================================================================

// opLoad xload index（可带 wide 前缀）
func opLoad(t ValueType) OpHandler {
	return func(vm *VM) {
		idx, n := vm.localOperand()
		vm.loadLocal(idx, t)
		vm.advance(n)
	}
}

// opLoadN xload_<n>
func opLoadN(t ValueType, idx int) OpHandler {
	return func(vm *VM) {
		vm.loadLocal(idx, t)
		vm.advance(1)
	}
}

// opStore xstore index（可带 wide 前缀）
func opStore(t ValueType) OpHandler {
	return func(vm *VM) {
		idx, n := vm.localOperand()
		vm.storeLocal(idx, t)
		vm.advance(n)
	}
}

// opStoreN xstore_<n>
func opStoreN(t ValueType, idx int) OpHandler {
	return func(vm *VM) {
		vm.storeLocal(idx, t)
		vm.advance(1)
	}
}

func (vm *VM) loadLocal(idx int, t ValueType) {
	f := vm.frame()
	if t == TypeLong || t == TypeDouble {
		v := f.LocalWide(idx)
		vm.expect(v, t)
		f.PushWide(v)
		return
	}
	v := f.Local(idx)
	vm.expect(v, t)
	f.Push(v)
}

func (vm *VM) storeLocal(idx int, t ValueType) {
	f := vm.frame()
	if t == TypeLong || t == TypeDouble {
		v := f.PopWide()
		vm.expect(v, t)
		f.SetLocalWide(idx, v)
		return
	}
	v := f.Pop()
	// astore 也用于保存 jsr 压入的返回地址
	if !(t == TypeReference && v.Type == TypeReturnAddr) {
		vm.expect(v, t)
	}
	f.SetLocal(idx, v)
}

// ============================================================================
// 数组元素
// ============================================================================

// opArrayLoad xaload：窄类型元素拓宽为 int 并保留显示类型
func opArrayLoad(vm *VM) {
	idx := vm.popInt()
	arr := vm.arrayOf(vm.popRef(), "load from array")
	vm.checkIndex(arr, idx)
	vm.pushValue(arr.Get(int(idx)).Widen())
	vm.advance(1)
}

// opArrayStore xastore：按数组的实际元素类型转换（bastore 同时用于 boolean[] 与 byte[]）
func opArrayStore(t ValueType) OpHandler {
	return func(vm *VM) {
		f := vm.frame()
		var v Value
		if t == TypeLong || t == TypeDouble {
			v = f.PopWide()
		} else {
			v = f.Pop()
		}
		idx := vm.popInt()
		arr := vm.arrayOf(vm.popRef(), "store to array")
		vm.checkIndex(arr, idx)
		arr.Set(int(idx), v.As(arr.ElementType()))
		vm.advance(1)
	}
}

// checkIndex 越界时抛出 ArrayIndexOutOfBoundsException
func (vm *VM) checkIndex(arr *ArrayObject, idx int32) {
	if !arr.InBounds(idx) {
		vm.fatal(errors.NewRuntimeError(errors.R0100, idx, arr.Len()).
			With("index", idx).With("length", arr.Len()).WithHints())
	}
}
