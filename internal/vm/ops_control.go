package vm

import (
	"github.com/tangzhangming/javm/internal/classfile"
)

// ============================================================================
// 跳转
// ============================================================================

func opGoto(vm *VM) {
	vm.branch(int(vm.s16(1)))
}

func opGotoW(vm *VM) {
	vm.branch(int(vm.s32(1)))
}

// opJsr 压入下一条指令地址后跳转
func opJsr(vm *VM) {
	f := vm.frame()
	f.Push(ReturnAddrValue(f.PC + 3))
	vm.branch(int(vm.s16(1)))
}

func opJsrW(vm *VM) {
	f := vm.frame()
	f.Push(ReturnAddrValue(f.PC + 5))
	vm.branch(int(vm.s32(1)))
}

// opRet 跳回局部变量中保存的返回地址
func opRet(vm *VM) {
	idx, _ := vm.localOperand()
	f := vm.frame()
	v := f.Local(idx)
	vm.expect(v, TypeReturnAddr)
	f.PC = v.ReturnAddr()
}

// opWide 设置一次性标志，下一条局部变量指令读取 16 位索引
func opWide(vm *VM) {
	vm.wide = true
	vm.advance(1)
}

// ============================================================================
// switch
// ============================================================================

// opTableswitch 对齐填充后依次为 default、low、high 与 high-low+1 个跳转偏移
func opTableswitch(vm *VM) {
	f := vm.frame()
	code := f.Code()
	pc := f.PC
	base := pc + 1 + classfile.SwitchPadding(pc)

	offset := classfile.S32At(code, base)
	low := int64(classfile.S32At(code, base+4))
	high := int64(classfile.S32At(code, base+8))
	key := int64(vm.popInt())

	for i := int64(0); low+i <= high; i++ {
		if key == low+i {
			offset = classfile.S32At(code, base+12+4*int(i))
			break
		}
	}
	f.PC = pc + int(offset)
}

// opLookupswitch 对齐填充后依次为 default、npairs 与 npairs 个 (match, offset)，按编码顺序匹配
func opLookupswitch(vm *VM) {
	f := vm.frame()
	code := f.Code()
	pc := f.PC
	base := pc + 1 + classfile.SwitchPadding(pc)

	offset := classfile.S32At(code, base)
	npairs := int(classfile.S32At(code, base+4))
	key := vm.popInt()

	for i := 0; i < npairs; i++ {
		at := base + 8 + 8*i
		if classfile.S32At(code, at) == key {
			offset = classfile.S32At(code, at+4)
			break
		}
	}
	f.PC = pc + int(offset)
}

// ============================================================================
// 返回
// ============================================================================

// opValueReturn ireturn/lreturn/freturn/dreturn/areturn：
// 弹出返回值（宽类型连同占位槽位），销毁当前帧，压入调用者的操作数栈
func opValueReturn(t ValueType) OpHandler {
	return func(vm *VM) {
		f := vm.frame()
		var v Value
		if t == TypeLong || t == TypeDouble {
			v = f.PopWide()
		} else {
			v = f.Pop()
		}
		vm.expect(v, t)
		vm.popFrame()
		if caller := vm.frame(); caller != nil {
			vm.pushValue(v)
		}
	}
}

// opReturn void 返回
func opReturn(vm *VM) {
	vm.popFrame()
}
