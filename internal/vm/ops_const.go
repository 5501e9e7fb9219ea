package vm

import (
	"github.com/tangzhangming/javm/internal/classfile"
)

// ============================================================================
// 常量指令
// ============================================================================

func opAconstNull(vm *VM) {
	vm.frame().Push(NullValue())
	vm.advance(1)
}

func opIconst(n int32) OpHandler {
	return func(vm *VM) {
		vm.pushInt(n)
		vm.advance(1)
	}
}

func opLconst(n int64) OpHandler {
	return func(vm *VM) {
		vm.pushLong(n)
		vm.advance(1)
	}
}

func opFconst(n float32) OpHandler {
	return func(vm *VM) {
		vm.pushFloat(n)
		vm.advance(1)
	}
}

func opDconst(n float64) OpHandler {
	return func(vm *VM) {
		vm.pushDouble(n)
		vm.advance(1)
	}
}

// opBipush 压入有符号字节
func opBipush(vm *VM) {
	vm.pushInt(int32(int8(vm.u8(1))))
	vm.advance(2)
}

// opSipush 压入有符号短整数
func opSipush(vm *VM) {
	vm.pushInt(int32(vm.s16(1)))
	vm.advance(3)
}

func opLdc(vm *VM) {
	vm.pushConstant(uint16(vm.u8(1)), false)
	vm.advance(2)
}

func opLdcW(vm *VM) {
	vm.pushConstant(vm.u16(1), false)
	vm.advance(3)
}

func opLdc2W(vm *VM) {
	vm.pushConstant(vm.u16(1), true)
	vm.advance(3)
}

// pushConstant 压入常量池中的 Integer/Float/String (ldc, ldc_w) 或 Long/Double (ldc2_w)。
// 每次执行 ldc String 都分配新的字符串对象。
func (vm *VM) pushConstant(index uint16, wide bool) {
	cp := vm.frame().ConstantPool()
	entry, err := cp.Entry(index)
	vm.must(err)

	switch c := entry.(type) {
	case *classfile.ConstantIntegerInfo:
		if !wide {
			vm.pushInt(c.Value())
			return
		}
	case *classfile.ConstantFloatInfo:
		if !wide {
			vm.pushFloat(c.Value())
			return
		}
	case *classfile.ConstantStringInfo:
		if !wide {
			s, err := cp.Utf8(c.StringIndex)
			vm.must(err)
			vm.frame().Push(vm.newString(s))
			return
		}
	case *classfile.ConstantLongInfo:
		if wide {
			vm.pushLong(c.Value())
			return
		}
	case *classfile.ConstantDoubleInfo:
		if wide {
			vm.pushDouble(c.Value())
			return
		}
	}
	vm.internal("unsupported constant %s at #%d for %s", classfile.TagName(entry.Tag()), index, ldcMnemonic(wide))
}

func ldcMnemonic(wide bool) string {
	if wide {
		return "ldc2_w"
	}
	return "ldc"
}
