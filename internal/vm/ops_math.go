package vm

import (
	"math"

	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 算术运算
// ============================================================================

func opIntBinary(fn func(a, b int32) int32) OpHandler {
	return func(vm *VM) {
		b := vm.popInt()
		a := vm.popInt()
		vm.pushInt(fn(a, b))
		vm.advance(1)
	}
}

func opLongBinary(fn func(a, b int64) int64) OpHandler {
	return func(vm *VM) {
		b := vm.popLong()
		a := vm.popLong()
		vm.pushLong(fn(a, b))
		vm.advance(1)
	}
}

func opFloatBinary(fn func(a, b float32) float32) OpHandler {
	return func(vm *VM) {
		b := vm.popFloat()
		a := vm.popFloat()
		vm.pushFloat(fn(a, b))
		vm.advance(1)
	}
}

func opDoubleBinary(fn func(a, b float64) float64) OpHandler {
	return func(vm *VM) {
		b := vm.popDouble()
		a := vm.popDouble()
		vm.pushDouble(fn(a, b))
		vm.advance(1)
	}
}

// opLongShift lshl/lshr/lushr：移位量为 int，取低 6 位
func opLongShift(fn func(a int64, s uint) int64) OpHandler {
	return func(vm *VM) {
		s := vm.popInt()
		a := vm.popLong()
		vm.pushLong(fn(a, uint(s&0x3f)))
		vm.advance(1)
	}
}

// divisionByZero 整数除零
func (vm *VM) divisionByZero() {
	vm.fatal(errors.NewRuntimeError(errors.R0200).WithHints())
}

// opIdiv 整数除法向零截断，除数为零时致命
func opIdiv(vm *VM) {
	b := vm.popInt()
	a := vm.popInt()
	if b == 0 {
		vm.divisionByZero()
	}
	vm.pushInt(a / b)
	vm.advance(1)
}

func opLdiv(vm *VM) {
	b := vm.popLong()
	a := vm.popLong()
	if b == 0 {
		vm.divisionByZero()
	}
	vm.pushLong(a / b)
	vm.advance(1)
}

// opIrem 余数为 a - (a/b)*b，符号跟随被除数
func opIrem(vm *VM) {
	b := vm.popInt()
	a := vm.popInt()
	if b == 0 {
		vm.divisionByZero()
	}
	vm.pushInt(a - (a/b)*b)
	vm.advance(1)
}

func opLrem(vm *VM) {
	b := vm.popLong()
	a := vm.popLong()
	if b == 0 {
		vm.divisionByZero()
	}
	vm.pushLong(a - (a/b)*b)
	vm.advance(1)
}

// opFrem 浮点余数不会致命，除数为零得到 NaN
func opFrem(vm *VM) {
	b := vm.popFloat()
	a := vm.popFloat()
	vm.pushFloat(float32(math.Mod(float64(a), float64(b))))
	vm.advance(1)
}

func opDrem(vm *VM) {
	b := vm.popDouble()
	a := vm.popDouble()
	vm.pushDouble(math.Mod(a, b))
	vm.advance(1)
}

func opIneg(vm *VM) {
	vm.pushInt(-vm.popInt())
	vm.advance(1)
}

func opLneg(vm *VM) {
	vm.pushLong(-vm.popLong())
	vm.advance(1)
}

func opFneg(vm *VM) {
	vm.pushFloat(-vm.popFloat())
	vm.advance(1)
}

func opDneg(vm *VM) {
	vm.pushDouble(-vm.popDouble())
	vm.advance(1)
}

// opIinc 局部变量自增：iinc index const，或 wide iinc index16 const16
func opIinc(vm *VM) {
	var idx, n int
	var delta int32
	if vm.wide {
		vm.wide = false
		idx, delta, n = int(vm.u16(1)), int32(vm.s16(3)), 5
	} else {
		idx, delta, n = int(vm.u8(1)), int32(int8(vm.u8(2))), 3
	}
	f := vm.frame()
	v := f.Local(idx)
	vm.expect(v, TypeInt)
	f.SetLocal(idx, IntValue(v.Int()+delta))
	vm.advance(n)
}
