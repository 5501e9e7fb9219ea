package vm

import (
	"math"
)

// ============================================================================
// 类型转换
// ============================================================================

func opI2l(vm *VM) {
	vm.pushLong(int64(vm.popInt()))
	vm.advance(1)
}

func opI2f(vm *VM) {
	vm.pushFloat(float32(vm.popInt()))
	vm.advance(1)
}

func opI2d(vm *VM) {
	vm.pushDouble(float64(vm.popInt()))
	vm.advance(1)
}

func opL2i(vm *VM) {
	vm.pushInt(int32(vm.popLong()))
	vm.advance(1)
}

func opL2f(vm *VM) {
	vm.pushFloat(float32(vm.popLong()))
	vm.advance(1)
}

func opL2d(vm *VM) {
	vm.pushDouble(float64(vm.popLong()))
	vm.advance(1)
}

func opF2i(vm *VM) {
	vm.pushInt(toInt32(float64(vm.popFloat())))
	vm.advance(1)
}

func opF2l(vm *VM) {
	vm.pushLong(toInt64(float64(vm.popFloat())))
	vm.advance(1)
}

func opF2d(vm *VM) {
	vm.pushDouble(float64(vm.popFloat()))
	vm.advance(1)
}

func opD2i(vm *VM) {
	vm.pushInt(toInt32(vm.popDouble()))
	vm.advance(1)
}

func opD2l(vm *VM) {
	vm.pushLong(toInt64(vm.popDouble()))
	vm.advance(1)
}

func opD2f(vm *VM) {
	vm.pushFloat(float32(vm.popDouble()))
	vm.advance(1)
}

// opNarrow i2b/i2c/i2s：截断后仍以 int 存储，显示类型为窄类型
func opNarrow(kind ValueType) OpHandler {
	return func(vm *VM) {
		vm.frame().Push(NarrowValue(kind, vm.popInt()).Widen())
		vm.advance(1)
	}
}

// toInt32 向零截断；NaN 为 0，超出范围时取边界值
func toInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}

// toInt64 向零截断；NaN 为 0，超出范围时取边界值
func toInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
