package vm

// ============================================================================
// 比较与条件跳转
// ============================================================================

func opLcmp(vm *VM) {
	b := vm.popLong()
	a := vm.popLong()
	switch {
	case a > b:
		vm.pushInt(1)
	case a < b:
		vm.pushInt(-1)
	default:
		vm.pushInt(0)
	}
	vm.advance(1)
}

// opFcmp fcmpl (nan = -1) / fcmpg (nan = 1)
func opFcmp(nan int32) OpHandler {
	return func(vm *VM) {
		b := vm.popFloat()
		a := vm.popFloat()
		vm.pushInt(compareFloat(float64(a), float64(b), nan))
		vm.advance(1)
	}
}

// opDcmp dcmpl (nan = -1) / dcmpg (nan = 1)
func opDcmp(nan int32) OpHandler {
	return func(vm *VM) {
		b := vm.popDouble()
		a := vm.popDouble()
		vm.pushInt(compareFloat(a, b, nan))
		vm.advance(1)
	}
}

// compareFloat 任一操作数为 NaN 时返回 nan
func compareFloat(a, b float64, nan int32) int32 {
	switch {
	case a != a || b != b:
		return nan
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// opIf ifeq/ifne/iflt/ifge/ifgt/ifle
func opIf(cond func(int32) bool) OpHandler {
	return func(vm *VM) {
		vm.jumpIf(cond(vm.popInt()))
	}
}

// opIfIcmp if_icmp<cond>
func opIfIcmp(cond func(a, b int32) bool) OpHandler {
	return func(vm *VM) {
		b := vm.popInt()
		a := vm.popInt()
		vm.jumpIf(cond(a, b))
	}
}

// opIfAcmp if_acmpeq / if_acmpne
func opIfAcmp(equal bool) OpHandler {
	return func(vm *VM) {
		b := vm.popRef()
		a := vm.popRef()
		vm.jumpIf((a.Ref() == b.Ref()) == equal)
	}
}

// opIfNull ifnull / ifnonnull
func opIfNull(null bool) OpHandler {
	return func(vm *VM) {
		v := vm.popRef()
		vm.jumpIf(v.IsNull() == null)
	}
}

// jumpIf 条件成立时按 16 位偏移跳转，否则跳过 3 字节指令
func (vm *VM) jumpIf(taken bool) {
	if taken {
		vm.branch(int(vm.s16(1)))
		return
	}
	vm.advance(3)
}
