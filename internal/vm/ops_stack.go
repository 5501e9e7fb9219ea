package vm

// ============================================================================
// 栈操作
// ============================================================================
//
// 这些指令按槽位操作：long/double 与其占位槽位合起来恰好是两个槽位，
// 因此 pop2/dup2 等形式天然保持占位槽位在值的下方。

func opPop(vm *VM) {
	vm.frame().Pop()
	vm.advance(1)
}

func opPop2(vm *VM) {
	f := vm.frame()
	f.Pop()
	f.Pop()
	vm.advance(1)
}

// opDup ..., v1 -> ..., v1, v1
func opDup(vm *VM) {
	f := vm.frame()
	f.Push(f.Peek(0))
	vm.advance(1)
}

// opDupX1 ..., v2, v1 -> ..., v1, v2, v1
func opDupX1(vm *VM) {
	f := vm.frame()
	v1, v2 := f.Pop(), f.Pop()
	f.Push(v1)
	f.Push(v2)
	f.Push(v1)
	vm.advance(1)
}

// opDupX2 ..., v3, v2, v1 -> ..., v1, v3, v2, v1
func opDupX2(vm *VM) {
	f := vm.frame()
	v1, v2, v3 := f.Pop(), f.Pop(), f.Pop()
	f.Push(v1)
	f.Push(v3)
	f.Push(v2)
	f.Push(v1)
	vm.advance(1)
}

// opDup2 ..., v2, v1 -> ..., v2, v1, v2, v1
func opDup2(vm *VM) {
	f := vm.frame()
	v1, v2 := f.Pop(), f.Pop()
	f.Push(v2)
	f.Push(v1)
	f.Push(v2)
	f.Push(v1)
	vm.advance(1)
}

// opDup2X1 ..., v3, v2, v1 -> ..., v2, v1, v3, v2, v1
func opDup2X1(vm *VM) {
	f := vm.frame()
	v1, v2, v3 := f.Pop(), f.Pop(), f.Pop()
	f.Push(v2)
	f.Push(v1)
	f.Push(v3)
	f.Push(v2)
	f.Push(v1)
	vm.advance(1)
}

// opDup2X2 ..., v4, v3, v2, v1 -> ..., v2, v1, v4, v3, v2, v1
func opDup2X2(vm *VM) {
	f := vm.frame()
	v1, v2, v3, v4 := f.Pop(), f.Pop(), f.Pop(), f.Pop()
	f.Push(v2)
	f.Push(v1)
	f.Push(v4)
	f.Push(v3)
	f.Push(v2)
	f.Push(v1)
	vm.advance(1)
}

// opSwap ..., v2, v1 -> ..., v1, v2
func opSwap(vm *VM) {
	f := vm.frame()
	v1, v2 := f.Pop(), f.Pop()
	f.Push(v1)
	f.Push(v2)
	vm.advance(1)
}
