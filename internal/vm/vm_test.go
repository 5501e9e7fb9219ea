package vm

import (
	"io"
	"math"
	"testing"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

// memSource 内存中的类来源
type memSource map[string]*classfile.ClassFile

func (s memSource) Load(name string) (*classfile.ClassFile, error) {
	cf, ok := s[name]
	if !ok {
		return nil, errors.NewRuntimeError(errors.R0303, name).With("class", name)
	}
	return cf, nil
}

// newTestVM 创建 VM 并压入一个静态方法帧，code 为该方法的字节码
func newTestVM(t *testing.T, code []byte) *VM {
	t.Helper()
	if len(code) == 0 {
		code = make([]byte, 8)
	}
	b := classfile.NewBuilder("T", "java/lang/Object")
	b.AddMethod(classfile.AccStatic, "m", "()V", 16, 8, code)
	vm := New(memSource{"T": b.Build()}, WithStdout(io.Discard))
	cls, err := vm.area.Define("T")
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	f, _, err := NewStaticFrame(vm.area, cls, "m", "()V", nil)
	if err != nil {
		t.Fatalf("NewStaticFrame failed: %v", err)
	}
	vm.pushFrame(f)
	return vm
}

// catchFatal 执行 fn 并返回它抛出的运行时错误
func catchFatal(fn func()) (err *errors.RuntimeError) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(*errors.RuntimeError)
		}
	}()
	fn()
	return nil
}

// ============================================================================
// 值模型测试
// ============================================================================

func TestNarrowValue(t *testing.T) {
	tests := []struct {
		name string
		kind ValueType
		in   int32
		want int32
	}{
		{"boolean keeps low bit", TypeBoolean, 3, 1},
		{"byte wraps", TypeByte, 200, -56},
		{"char is unsigned 16-bit", TypeChar, -1, 0xFFFF},
		{"char truncates", TypeChar, 0x10041, 0x41},
		{"short wraps", TypeShort, 40000, -25536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NarrowValue(tt.kind, tt.in)
			if v.Int() != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, v.Int())
			}
			if v.Type != tt.kind {
				t.Errorf("Expected type %s, got %s", tt.kind, v.Type)
			}
		})
	}
}

func TestWidenKeepsPrintType(t *testing.T) {
	v := NarrowValue(TypeChar, 'A').Widen()
	if v.Type != TypeInt {
		t.Errorf("Expected int storage, got %s", v.Type)
	}
	if v.PrintType != TypeChar {
		t.Errorf("Expected char display type, got %s", v.PrintType)
	}

	// 写回字段时按声明类型重新截断
	stored := IntValue(300).Coerce('B')
	if stored.Type != TypeByte || stored.Int() != 44 {
		t.Errorf("Expected byte 44, got %v", stored)
	}
}

func TestDefaultValues(t *testing.T) {
	tests := []struct {
		kind byte
		want ValueType
	}{
		{'Z', TypeBoolean},
		{'I', TypeInt},
		{'J', TypeLong},
		{'D', TypeDouble},
		{'L', TypeReference},
		{'[', TypeReference},
	}

	for _, tt := range tests {
		v := DefaultValue(tt.kind)
		if v.Type != tt.want {
			t.Errorf("DefaultValue(%c): expected %s, got %s", tt.kind, tt.want, v.Type)
		}
		if tt.want == TypeReference && !v.IsNull() {
			t.Errorf("DefaultValue(%c): expected null", tt.kind)
		}
	}
}

// ============================================================================
// 帧测试
// ============================================================================

func TestFrameWideSlots(t *testing.T) {
	vm := newTestVM(t, nil)
	f := vm.frame()

	f.PushWide(LongValue(1 << 40))
	if f.OperandCount() != 2 {
		t.Fatalf("Expected 2 operand slots, got %d", f.OperandCount())
	}
	if f.Peek(1).Type != TypePadding {
		t.Errorf("Expected padding below a long, got %s", f.Peek(1).Type)
	}
	if v := f.PopWide(); v.Long() != 1<<40 {
		t.Errorf("Expected %d, got %d", int64(1<<40), v.Long())
	}

	f.SetLocalWide(2, DoubleValue(2.5))
	if f.Local(3).Type != TypePadding {
		t.Errorf("Expected padding at local 3, got %s", f.Local(3).Type)
	}
	if v := f.LocalWide(2); v.Double() != 2.5 {
		t.Errorf("Expected 2.5, got %f", v.Double())
	}
}

func TestFrameInvariants(t *testing.T) {
	tests := []struct {
		name string
		op   func(f *Frame)
		code string
	}{
		{"pop from empty stack", func(f *Frame) { f.Pop() }, errors.R0401},
		{"local out of range", func(f *Frame) { f.Local(8) }, errors.R0402},
		{"wide store at the last slot", func(f *Frame) { f.SetLocalWide(7, LongValue(1)) }, errors.R0402},
		{"pop wide without padding", func(f *Frame) {
			f.Push(IntValue(1))
			f.Push(IntValue(2))
			f.PopWide()
		}, errors.R0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil)
			err := catchFatal(func() { tt.op(vm.frame()) })
			if err == nil {
				t.Fatal("Expected a fatal error")
			}
			if err.Code != tt.code {
				t.Errorf("Expected %s, got %s", tt.code, err.Code)
			}
		})
	}
}

func TestBackupRestoreOperandStack(t *testing.T) {
	vm := newTestVM(t, nil)
	f := vm.frame()
	f.Push(IntValue(1))
	f.Push(IntValue(2))

	backup := f.BackupOperandStack()
	f.Pop()
	f.Pop()
	f.RestoreOperandStack(backup)

	if f.OperandCount() != 2 || f.Peek(0).Int() != 2 {
		t.Errorf("Expected the operand stack to be restored, got %d slots", f.OperandCount())
	}
}

func TestCallDepthLimit(t *testing.T) {
	s := NewVMStack(1)
	vm := newTestVM(t, nil)
	if err := s.Push(vm.frame()); err != nil {
		t.Fatalf("First push failed: %v", err)
	}
	err := s.Push(vm.frame())
	rt, ok := err.(*errors.RuntimeError)
	if !ok || rt.Code != errors.R0400 {
		t.Errorf("Expected R0400, got %v", err)
	}
}

// ============================================================================
// 算术运算测试
// ============================================================================

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		name string
		a, b int32
		op   byte
		want int32
	}{
		{"iadd", 10, 20, classfile.OpIadd, 30},
		{"iadd overflow", math.MaxInt32, 1, classfile.OpIadd, math.MinInt32},
		{"isub", 20, 30, classfile.OpIsub, -10},
		{"imul", 6, 7, classfile.OpImul, 42},
		{"idiv truncates", -7, 2, classfile.OpIdiv, -3},
		{"idiv min by -1", math.MinInt32, -1, classfile.OpIdiv, math.MinInt32},
		{"irem sign follows dividend", -7, 2, classfile.OpIrem, -1},
		{"ishl masks shift", 1, 33, classfile.OpIshl, 2},
		{"ishr", -8, 1, classfile.OpIshr, -4},
		{"iushr", -1, 28, classfile.OpIushr, 15},
		{"iand", 0xF0, 0x3C, classfile.OpIand, 0x30},
		{"ior", 0xF0, 0x0F, classfile.OpIor, 0xFF},
		{"ixor", 0xFF, 0x0F, classfile.OpIxor, 0xF0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil)
			vm.pushInt(tt.a)
			vm.pushInt(tt.b)
			dispatchTable[tt.op](vm)
			if got := vm.popInt(); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
			if vm.frame().PC != 1 {
				t.Errorf("Expected pc=1, got %d", vm.frame().PC)
			}
		})
	}
}

func TestLongArithmetic(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		op   byte
		want int64
	}{
		{"ladd", 1 << 40, 2, classfile.OpLadd, 1<<40 + 2},
		{"lsub", 5, 7, classfile.OpLsub, -2},
		{"lmul", 1 << 31, 4, classfile.OpLmul, 1 << 33},
		{"ldiv", -9, 2, classfile.OpLdiv, -4},
		{"lrem", -9, 2, classfile.OpLrem, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil)
			vm.pushLong(tt.a)
			vm.pushLong(tt.b)
			dispatchTable[tt.op](vm)
			if got := vm.popLong(); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestLongShiftTakesIntCount(t *testing.T) {
	vm := newTestVM(t, nil)
	vm.pushLong(1)
	vm.pushInt(65)
	dispatchTable[classfile.OpLshl](vm)
	if got := vm.popLong(); got != 2 {
		t.Errorf("Expected 2, got %d", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	tests := []struct {
		name string
		push func(vm *VM)
		op   byte
	}{
		{"idiv", func(vm *VM) { vm.pushInt(1); vm.pushInt(0) }, classfile.OpIdiv},
		{"irem", func(vm *VM) { vm.pushInt(1); vm.pushInt(0) }, classfile.OpIrem},
		{"ldiv", func(vm *VM) { vm.pushLong(1); vm.pushLong(0) }, classfile.OpLdiv},
		{"lrem", func(vm *VM) { vm.pushLong(1); vm.pushLong(0) }, classfile.OpLrem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil)
			tt.push(vm)
			err := catchFatal(func() { dispatchTable[tt.op](vm) })
			if err == nil || err.Code != errors.R0200 {
				t.Fatalf("Expected ArithmeticException, got %v", err)
			}
			if err.Exception != "ArithmeticException" {
				t.Errorf("Expected ArithmeticException, got %s", err.Exception)
			}
		})
	}
}

func TestFloatRemainderByZero(t *testing.T) {
	vm := newTestVM(t, nil)
	vm.pushDouble(1)
	vm.pushDouble(0)
	dispatchTable[classfile.OpDrem](vm)
	if got := vm.popDouble(); !math.IsNaN(got) {
		t.Errorf("Expected NaN, got %f", got)
	}
}

// ============================================================================
// 比较测试
// ============================================================================

func TestFloatCompareNaN(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name string
		a, b float32
		op   byte
		want int32
	}{
		{"fcmpl nan", nan, 1, classfile.OpFcmpl, -1},
		{"fcmpg nan", 1, nan, classfile.OpFcmpg, 1},
		{"fcmpl less", 1, 2, classfile.OpFcmpl, -1},
		{"fcmpg greater", 3, 2, classfile.OpFcmpg, 1},
		{"fcmpl equal", 2, 2, classfile.OpFcmpl, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil)
			vm.pushFloat(tt.a)
			vm.pushFloat(tt.b)
			dispatchTable[tt.op](vm)
			if got := vm.popInt(); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestLcmp(t *testing.T) {
	vm := newTestVM(t, nil)
	vm.pushLong(-1)
	vm.pushLong(1 << 40)
	opLcmp(vm)
	if got := vm.popInt(); got != -1 {
		t.Errorf("Expected -1, got %d", got)
	}
}

func TestConditionalBranch(t *testing.T) {
	code := classfile.NewAsm().OpS16(classfile.OpIfeq, 10).Bytes()
	tests := []struct {
		value  int32
		wantPC int
	}{
		{0, 10},
		{5, 3},
	}

	for _, tt := range tests {
		vm := newTestVM(t, code)
		vm.pushInt(tt.value)
		dispatchTable[classfile.OpIfeq](vm)
		if vm.frame().PC != tt.wantPC {
			t.Errorf("ifeq %d: expected pc=%d, got %d", tt.value, tt.wantPC, vm.frame().PC)
		}
	}
}

// ============================================================================
// 类型转换测试
// ============================================================================

func TestConversions(t *testing.T) {
	t.Run("f2i nan", func(t *testing.T) {
		vm := newTestVM(t, nil)
		vm.pushFloat(float32(math.NaN()))
		dispatchTable[classfile.OpF2i](vm)
		if got := vm.popInt(); got != 0 {
			t.Errorf("Expected 0, got %d", got)
		}
	})

	t.Run("d2i saturates", func(t *testing.T) {
		vm := newTestVM(t, nil)
		vm.pushDouble(1e20)
		dispatchTable[classfile.OpD2i](vm)
		if got := vm.popInt(); got != math.MaxInt32 {
			t.Errorf("Expected %d, got %d", math.MaxInt32, got)
		}
	})

	t.Run("d2l saturates", func(t *testing.T) {
		vm := newTestVM(t, nil)
		vm.pushDouble(-1e30)
		dispatchTable[classfile.OpD2l](vm)
		if got := vm.popLong(); got != math.MinInt64 {
			t.Errorf("Expected %d, got %d", int64(math.MinInt64), got)
		}
	})

	t.Run("i2b keeps display type", func(t *testing.T) {
		vm := newTestVM(t, nil)
		vm.pushInt(200)
		dispatchTable[classfile.OpI2b](vm)
		v := vm.frame().Pop()
		if v.Type != TypeInt || v.PrintType != TypeByte || v.Int() != -56 {
			t.Errorf("Expected int(byte) -56, got %v", v)
		}
	})

	t.Run("l2i truncates", func(t *testing.T) {
		vm := newTestVM(t, nil)
		vm.pushLong(1<<32 + 7)
		dispatchTable[classfile.OpL2i](vm)
		if got := vm.popInt(); got != 7 {
			t.Errorf("Expected 7, got %d", got)
		}
	})
}

// ============================================================================
// 局部变量与栈操作测试
// ============================================================================

func TestWideIinc(t *testing.T) {
	code := classfile.NewAsm().
		Op(classfile.OpWide).
		Op(classfile.OpIinc, 0, 3, 0x01, 0x00).
		Bytes()
	vm := newTestVM(t, code)
	vm.frame().SetLocal(3, IntValue(1))

	opWide(vm)
	dispatchTable[classfile.OpIinc](vm)

	if got := vm.frame().Local(3).Int(); got != 257 {
		t.Errorf("Expected 257, got %d", got)
	}
	if vm.frame().PC != 6 {
		t.Errorf("Expected pc=6, got %d", vm.frame().PC)
	}
	if vm.wide {
		t.Error("Expected the wide flag to be consumed")
	}
}

func TestStoreLoadLong(t *testing.T) {
	vm := newTestVM(t, nil)
	vm.pushLong(-42)
	dispatchTable[classfile.OpLstore1](vm)
	if vm.frame().OperandCount() != 0 {
		t.Fatalf("Expected an empty stack, got %d", vm.frame().OperandCount())
	}
	dispatchTable[classfile.OpLload1](vm)
	if got := vm.popLong(); got != -42 {
		t.Errorf("Expected -42, got %d", got)
	}
}

func TestStackOps(t *testing.T) {
	tests := []struct {
		name string
		op   byte
		in   []int32
		want []int32 // 栈底在前
	}{
		{"dup", classfile.OpDup, []int32{1}, []int32{1, 1}},
		{"dup_x1", classfile.OpDupX1, []int32{1, 2}, []int32{2, 1, 2}},
		{"dup_x2", classfile.OpDupX2, []int32{1, 2, 3}, []int32{3, 1, 2, 3}},
		{"dup2", classfile.OpDup2, []int32{1, 2}, []int32{1, 2, 1, 2}},
		{"swap", classfile.OpSwap, []int32{1, 2}, []int32{2, 1}},
		{"pop2", classfile.OpPop2, []int32{1, 2, 3}, []int32{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil)
			for _, v := range tt.in {
				vm.pushInt(v)
			}
			dispatchTable[tt.op](vm)
			f := vm.frame()
			if f.OperandCount() != len(tt.want) {
				t.Fatalf("Expected %d slots, got %d", len(tt.want), f.OperandCount())
			}
			for i, want := range tt.want {
				if got := f.Peek(len(tt.want) - 1 - i).Int(); got != want {
					t.Errorf("slot %d: expected %d, got %d", i, want, got)
				}
			}
		})
	}
}

// ============================================================================
// 数组测试
// ============================================================================

func TestArrayStoreNarrows(t *testing.T) {
	vm := newTestVM(t, nil)
	arr := NewArrayObject(TypeByte, 2)
	ref := RefValue(vm.alloc(arr))

	vm.frame().Push(ref)
	vm.pushInt(1)
	vm.pushInt(300)
	dispatchTable[classfile.OpBastore](vm)

	vm.frame().Push(ref)
	vm.pushInt(1)
	dispatchTable[classfile.OpBaload](vm)
	v := vm.frame().Pop()
	if v.Int() != 44 || v.PrintType != TypeByte {
		t.Errorf("Expected int(byte) 44, got %v", v)
	}
}

func TestArrayFaults(t *testing.T) {
	tests := []struct {
		name string
		run  func(vm *VM)
		code string
	}{
		{"index out of bounds", func(vm *VM) {
			vm.frame().Push(RefValue(vm.alloc(NewArrayObject(TypeInt, 3))))
			vm.pushInt(3)
			vm.pushInt(9)
			dispatchTable[classfile.OpIastore](vm)
		}, errors.R0100},
		{"negative index", func(vm *VM) {
			vm.frame().Push(RefValue(vm.alloc(NewArrayObject(TypeInt, 3))))
			vm.pushInt(-1)
			dispatchTable[classfile.OpIaload](vm)
		}, errors.R0100},
		{"null array", func(vm *VM) {
			vm.frame().Push(NullValue())
			dispatchTable[classfile.OpArraylength](vm)
		}, errors.R0300},
		{"negative size", func(vm *VM) {
			vm.pushInt(-2)
			dispatchTable[classfile.OpNewarray](vm)
		}, errors.R0101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := classfile.NewAsm().Op(classfile.OpNewarray, classfile.ATypeInt).Bytes()
			vm := newTestVM(t, code)
			err := catchFatal(func() { tt.run(vm) })
			if err == nil {
				t.Fatal("Expected a fatal error")
			}
			if err.Code != tt.code {
				t.Errorf("Expected %s, got %s (%s)", tt.code, err.Code, err.Message)
			}
		})
	}
}

func TestArrayObjectMutation(t *testing.T) {
	arr := NewArrayObject(TypeInt, 0)
	for i := int32(1); i <= 4; i++ {
		arr.Append(IntValue(i))
	}

	tests := []struct {
		name string
		op   func() bool
		ok   bool
		want []int32
	}{
		{"remove first", arr.RemoveFirst, true, []int32{2, 3, 4}},
		{"remove last", arr.RemoveLast, true, []int32{2, 3}},
		{"remove at out of range", func() bool { return arr.RemoveAt(2) }, false, []int32{2, 3}},
		{"remove at negative", func() bool { return arr.RemoveAt(-1) }, false, []int32{2, 3}},
		{"remove at", func() bool { return arr.RemoveAt(0) }, true, []int32{3}},
		{"remove last element", arr.RemoveLast, true, []int32{}},
		{"remove first of empty", arr.RemoveFirst, false, []int32{}},
		{"remove last of empty", arr.RemoveLast, false, []int32{}},
	}

	// 各步骤依次作用于同一个数组
	for _, tt := range tests {
		if got := tt.op(); got != tt.ok {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.ok, got)
		}
		if arr.Len() != len(tt.want) {
			t.Fatalf("%s: expected length %d, got %d", tt.name, len(tt.want), arr.Len())
		}
		for i, w := range tt.want {
			if got := arr.Get(i).Int(); got != w {
				t.Errorf("%s: expected element %d to be %d, got %d", tt.name, i, w, got)
			}
		}
	}
}

// ============================================================================
// 分派表测试
// ============================================================================

func TestUnknownOpcode(t *testing.T) {
	vm := newTestVM(t, []byte{0xCB})
	err := catchFatal(vm.step)
	if err == nil || err.Code != errors.R0002 {
		t.Errorf("Expected R0002, got %v", err)
	}
}
