package vm

import (
	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 分派表
// ============================================================================

// OpHandler 操作码处理函数类型。处理函数负责校验操作数、执行操作，
// 并把 pc 前进整条指令的长度（含操作数字节）。
type OpHandler func(*VM)

// dispatchTable 分派表 (256 个操作码槽位)，只在 init 中填充
var dispatchTable [256]OpHandler

func init() {
	// 初始化所有槽位为无效操作码处理器
	for i := range dispatchTable {
		dispatchTable[i] = opInvalid
	}

	// 常量
	dispatchTable[classfile.OpNop] = opNop
	dispatchTable[classfile.OpAconstNull] = opAconstNull
	dispatchTable[classfile.OpIconstM1] = opIconst(-1)
	dispatchTable[classfile.OpIconst0] = opIconst(0)
	dispatchTable[classfile.OpIconst1] = opIconst(1)
	dispatchTable[classfile.OpIconst2] = opIconst(2)
	dispatchTable[classfile.OpIconst3] = opIconst(3)
	dispatchTable[classfile.OpIconst4] = opIconst(4)
	dispatchTable[classfile.OpIconst5] = opIconst(5)
	dispatchTable[classfile.OpLconst0] = opLconst(0)
	dispatchTable[classfile.OpLconst1] = opLconst(1)
	dispatchTable[classfile.OpFconst0] = opFconst(0)
	dispatchTable[classfile.OpFconst1] = opFconst(1)
	dispatchTable[classfile.OpFconst2] = opFconst(2)
	dispatchTable[classfile.OpDconst0] = opDconst(0)
	dispatchTable[classfile.OpDconst1] = opDconst(1)
	dispatchTable[classfile.OpBipush] = opBipush
	dispatchTable[classfile.OpSipush] = opSipush
	dispatchTable[classfile.OpLdc] = opLdc
	dispatchTable[classfile.OpLdcW] = opLdcW
	dispatchTable[classfile.OpLdc2W] = opLdc2W

	// 局部变量读取
	dispatchTable[classfile.OpIload] = opLoad(TypeInt)
	dispatchTable[classfile.OpLload] = opLoad(TypeLong)
	dispatchTable[classfile.OpFload] = opLoad(TypeFloat)
	dispatchTable[classfile.OpDload] = opLoad(TypeDouble)
	dispatchTable[classfile.OpAload] = opLoad(TypeReference)
	for n := 0; n < 4; n++ {
		dispatchTable[classfile.OpIload0+n] = opLoadN(TypeInt, n)
		dispatchTable[classfile.OpLload0+n] = opLoadN(TypeLong, n)
		dispatchTable[classfile.OpFload0+n] = opLoadN(TypeFloat, n)
		dispatchTable[classfile.OpDload0+n] = opLoadN(TypeDouble, n)
		dispatchTable[classfile.OpAload0+n] = opLoadN(TypeReference, n)
	}

	// 数组读取
	dispatchTable[classfile.OpIaload] = opArrayLoad
	dispatchTable[classfile.OpLaload] = opArrayLoad
	dispatchTable[classfile.OpFaload] = opArrayLoad
	dispatchTable[classfile.OpDaload] = opArrayLoad
	dispatchTable[classfile.OpAaload] = opArrayLoad
	dispatchTable[classfile.OpBaload] = opArrayLoad
	dispatchTable[classfile.OpCaload] = opArrayLoad
	dispatchTable[classfile.OpSaload] = opArrayLoad

	// 局部变量写入
	dispatchTable[classfile.OpIstore] = opStore(TypeInt)
	dispatchTable[classfile.OpLstore] = opStore(TypeLong)
	dispatchTable[classfile.OpFstore] = opStore(TypeFloat)
	dispatchTable[classfile.OpDstore] = opStore(TypeDouble)
	dispatchTable[classfile.OpAstore] = opStore(TypeReference)
	for n := 0; n < 4; n++ {
		dispatchTable[classfile.OpIstore0+n] = opStoreN(TypeInt, n)
		dispatchTable[classfile.OpLstore0+n] = opStoreN(TypeLong, n)
		dispatchTable[classfile.OpFstore0+n] = opStoreN(TypeFloat, n)
		dispatchTable[classfile.OpDstore0+n] = opStoreN(TypeDouble, n)
		dispatchTable[classfile.OpAstore0+n] = opStoreN(TypeReference, n)
	}

	// 数组写入
	dispatchTable[classfile.OpIastore] = opArrayStore(TypeInt)
	dispatchTable[classfile.OpLastore] = opArrayStore(TypeLong)
	dispatchTable[classfile.OpFastore] = opArrayStore(TypeFloat)
	dispatchTable[classfile.OpDastore] = opArrayStore(TypeDouble)
	dispatchTable[classfile.OpAastore] = opArrayStore(TypeReference)
	dispatchTable[classfile.OpBastore] = opArrayStore(TypeByte)
	dispatchTable[classfile.OpCastore] = opArrayStore(TypeChar)
	dispatchTable[classfile.OpSastore] = opArrayStore(TypeShort)

	// 栈操作
	dispatchTable[classfile.OpPop] = opPop
	dispatchTable[classfile.OpPop2] = opPop2
	dispatchTable[classfile.OpDup] = opDup
	dispatchTable[classfile.OpDupX1] = opDupX1
	dispatchTable[classfile.OpDupX2] = opDupX2
	dispatchTable[classfile.OpDup2] = opDup2
	dispatchTable[classfile.OpDup2X1] = opDup2X1
	dispatchTable[classfile.OpDup2X2] = opDup2X2
	dispatchTable[classfile.OpSwap] = opSwap

	// 算术运算
	dispatchTable[classfile.OpIadd] = opIntBinary(func(a, b int32) int32 { return a + b })
	dispatchTable[classfile.OpLadd] = opLongBinary(func(a, b int64) int64 { return a + b })
	dispatchTable[classfile.OpFadd] = opFloatBinary(func(a, b float32) float32 { return a + b })
	dispatchTable[classfile.OpDadd] = opDoubleBinary(func(a, b float64) float64 { return a + b })
	dispatchTable[classfile.OpIsub] = opIntBinary(func(a, b int32) int32 { return a - b })
	dispatchTable[classfile.OpLsub] = opLongBinary(func(a, b int64) int64 { return a - b })
	dispatchTable[classfile.OpFsub] = opFloatBinary(func(a, b float32) float32 { return a - b })
	dispatchTable[classfile.OpDsub] = opDoubleBinary(func(a, b float64) float64 { return a - b })
	dispatchTable[classfile.OpImul] = opIntBinary(func(a, b int32) int32 { return a * b })
	dispatchTable[classfile.OpLmul] = opLongBinary(func(a, b int64) int64 { return a * b })
	dispatchTable[classfile.OpFmul] = opFloatBinary(func(a, b float32) float32 { return a * b })
	dispatchTable[classfile.OpDmul] = opDoubleBinary(func(a, b float64) float64 { return a * b })
	dispatchTable[classfile.OpIdiv] = opIdiv
	dispatchTable[classfile.OpLdiv] = opLdiv
	dispatchTable[classfile.OpFdiv] = opFloatBinary(func(a, b float32) float32 { return a / b })
	dispatchTable[classfile.OpDdiv] = opDoubleBinary(func(a, b float64) float64 { return a / b })
	dispatchTable[classfile.OpIrem] = opIrem
	dispatchTable[classfile.OpLrem] = opLrem
	dispatchTable[classfile.OpFrem] = opFrem
	dispatchTable[classfile.OpDrem] = opDrem
	dispatchTable[classfile.OpIneg] = opIneg
	dispatchTable[classfile.OpLneg] = opLneg
	dispatchTable[classfile.OpFneg] = opFneg
	dispatchTable[classfile.OpDneg] = opDneg

	// 位运算
	dispatchTable[classfile.OpIshl] = opIntBinary(func(a, b int32) int32 { return a << uint(b&0x1f) })
	dispatchTable[classfile.OpIshr] = opIntBinary(func(a, b int32) int32 { return a >> uint(b&0x1f) })
	dispatchTable[classfile.OpIushr] = opIntBinary(func(a, b int32) int32 { return int32(uint32(a) >> uint(b&0x1f)) })
	dispatchTable[classfile.OpLshl] = opLongShift(func(a int64, s uint) int64 { return a << s })
	dispatchTable[classfile.OpLshr] = opLongShift(func(a int64, s uint) int64 { return a >> s })
	dispatchTable[classfile.OpLushr] = opLongShift(func(a int64, s uint) int64 { return int64(uint64(a) >> s) })
	dispatchTable[classfile.OpIand] = opIntBinary(func(a, b int32) int32 { return a & b })
	dispatchTable[classfile.OpLand] = opLongBinary(func(a, b int64) int64 { return a & b })
	dispatchTable[classfile.OpIor] = opIntBinary(func(a, b int32) int32 { return a | b })
	dispatchTable[classfile.OpLor] = opLongBinary(func(a, b int64) int64 { return a | b })
	dispatchTable[classfile.OpIxor] = opIntBinary(func(a, b int32) int32 { return a ^ b })
	dispatchTable[classfile.OpLxor] = opLongBinary(func(a, b int64) int64 { return a ^ b })
	dispatchTable[classfile.OpIinc] = opIinc

	// 类型转换
	dispatchTable[classfile.OpI2l] = opI2l
	dispatchTable[classfile.OpI2f] = opI2f
	dispatchTable[classfile.OpI2d] = opI2d
	dispatchTable[classfile.OpL2i] = opL2i
	dispatchTable[classfile.OpL2f] = opL2f
	dispatchTable[classfile.OpL2d] = opL2d
	dispatchTable[classfile.OpF2i] = opF2i
	dispatchTable[classfile.OpF2l] = opF2l
	dispatchTable[classfile.OpF2d] = opF2d
	dispatchTable[classfile.OpD2i] = opD2i
	dispatchTable[classfile.OpD2l] = opD2l
	dispatchTable[classfile.OpD2f] = opD2f
	dispatchTable[classfile.OpI2b] = opNarrow(TypeByte)
	dispatchTable[classfile.OpI2c] = opNarrow(TypeChar)
	dispatchTable[classfile.OpI2s] = opNarrow(TypeShort)

	// 比较
	dispatchTable[classfile.OpLcmp] = opLcmp
	dispatchTable[classfile.OpFcmpl] = opFcmp(-1)
	dispatchTable[classfile.OpFcmpg] = opFcmp(1)
	dispatchTable[classfile.OpDcmpl] = opDcmp(-1)
	dispatchTable[classfile.OpDcmpg] = opDcmp(1)
	dispatchTable[classfile.OpIfeq] = opIf(func(v int32) bool { return v == 0 })
	dispatchTable[classfile.OpIfne] = opIf(func(v int32) bool { return v != 0 })
	dispatchTable[classfile.OpIflt] = opIf(func(v int32) bool { return v < 0 })
	dispatchTable[classfile.OpIfge] = opIf(func(v int32) bool { return v >= 0 })
	dispatchTable[classfile.OpIfgt] = opIf(func(v int32) bool { return v > 0 })
	dispatchTable[classfile.OpIfle] = opIf(func(v int32) bool { return v <= 0 })
	dispatchTable[classfile.OpIfIcmpeq] = opIfIcmp(func(a, b int32) bool { return a == b })
	dispatchTable[classfile.OpIfIcmpne] = opIfIcmp(func(a, b int32) bool { return a != b })
	dispatchTable[classfile.OpIfIcmplt] = opIfIcmp(func(a, b int32) bool { return a < b })
	dispatchTable[classfile.OpIfIcmpge] = opIfIcmp(func(a, b int32) bool { return a >= b })
	dispatchTable[classfile.OpIfIcmpgt] = opIfIcmp(func(a, b int32) bool { return a > b })
	dispatchTable[classfile.OpIfIcmple] = opIfIcmp(func(a, b int32) bool { return a <= b })
	dispatchTable[classfile.OpIfAcmpeq] = opIfAcmp(true)
	dispatchTable[classfile.OpIfAcmpne] = opIfAcmp(false)
	dispatchTable[classfile.OpIfnull] = opIfNull(true)
	dispatchTable[classfile.OpIfnonnull] = opIfNull(false)

	// 控制流
	dispatchTable[classfile.OpGoto] = opGoto
	dispatchTable[classfile.OpGotoW] = opGotoW
	dispatchTable[classfile.OpJsr] = opJsr
	dispatchTable[classfile.OpJsrW] = opJsrW
	dispatchTable[classfile.OpRet] = opRet
	dispatchTable[classfile.OpTableswitch] = opTableswitch
	dispatchTable[classfile.OpLookupswitch] = opLookupswitch
	dispatchTable[classfile.OpIreturn] = opValueReturn(TypeInt)
	dispatchTable[classfile.OpLreturn] = opValueReturn(TypeLong)
	dispatchTable[classfile.OpFreturn] = opValueReturn(TypeFloat)
	dispatchTable[classfile.OpDreturn] = opValueReturn(TypeDouble)
	dispatchTable[classfile.OpAreturn] = opValueReturn(TypeReference)
	dispatchTable[classfile.OpReturn] = opReturn
	dispatchTable[classfile.OpWide] = opWide

	// 字段
	dispatchTable[classfile.OpGetstatic] = opGetstatic
	dispatchTable[classfile.OpPutstatic] = opPutstatic
	dispatchTable[classfile.OpGetfield] = opGetfield
	dispatchTable[classfile.OpPutfield] = opPutfield

	// 方法调用
	dispatchTable[classfile.OpInvokevirtual] = opInvokevirtual
	dispatchTable[classfile.OpInvokespecial] = opInvokespecial
	dispatchTable[classfile.OpInvokestatic] = opInvokestatic
	dispatchTable[classfile.OpInvokeinterface] = opInvokeinterface
	dispatchTable[classfile.OpInvokedynamic] = opInvokedynamic

	// 对象与数组
	dispatchTable[classfile.OpNew] = opNew
	dispatchTable[classfile.OpNewarray] = opNewarray
	dispatchTable[classfile.OpAnewarray] = opAnewarray
	dispatchTable[classfile.OpArraylength] = opArraylength
	dispatchTable[classfile.OpAthrow] = opNoEffect
	dispatchTable[classfile.OpCheckcast] = opCheckcast
	dispatchTable[classfile.OpInstanceof] = opInstanceof
	dispatchTable[classfile.OpMonitorenter] = opNoEffect
	dispatchTable[classfile.OpMonitorexit] = opNoEffect
	dispatchTable[classfile.OpMultianewarray] = opMultianewarray
}

// ============================================================================
// 辅助方法
// ============================================================================

// opInvalid 无效操作码
func opInvalid(vm *VM) {
	f := vm.frame()
	vm.throw(errors.R0002, f.Code()[f.PC], f.PC)
}

// opNop 空操作
func opNop(vm *VM) {
	vm.advance(1)
}

// opNoEffect athrow / monitorenter / monitorexit：不抛出异常、不加锁，只前进 pc
func opNoEffect(vm *VM) {
	vm.advance(1)
}
