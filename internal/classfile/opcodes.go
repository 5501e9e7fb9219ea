package classfile

// JVM 操作码常量 (JVMS §6.5)
const (
	// 常量
	OpNop        = 0x00 // 无操作
	OpAconstNull = 0x01 // 将 null 压入栈
	OpIconstM1   = 0x02 // 将 -1 压入栈
	OpIconst0    = 0x03 // 将 0 压入栈
	OpIconst1    = 0x04
	OpIconst2    = 0x05
	OpIconst3    = 0x06
	OpIconst4    = 0x07
	OpIconst5    = 0x08
	OpLconst0    = 0x09 // 将 long 0 压入栈
	OpLconst1    = 0x0A
	OpFconst0    = 0x0B // 将 float 0 压入栈
	OpFconst1    = 0x0C
	OpFconst2    = 0x0D
	OpDconst0    = 0x0E // 将 double 0 压入栈
	OpDconst1    = 0x0F
	OpBipush     = 0x10 // 将单字节常量压入栈
	OpSipush     = 0x11 // 将短整型常量压入栈
	OpLdc        = 0x12 // 将常量池中的项压入栈
	OpLdcW       = 0x13 // ldc 的宽索引版本
	OpLdc2W      = 0x14 // 将 long/double 常量压入栈

	// 加载
	OpIload  = 0x15
	OpLload  = 0x16
	OpFload  = 0x17
	OpDload  = 0x18
	OpAload  = 0x19
	OpIload0 = 0x1A
	OpIload1 = 0x1B
	OpIload2 = 0x1C
	OpIload3 = 0x1D
	OpLload0 = 0x1E
	OpLload1 = 0x1F
	OpLload2 = 0x20
	OpLload3 = 0x21
	OpFload0 = 0x22
	OpFload1 = 0x23
	OpFload2 = 0x24
	OpFload3 = 0x25
	OpDload0 = 0x26
	OpDload1 = 0x27
	OpDload2 = 0x28
	OpDload3 = 0x29
	OpAload0 = 0x2A // 将局部变量 0 (引用类型) 压入栈
	OpAload1 = 0x2B
	OpAload2 = 0x2C
	OpAload3 = 0x2D
	OpIaload = 0x2E // 数组元素加载
	OpLaload = 0x2F
	OpFaload = 0x30
	OpDaload = 0x31
	OpAaload = 0x32
	OpBaload = 0x33
	OpCaload = 0x34
	OpSaload = 0x35

	// 存储
	OpIstore  = 0x36
	OpLstore  = 0x37
	OpFstore  = 0x38
	OpDstore  = 0x39
	OpAstore  = 0x3A
	OpIstore0 = 0x3B
	OpIstore1 = 0x3C
	OpIstore2 = 0x3D
	OpIstore3 = 0x3E
	OpLstore0 = 0x3F
	OpLstore1 = 0x40
	OpLstore2 = 0x41
	OpLstore3 = 0x42
	OpFstore0 = 0x43
	OpFstore1 = 0x44
	OpFstore2 = 0x45
	OpFstore3 = 0x46
	OpDstore0 = 0x47
	OpDstore1 = 0x48
	OpDstore2 = 0x49
	OpDstore3 = 0x4A
	OpAstore0 = 0x4B // 将栈顶引用存入局部变量 0
	OpAstore1 = 0x4C
	OpAstore2 = 0x4D
	OpAstore3 = 0x4E
	OpIastore = 0x4F // 数组元素存储
	OpLastore = 0x50
	OpFastore = 0x51
	OpDastore = 0x52
	OpAastore = 0x53
	OpBastore = 0x54
	OpCastore = 0x55
	OpSastore = 0x56

	// 栈操作
	OpPop    = 0x57 // 弹出栈顶元素
	OpPop2   = 0x58
	OpDup    = 0x59 // 复制栈顶元素
	OpDupX1  = 0x5A
	OpDupX2  = 0x5B
	OpDup2   = 0x5C
	OpDup2X1 = 0x5D
	OpDup2X2 = 0x5E
	OpSwap   = 0x5F // 交换栈顶两个元素

	// 算术
	OpIadd = 0x60
	OpLadd = 0x61
	OpFadd = 0x62
	OpDadd = 0x63
	OpIsub = 0x64
	OpLsub = 0x65
	OpFsub = 0x66
	OpDsub = 0x67
	OpImul = 0x68
	OpLmul = 0x69
	OpFmul = 0x6A
	OpDmul = 0x6B
	OpIdiv = 0x6C
	OpLdiv = 0x6D
	OpFdiv = 0x6E
	OpDdiv = 0x6F
	OpIrem = 0x70
	OpLrem = 0x71
	OpFrem = 0x72
	OpDrem = 0x73
	OpIneg = 0x74
	OpLneg = 0x75
	OpFneg = 0x76
	OpDneg = 0x77

	// 位运算
	OpIshl  = 0x78
	OpLshl  = 0x79
	OpIshr  = 0x7A
	OpLshr  = 0x7B
	OpIushr = 0x7C
	OpLushr = 0x7D
	OpIand  = 0x7E
	OpLand  = 0x7F
	OpIor   = 0x80
	OpLor   = 0x81
	OpIxor  = 0x82
	OpLxor  = 0x83
	OpIinc  = 0x84 // 局部变量自增

	// 类型转换
	OpI2l = 0x85
	OpI2f = 0x86
	OpI2d = 0x87
	OpL2i = 0x88
	OpL2f = 0x89
	OpL2d = 0x8A
	OpF2i = 0x8B
	OpF2l = 0x8C
	OpF2d = 0x8D
	OpD2i = 0x8E
	OpD2l = 0x8F
	OpD2f = 0x90
	OpI2b = 0x91
	OpI2c = 0x92
	OpI2s = 0x93

	// 比较
	OpLcmp     = 0x94
	OpFcmpl    = 0x95
	OpFcmpg    = 0x96
	OpDcmpl    = 0x97
	OpDcmpg    = 0x98
	OpIfeq     = 0x99
	OpIfne     = 0x9A
	OpIflt     = 0x9B
	OpIfge     = 0x9C
	OpIfgt     = 0x9D
	OpIfle     = 0x9E
	OpIfIcmpeq = 0x9F
	OpIfIcmpne = 0xA0
	OpIfIcmplt = 0xA1
	OpIfIcmpge = 0xA2
	OpIfIcmpgt = 0xA3
	OpIfIcmple = 0xA4
	OpIfAcmpeq = 0xA5
	OpIfAcmpne = 0xA6

	// 控制流
	OpGoto         = 0xA7
	OpJsr          = 0xA8
	OpRet          = 0xA9
	OpTableswitch  = 0xAA
	OpLookupswitch = 0xAB
	OpIreturn      = 0xAC
	OpLreturn      = 0xAD
	OpFreturn      = 0xAE
	OpDreturn      = 0xAF
	OpAreturn      = 0xB0
	OpReturn       = 0xB1 // 从 void 方法返回

	// 字段与方法
	OpGetstatic       = 0xB2 // 获取静态字段
	OpPutstatic       = 0xB3
	OpGetfield        = 0xB4
	OpPutfield        = 0xB5
	OpInvokevirtual   = 0xB6 // 调用实例方法
	OpInvokespecial   = 0xB7 // 调用构造器/私有方法/父类方法
	OpInvokestatic    = 0xB8 // 调用静态方法
	OpInvokeinterface = 0xB9
	OpInvokedynamic   = 0xBA

	// 对象
	OpNew          = 0xBB // 创建对象
	OpNewarray     = 0xBC
	OpAnewarray    = 0xBD
	OpArraylength  = 0xBE
	OpAthrow       = 0xBF
	OpCheckcast    = 0xC0
	OpInstanceof   = 0xC1
	OpMonitorenter = 0xC2
	OpMonitorexit  = 0xC3

	// 扩展
	OpWide           = 0xC4
	OpMultianewarray = 0xC5
	OpIfnull         = 0xC6
	OpIfnonnull      = 0xC7
	OpGotoW          = 0xC8
	OpJsrW           = 0xC9
)

// newarray 的 atype 操作数
const (
	ATypeBoolean = 4
	ATypeChar    = 5
	ATypeFloat   = 6
	ATypeDouble  = 7
	ATypeByte    = 8
	ATypeShort   = 9
	ATypeInt     = 10
	ATypeLong    = 11
)

// ATypeNames newarray 类型名 (索引为 atype-4)
var ATypeNames = [...]string{"boolean", "char", "float", "double", "byte", "short", "int", "long"}

// Mnemonics 操作码助记符，未定义的操作码为空字符串
var Mnemonics = [256]string{
	"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4",
	"iconst_5", "lconst_0", "lconst_1", "fconst_0", "fconst_1", "fconst_2", "dconst_0", "dconst_1",
	"bipush", "sipush", "ldc", "ldc_w", "ldc2_w", "iload", "lload", "fload",
	"dload", "aload", "iload_0", "iload_1", "iload_2", "iload_3", "lload_0", "lload_1",
	"lload_2", "lload_3", "fload_0", "fload_1", "fload_2", "fload_3", "dload_0", "dload_1",
	"dload_2", "dload_3", "aload_0", "aload_1", "aload_2", "aload_3", "iaload", "laload",
	"faload", "daload", "aaload", "baload", "caload", "saload", "istore", "lstore",
	"fstore", "dstore", "astore", "istore_0", "istore_1", "istore_2", "istore_3", "lstore_0",
	"lstore_1", "lstore_2", "lstore_3", "fstore_0", "fstore_1", "fstore_2", "fstore_3", "dstore_0",
	"dstore_1", "dstore_2", "dstore_3", "astore_0", "astore_1", "astore_2", "astore_3", "iastore",
	"lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore", "pop",
	"pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap",
	"iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub",
	"imul", "lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv",
	"irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg", "dneg",
	"ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land",
	"ior", "lor", "ixor", "lxor", "iinc", "i2l", "i2f", "i2d",
	"l2i", "l2f", "l2d", "f2i", "f2l", "f2d", "d2i", "d2l",
	"d2f", "i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl",
	"dcmpg", "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle", "if_icmpeq",
	"if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne", "goto",
	"jsr", "ret", "tableswitch", "lookupswitch", "ireturn", "lreturn", "freturn", "dreturn",
	"areturn", "return", "getstatic", "putstatic", "getfield", "putfield", "invokevirtual", "invokespecial",
	"invokestatic", "invokeinterface", "invokedynamic", "new", "newarray", "anewarray", "arraylength", "athrow",
	"checkcast", "instanceof", "monitorenter", "monitorexit", "wide", "multianewarray", "ifnull", "ifnonnull",
	"goto_w", "jsr_w",
}

// SwitchPadding 返回位于 pc 的 tableswitch/lookupswitch 操作码之后的对齐填充字节数
func SwitchPadding(pc int) int {
	return (4 - (pc+1)%4) % 4
}
