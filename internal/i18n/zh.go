package i18n

var messagesZH = map[string]string{
	// ========== class 文件 ==========
	ErrBadMagic:           "不兼容的魔数 0x%08X",
	ErrUnsupportedVersion: "class 文件版本 %d.%d (Java %s) 高于支持的最高版本 %d (Java %s)",
	ErrTruncated:          "class 文件在偏移 %d 处被截断：还需要 %d 字节",
	ErrInvalidTag:         "常量池索引 %[2]d 处的标签 %[1]d 无效",
	ErrBadConstantRef:     "无效的常量池引用 #%d（期望 %s）",
	ErrBadDescriptor:      "格式错误的描述符 %q",

	// ========== 虚拟机 ==========
	ErrInternal:               "内部错误: %s",
	ErrUnknownOpcode:          "未知操作码 0x%02x（pc %d）",
	ErrPCOutOfBounds:          "pc %d 超出代码长度 %d",
	ErrArrayIndexOutOfBounds:  "索引 %d 越界，数组长度 %d",
	ErrNegativeArraySize:      "%d",
	ErrDivisionByZero:         "/ by zero",
	ErrNullReference:          "不能在空引用上执行 %s",
	ErrCannotCast:             "类 %s 不能转换为类 %s",
	ErrInstantiation:          "%s",
	ErrClassNotFound:          "%s",
	ErrNoSuchField:            "%s.%s",
	ErrNoSuchMethod:           "%s.%s%s",
	ErrUnsupportedLibraryCall: "不支持的库方法 %s.%s%s",
	ErrIncompatibleClass:      "方法 %s.%s%s 不是 %s 方法",
	ErrCallStackOverflow:      "调用深度超过 %d 帧的限制",
	ErrOperandStackUnderflow:  "从空操作数栈弹出",
	ErrLocalOutOfRange:        "局部变量索引 %d 越界（max_locals %d）",

	// ========== 修复建议 ==========
	HintArrayIndexRange:  "有效的索引范围是 [0, %d]",
	HintEmptyArray:       "数组为空，没有有效索引",
	HintCheckDivisor:     "在除法运算前检查除数是否为零",
	HintCheckNull:        "确保引用在使用前已被赋值",
	HintCheckCast:        "用 instanceof %s 保护类型转换",
	HintCheckRecursion:   "检查递归是否有正确的终止条件",
	HintRaiseDepth:       "在 javm.toml 中调大 max_call_depth 或使用 -max-depth",
	HintCheckClasspath:   "确保 %s.class 在类路径中（%s）",
	HintRecompileTarget:  "使用 javac --release 8 重新编译，或调大 max_major_version",
	HintConcreteClass:    "%s 是抽象类，请实例化具体子类",
	HintSupportedLibrary: "Java 库中只支持 PrintStream.print/println 和 String.equals/length/charAt",
	HintCheckMember:      "将 %s 与使用它的类一起重新编译",
	HintRecompileBoth:    "调用方是针对另一个版本的 %s 编译的",
	HintNotAClassFile:    "文件不以 0xCAFEBABE 开头，不是 class 文件",

	// ========== 命令行 ==========
	CliUsage: `javm - 小型 Java 字节码解释器

用法:
  javm run [选项] <Class.class>        运行类的 main 方法
  javm dump [选项] <Class.class>       打印 class 文件结构
  javm version                         打印版本信息
  javm help                            显示帮助
  javm <Class.class> [输出文件]        运行类，或将其结构输出到文件

run 选项:
  -cp <路径>         类路径，用系统列表分隔符分隔
  -config <文件>     配置文件 (javm.toml / javm.yaml)
  -max-depth <n>     调用深度上限，0 表示不限制
  -trace             记录每条执行的指令

dump 选项:
  -format text|json  输出格式
  -o <文件>          输出到文件
`,
	CliUnknownCommand:    "未知命令: %s",
	CliMissingClassFile:  "缺少 class 文件参数",
	CliCannotRead:        "无法读取 %s: %v",
	CliCannotWrite:       "无法写入 %s: %v",
	CliClassNameMismatch: "类名 %s 与文件名 %s 不匹配",
	CliConfigError:       "配置错误: %v",
	CliUnknownFormat:     "未知的输出格式: %s",
}
