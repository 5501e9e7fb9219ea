// Package errors 提供 JVM 解释器的致命错误体系
package errors

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ============================================================================
// class 文件错误码 (C 开头)
// ============================================================================

const (
	C0001 = "C0001" // 魔数错误
	C0002 = "C0002" // 不支持的版本
	C0003 = "C0003" // 文件截断
	C0004 = "C0004" // 非法的常量池标签
	C0005 = "C0005" // 常量池引用非法
	C0006 = "C0006" // 描述符格式错误
)

// ============================================================================
// 运行时错误码 (R 开头)
// ============================================================================

const (
	// R0001-R0099: 通用运行时错误
	R0001 = "R0001" // 内部断言失败
	R0002 = "R0002" // 未知操作码
	R0003 = "R0003" // pc 越界

	// R0100-R0199: 数组错误
	R0100 = "R0100" // 数组索引越界
	R0101 = "R0101" // 数组长度为负

	// R0200-R0299: 数值错误
	R0200 = "R0200" // 整数除以零

	// R0300-R0399: 类型/对象错误
	R0300 = "R0300" // 空引用
	R0301 = "R0301" // 类型转换失败
	R0302 = "R0302" // 实例化抽象类/接口
	R0303 = "R0303" // 找不到类
	R0304 = "R0304" // 找不到字段
	R0305 = "R0305" // 找不到方法
	R0306 = "R0306" // 不支持的库调用
	R0307 = "R0307" // 静态/实例不匹配

	// R0400-R0499: 资源/限制错误
	R0400 = "R0400" // 调用栈过深
	R0401 = "R0401" // 操作数栈为空
	R0402 = "R0402" // 局部变量索引越界
)

// ============================================================================
// 错误码信息
// ============================================================================

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Level     Level  // 错误级别
	MessageID string // i18n 消息 ID
	Category  string // 错误分类
	Exception string // 对应的 JVM 异常/错误名
}

// classErrors class 文件错误码信息表
var classErrors = map[string]ErrorInfo{
	C0001: {C0001, LevelError, "class.bad_magic", "format", "ClassFormatError"},
	C0002: {C0002, LevelError, "class.unsupported_version", "format", "UnsupportedClassVersionError"},
	C0003: {C0003, LevelError, "class.truncated", "format", "ClassFormatError"},
	C0004: {C0004, LevelError, "class.invalid_tag", "format", "ClassFormatError"},
	C0005: {C0005, LevelError, "class.bad_constant_ref", "format", "ClassFormatError"},
	C0006: {C0006, LevelError, "class.bad_descriptor", "format", "ClassFormatError"},
}

// runtimeErrors 运行时错误码信息表
var runtimeErrors = map[string]ErrorInfo{
	// 通用错误
	R0001: {R0001, LevelError, "vm.internal_error", "runtime", "InternalError"},
	R0002: {R0002, LevelError, "vm.unknown_opcode", "runtime", "InternalError"},
	R0003: {R0003, LevelError, "vm.pc_out_of_bounds", "runtime", "InternalError"},

	// 数组错误
	R0100: {R0100, LevelError, "vm.array_index_out_of_bounds", "array", "ArrayIndexOutOfBoundsException"},
	R0101: {R0101, LevelError, "vm.negative_array_size", "array", "NegativeArraySizeException"},

	// 数值错误
	R0200: {R0200, LevelError, "vm.division_by_zero", "numeric", "ArithmeticException"},

	// 类型/对象错误
	R0300: {R0300, LevelError, "vm.null_reference", "type", "NullPointerException"},
	R0301: {R0301, LevelError, "vm.cannot_cast", "type", "ClassCastException"},
	R0302: {R0302, LevelError, "vm.instantiation", "type", "InstantiationError"},
	R0303: {R0303, LevelError, "vm.class_not_found", "linkage", "NoClassDefFoundError"},
	R0304: {R0304, LevelError, "vm.no_such_field", "linkage", "NoSuchFieldError"},
	R0305: {R0305, LevelError, "vm.no_such_method", "linkage", "NoSuchMethodError"},
	R0306: {R0306, LevelError, "vm.unsupported_library_call", "linkage", "UnsatisfiedLinkError"},
	R0307: {R0307, LevelError, "vm.incompatible_class_change", "linkage", "IncompatibleClassChangeError"},

	// 资源/限制错误
	R0400: {R0400, LevelError, "vm.call_stack_overflow", "resource", "StackOverflowError"},
	R0401: {R0401, LevelError, "vm.operand_stack_underflow", "resource", "IndexOutOfBoundsException"},
	R0402: {R0402, LevelError, "vm.local_out_of_range", "resource", "InternalError"},
}

// GetClassErrorInfo 获取 class 文件错误信息
func GetClassErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := classErrors[code]
	return info, ok
}

// GetRuntimeErrorInfo 获取运行时错误信息
func GetRuntimeErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := runtimeErrors[code]
	return info, ok
}

// IsClassError 检查是否为 class 文件错误码
func IsClassError(code string) bool {
	_, ok := classErrors[code]
	return ok
}

// IsRuntimeError 检查是否为运行时错误码
func IsRuntimeError(code string) bool {
	_, ok := runtimeErrors[code]
	return ok
}

// ExceptionName 返回错误码对应的 JVM 异常名
func ExceptionName(code string) string {
	if info, ok := runtimeErrors[code]; ok {
		return info.Exception
	}
	if info, ok := classErrors[code]; ok {
		return info.Exception
	}
	return "InternalError"
}
