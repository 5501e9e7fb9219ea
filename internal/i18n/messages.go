package i18n

// 消息 ID 常量

// ========== class 文件 ==========
const (
	ErrBadMagic           = "class.bad_magic"
	ErrUnsupportedVersion = "class.unsupported_version"
	ErrTruncated          = "class.truncated"
	ErrInvalidTag         = "class.invalid_tag"
	ErrBadConstantRef     = "class.bad_constant_ref"
	ErrBadDescriptor      = "class.bad_descriptor"
)

// ========== 虚拟机 ==========
const (
	ErrInternal               = "vm.internal_error"
	ErrUnknownOpcode          = "vm.unknown_opcode"
	ErrPCOutOfBounds          = "vm.pc_out_of_bounds"
	ErrArrayIndexOutOfBounds  = "vm.array_index_out_of_bounds"
	ErrNegativeArraySize      = "vm.negative_array_size"
	ErrDivisionByZero         = "vm.division_by_zero"
	ErrNullReference          = "vm.null_reference"
	ErrCannotCast             = "vm.cannot_cast"
	ErrInstantiation          = "vm.instantiation"
	ErrClassNotFound          = "vm.class_not_found"
	ErrNoSuchField            = "vm.no_such_field"
	ErrNoSuchMethod           = "vm.no_such_method"
	ErrUnsupportedLibraryCall = "vm.unsupported_library_call"
	ErrIncompatibleClass      = "vm.incompatible_class_change"
	ErrCallStackOverflow      = "vm.call_stack_overflow"
	ErrOperandStackUnderflow  = "vm.operand_stack_underflow"
	ErrLocalOutOfRange        = "vm.local_out_of_range"
)

// ========== 修复建议 ==========
const (
	HintArrayIndexRange  = "suggestion.array_index_range"
	HintEmptyArray       = "suggestion.empty_array"
	HintCheckDivisor     = "suggestion.check_divisor"
	HintCheckNull        = "suggestion.check_null"
	HintCheckCast        = "suggestion.check_cast"
	HintCheckRecursion   = "suggestion.check_recursion"
	HintRaiseDepth       = "suggestion.raise_depth"
	HintCheckClasspath   = "suggestion.check_classpath"
	HintRecompileTarget  = "suggestion.recompile_target"
	HintConcreteClass    = "suggestion.concrete_class"
	HintSupportedLibrary = "suggestion.supported_library"
	HintCheckMember      = "suggestion.check_member"
	HintRecompileBoth    = "suggestion.recompile_both"
	HintNotAClassFile    = "suggestion.not_a_class_file"
)

// ========== 命令行 ==========
const (
	CliUsage             = "cli.usage"
	CliUnknownCommand    = "cli.unknown_command"
	CliMissingClassFile  = "cli.missing_class_file"
	CliCannotRead        = "cli.cannot_read"
	CliCannotWrite       = "cli.cannot_write"
	CliClassNameMismatch = "cli.class_name_mismatch"
	CliConfigError       = "cli.config_error"
	CliUnknownFormat     = "cli.unknown_format"
)
