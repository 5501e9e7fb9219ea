package i18n

var messagesEN = map[string]string{
	// ========== class 文件 ==========
	ErrBadMagic:           "incompatible magic value 0x%08X",
	ErrUnsupportedVersion: "class file version %d.%d (Java %s) is newer than the supported maximum %d (Java %s)",
	ErrTruncated:          "truncated class file at offset %d: need %d more bytes",
	ErrInvalidTag:         "invalid constant pool tag %d at index %d",
	ErrBadConstantRef:     "invalid constant pool reference #%d (expected %s)",
	ErrBadDescriptor:      "malformed descriptor %q",

	// ========== 虚拟机 ==========
	ErrInternal:               "internal error: %s",
	ErrUnknownOpcode:          "unknown opcode 0x%02x at pc %d",
	ErrPCOutOfBounds:          "pc %d is outside code of length %d",
	ErrArrayIndexOutOfBounds:  "Index %d out of bounds for length %d",
	ErrNegativeArraySize:      "%d",
	ErrDivisionByZero:         "/ by zero",
	ErrNullReference:          "cannot %s on a null reference",
	ErrCannotCast:             "class %s cannot be cast to class %s",
	ErrInstantiation:          "%s",
	ErrClassNotFound:          "%s",
	ErrNoSuchField:            "%s.%s",
	ErrNoSuchMethod:           "%s.%s%s",
	ErrUnsupportedLibraryCall: "unsupported library method %s.%s%s",
	ErrIncompatibleClass:      "method %s.%s%s is not %s",
	ErrCallStackOverflow:      "call depth exceeded the limit of %d frames",
	ErrOperandStackUnderflow:  "pop from an empty operand stack",
	ErrLocalOutOfRange:        "local variable index %d out of range (max_locals %d)",

	// ========== 修复建议 ==========
	HintArrayIndexRange:  "valid indices are [0, %d]",
	HintEmptyArray:       "the array is empty; no index is valid",
	HintCheckDivisor:     "check the divisor against zero before dividing",
	HintCheckNull:        "make sure the reference is assigned before it is used",
	HintCheckCast:        "guard the cast with instanceof %s",
	HintCheckRecursion:   "check that the recursion has a base case",
	HintRaiseDepth:       "raise max_call_depth in javm.toml or pass -max-depth",
	HintCheckClasspath:   "make sure %s.class is on the class path (%s)",
	HintRecompileTarget:  "recompile with javac --release 8 or raise max_major_version",
	HintConcreteClass:    "%s is abstract; instantiate a concrete subclass",
	HintSupportedLibrary: "only PrintStream.print/println and String.equals/length/charAt are available from the Java library",
	HintCheckMember:      "recompile %s together with the classes that use it",
	HintRecompileBoth:    "the calling class was compiled against a different version of %s",
	HintNotAClassFile:    "the file does not start with 0xCAFEBABE; it is not a class file",

	// ========== 命令行 ==========
	CliUsage: `javm - a small Java bytecode interpreter

Usage:
  javm run [options] <Class.class>     run the main method of a class
  javm dump [options] <Class.class>    print the structure of a class file
  javm version                         print version information
  javm help                            show this help
  javm <Class.class> [output]          run a class, or dump it to output

Run options:
  -cp <paths>        class path roots, separated by the OS list separator
  -config <file>     configuration file (javm.toml / javm.yaml)
  -max-depth <n>     call depth limit, 0 means unbounded
  -trace             log every executed instruction

Dump options:
  -format text|json  output format
  -o <file>          write the dump to a file
`,
	CliUnknownCommand:    "unknown command: %s",
	CliMissingClassFile:  "missing class file argument",
	CliCannotRead:        "cannot read %s: %v",
	CliCannotWrite:       "cannot write %s: %v",
	CliClassNameMismatch: "class name %s does not match file name %s",
	CliConfigError:       "configuration error: %v",
	CliUnknownFormat:     "unknown dump format: %s",
}
