package errors

import (
	"strings"
	"testing"

	"github.com/tangzhangming/javm/internal/i18n"
)

// ============================================================================
// 错误码测试
// ============================================================================

func TestExceptionName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{R0100, "ArrayIndexOutOfBoundsException"},
		{R0200, "ArithmeticException"},
		{R0300, "NullPointerException"},
		{R0400, "StackOverflowError"},
		{R0401, "IndexOutOfBoundsException"},
		{C0001, "ClassFormatError"},
		{C0002, "UnsupportedClassVersionError"},
		{"X9999", "InternalError"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ExceptionName(tt.code); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCodeClassification(t *testing.T) {
	if !IsClassError(C0003) || IsRuntimeError(C0003) {
		t.Errorf("C0003 should be a class error only")
	}
	if !IsRuntimeError(R0305) || IsClassError(R0305) {
		t.Errorf("R0305 should be a runtime error only")
	}
}

// ============================================================================
// 错误构造测试
// ============================================================================

func TestNewRuntimeError(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	err := NewRuntimeError(R0100, 5, 3)
	if err.Exception != "ArrayIndexOutOfBoundsException" {
		t.Errorf("Expected ArrayIndexOutOfBoundsException, got %s", err.Exception)
	}
	want := "ArrayIndexOutOfBoundsException: Index 5 out of bounds for length 3"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestNewRuntimeErrorUnknownCode(t *testing.T) {
	err := NewRuntimeError("R9999", "boom")
	if err.Exception != "InternalError" {
		t.Errorf("Expected InternalError, got %s", err.Exception)
	}
}

func TestNewClassError(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	err := NewClassError(C0001, uint32(0xDEADBEEF))
	if !strings.Contains(err.Error(), "0xDEADBEEF") {
		t.Errorf("Expected magic in message, got %q", err.Error())
	}
	err.File = "Foo.class"
	if !strings.HasPrefix(err.Error(), "Foo.class: ClassFormatError") {
		t.Errorf("Expected file prefix, got %q", err.Error())
	}
}

// ============================================================================
// 格式化测试
// ============================================================================

func TestFormatRuntimeError(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	err := NewRuntimeError(R0200).With("opcode", "idiv").WithHints()
	err.Frames = []StackFrame{
		{ClassName: "Calc", MethodName: "divide", PC: 4, SourceFile: "Calc.java", LineNumber: 12},
		{ClassName: "Calc", MethodName: "main", PC: 9},
	}

	f := &Formatter{ShowHints: true, ShowContext: true}
	out := f.Format(err)

	expected := []string{
		"ArithmeticException[R0200]: / by zero",
		"opcode: idiv",
		"at Calc.divide(Calc.java:12)",
		"at Calc.main(pc 9)",
		"help:",
	}
	for _, s := range expected {
		if !strings.Contains(out, s) {
			t.Errorf("Expected output to contain %q, got:\n%s", s, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("Expected no color codes when Colors=false")
	}
}

func TestFormatMaxFrames(t *testing.T) {
	err := NewRuntimeError(R0400, 3)
	for i := 0; i < 5; i++ {
		err.Frames = append(err.Frames, StackFrame{ClassName: "R", MethodName: "f", PC: i})
	}
	f := &Formatter{MaxFrames: 2}
	out := f.Format(err)
	if strings.Count(out, "at R.f") != 2 {
		t.Errorf("Expected 2 frames, got:\n%s", out)
	}
	if !strings.Contains(out, "... 3 more") {
		t.Errorf("Expected elision marker, got:\n%s", out)
	}
}

func TestColorizeAndStrip(t *testing.T) {
	f := &Formatter{Colors: true}
	s := f.colorize("x", ColorRed)
	if s == "x" {
		t.Errorf("Expected colored string")
	}
	if Strip(s) != "x" {
		t.Errorf("Expected Strip to remove codes, got %q", Strip(s))
	}
}

func TestSetColorMode(t *testing.T) {
	defer SetColorMode(string(ColorNever))

	SetColorMode(string(ColorAlways))
	if !ColorsEnabled() || !defaultFormatter.Colors {
		t.Errorf("Expected always to enable colors")
	}
	SetColorMode(string(ColorNever))
	if ColorsEnabled() || defaultFormatter.Colors {
		t.Errorf("Expected never to disable colors")
	}
	t.Setenv("NO_COLOR", "1")
	SetColorMode(string(ColorAuto))
	if ColorsEnabled() {
		t.Errorf("Expected NO_COLOR to disable colors in auto mode")
	}
}

// ============================================================================
// 修复建议测试
// ============================================================================

func TestSuggestions(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)

	hints := GetSuggestions(R0100, map[string]interface{}{"length": 4})
	if len(hints) != 1 || !strings.Contains(hints[0], "[0, 3]") {
		t.Errorf("Expected index range hint, got %v", hints)
	}

	hints = GetSuggestions(R0100, map[string]interface{}{"length": 0})
	if len(hints) != 1 || !strings.Contains(hints[0], "empty") {
		t.Errorf("Expected empty array hint, got %v", hints)
	}

	if hints := GetSuggestions(R0400, nil); len(hints) != 2 {
		t.Errorf("Expected 2 stack overflow hints, got %v", hints)
	}

	if hints := GetSuggestions(R0001, nil); hints != nil {
		t.Errorf("Expected no hints for internal error, got %v", hints)
	}
}

func TestChineseMessages(t *testing.T) {
	i18n.SetLanguage(i18n.LangChinese)
	defer i18n.SetLanguage(i18n.LangEnglish)

	err := NewRuntimeError(R0401)
	if err.Message != "从空操作数栈弹出" {
		t.Errorf("Expected Chinese message, got %q", err.Message)
	}
}
