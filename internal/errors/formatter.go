package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tangzhangming/javm/internal/i18n"
)

// ============================================================================
// 运行时错误
// ============================================================================

// StackFrame Java 调用栈帧
type StackFrame struct {
	ClassName  string // 类名
	MethodName string // 方法名
	Descriptor string // 方法描述符
	PC         int    // 出错时的程序计数器
	SourceFile string // 源文件名（可选）
	LineNumber int    // 行号（没有 LineNumberTable 时为 0）
}

// RuntimeError 运行时致命错误
type RuntimeError struct {
	Code      string                 // 错误码 (R0100)
	Level     Level                  // 错误级别
	Exception string                 // JVM 异常名
	Message   string                 // 主消息
	Context   map[string]interface{} // 上下文变量
	Frames    []StackFrame           // 堆栈帧，栈顶在前
	Hints     []string               // 修复建议
}

// NewRuntimeError 按错误码创建运行时错误，args 为消息模板参数
func NewRuntimeError(code string, args ...interface{}) *RuntimeError {
	info, ok := GetRuntimeErrorInfo(code)
	if !ok {
		info = runtimeErrors[R0001]
	}
	return &RuntimeError{
		Code:      code,
		Level:     info.Level,
		Exception: info.Exception,
		Message:   i18n.T(info.MessageID, args...),
	}
}

// Error 实现 error 接口
func (e *RuntimeError) Error() string {
	return e.Exception + ": " + e.Message
}

// With 追加上下文变量
func (e *RuntimeError) With(key string, value interface{}) *RuntimeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ============================================================================
// class 文件错误
// ============================================================================

// ClassError class 文件解析/校验错误
type ClassError struct {
	Code      string // 错误码 (C0001)
	Exception string // ClassFormatError / UnsupportedClassVersionError
	Message   string
	File      string // 文件路径（可选）
}

// NewClassError 按错误码创建 class 文件错误
func NewClassError(code string, args ...interface{}) *ClassError {
	info, ok := GetClassErrorInfo(code)
	if !ok {
		info = classErrors[C0001]
	}
	return &ClassError{
		Code:      code,
		Exception: info.Exception,
		Message:   i18n.T(info.MessageID, args...),
	}
}

// Error 实现 error 接口
func (e *ClassError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Exception, e.Message)
	}
	return e.Exception + ": " + e.Message
}

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 错误格式化器
type Formatter struct {
	Colors      bool // 是否使用颜色
	ShowHints   bool // 是否显示修复建议
	ShowContext bool // 是否显示上下文变量
	MaxFrames   int  // 最多显示的堆栈帧数，0 表示全部
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:      ColorsEnabled(),
		ShowHints:   true,
		ShowContext: true,
	}
}

// Format 格式化任意错误
func (f *Formatter) Format(err error) string {
	switch e := err.(type) {
	case *RuntimeError:
		return f.FormatRuntimeError(e)
	case *ClassError:
		return f.FormatClassError(e)
	default:
		return f.colorize("error", ColorRed) + ": " + err.Error() + "\n"
	}
}

// FormatRuntimeError 格式化运行时错误
func (f *Formatter) FormatRuntimeError(err *RuntimeError) string {
	var sb strings.Builder

	// 异常类型和消息: NullPointerException[R0300]: ...
	nameStr := f.colorize(err.Exception, ColorBoldRed)
	codeStr := f.colorize(fmt.Sprintf("[%s]", err.Code), ColorRed)
	sb.WriteString(fmt.Sprintf("%s%s: %s\n", nameStr, codeStr, err.Message))

	// 上下文信息，按键排序保证输出稳定
	if f.ShowContext && len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			keyStr := f.colorize(fmt.Sprintf("  %s:", key), ColorYellow)
			sb.WriteString(fmt.Sprintf("%s %v\n", keyStr, err.Context[key]))
		}
	}

	// 堆栈跟踪
	frames := err.Frames
	if f.MaxFrames > 0 && len(frames) > f.MaxFrames {
		frames = frames[:f.MaxFrames]
	}
	for _, frame := range frames {
		atStr := f.colorize("at", ColorDim)
		funcStr := f.colorize(frame.ClassName+"."+frame.MethodName, ColorYellow)
		var loc string
		switch {
		case frame.SourceFile != "" && frame.LineNumber > 0:
			loc = fmt.Sprintf("(%s:%d)", frame.SourceFile, frame.LineNumber)
		case frame.SourceFile != "":
			loc = fmt.Sprintf("(%s, pc %d)", frame.SourceFile, frame.PC)
		default:
			loc = fmt.Sprintf("(pc %d)", frame.PC)
		}
		sb.WriteString(fmt.Sprintf("    %s %s%s\n", atStr, funcStr, f.colorize(loc, ColorCyan)))
	}
	if len(frames) < len(err.Frames) {
		sb.WriteString(fmt.Sprintf("    ... %d more\n", len(err.Frames)-len(frames)))
	}

	// 修复建议
	if f.ShowHints {
		for _, hint := range err.Hints {
			hintLabel := f.colorize(" = help:", ColorCyan)
			sb.WriteString(fmt.Sprintf("%s %s\n", hintLabel, hint))
		}
	}

	return sb.String()
}

// FormatClassError 格式化 class 文件错误
func (f *Formatter) FormatClassError(err *ClassError) string {
	nameStr := f.colorize(err.Exception, ColorBoldRed)
	codeStr := f.colorize(fmt.Sprintf("[%s]", err.Code), ColorRed)
	line := fmt.Sprintf("%s%s: %s\n", nameStr, codeStr, err.Message)
	if err.File != "" {
		arrow := f.colorize("-->", ColorCyan)
		line += fmt.Sprintf(" %s %s\n", arrow, f.colorize(err.File, ColorCyan))
	}
	return line
}

// colorize 着色字符串
func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return paint(s, color)
}

// ============================================================================
// 全局格式化器
// ============================================================================

var defaultFormatter = NewFormatter()

// SetDefaultFormatter 设置默认格式化器
func SetDefaultFormatter(f *Formatter) {
	defaultFormatter = f
}

// GetDefaultFormatter 获取默认格式化器
func GetDefaultFormatter() *Formatter {
	return defaultFormatter
}

// Format 使用默认格式化器格式化错误
func Format(err error) string {
	return defaultFormatter.Format(err)
}
