package errors

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Color 诊断输出用到的终端颜色
type Color uint8

const (
	ColorRed     Color = iota + 1 // 错误码
	ColorBoldRed                  // 异常名
	ColorYellow                   // 上下文键、方法名
	ColorCyan                     // 位置与提示
	ColorDim                      // "at"
)

const ansiReset = "\033[0m"

var ansiCodes = [...]string{
	ColorRed:     "\033[31m",
	ColorBoldRed: "\033[1;31m",
	ColorYellow:  "\033[33m",
	ColorCyan:    "\033[36m",
	ColorDim:     "\033[2m",
}

// ColorMode 配置项 color 的取值
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// colorsEnabled 诊断写往 stderr，按 stderr 判断
var colorsEnabled = stderrIsTerminal()

// stderrIsTerminal NO_COLOR 或 TERM=dumb 时视为不支持颜色
func stderrIsTerminal() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ColorsEnabled 全局格式化器是否着色
func ColorsEnabled() bool {
	return colorsEnabled
}

// SetColorMode 按配置设置颜色，未知取值按 auto 处理
func SetColorMode(mode string) {
	switch ColorMode(mode) {
	case ColorAlways:
		colorsEnabled = true
	case ColorNever:
		colorsEnabled = false
	default:
		colorsEnabled = stderrIsTerminal()
	}
	defaultFormatter.Colors = colorsEnabled
}

func paint(s string, color Color) string {
	if int(color) >= len(ansiCodes) || ansiCodes[color] == "" {
		return s
	}
	return ansiCodes[color] + s + ansiReset
}

// Strip 去掉 paint 加上的转义序列
func Strip(s string) string {
	s = strings.ReplaceAll(s, ansiReset, "")
	for _, code := range ansiCodes {
		if code != "" {
			s = strings.ReplaceAll(s, code, "")
		}
	}
	return s
}
