package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/tangzhangming/javm/internal/i18n"
)

const (
	Version = "0.1.0"
)

// 退出码
const (
	exitOK           = 0
	exitFatal        = 1 // 运行时致命错误、用法错误、类名与文件名不符
	exitOutput       = 2 // 输出文件无法写入
	exitFormat       = 3 // ClassFormatError
	exitClassVersion = 4 // UnsupportedClassVersionError
)

// 命令行给出的语言，非空时配置文件中的 lang 不生效
var globalLang string

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, lang := splitLangFlag(argv)
	globalLang = lang
	if lang != "" {
		if err := i18n.SetLanguageFromString(lang); err != nil {
			fmt.Fprintln(os.Stderr, i18n.T(i18n.CliConfigError, err))
			return exitFatal
		}
	}

	if len(args) == 0 {
		printUsage()
		return exitOK
	}

	switch command := args[0]; command {
	case "run":
		return cmdRun(args[1:])
	case "dump":
		return cmdDump(args[1:])
	case "version", "-v", "--version":
		cmdVersion()
		return exitOK
	case "help", "-h", "--help":
		printUsage()
		return exitOK
	default:
		if isFlag(command) || len(args) > 2 {
			fmt.Fprintln(os.Stderr, i18n.T(i18n.CliUnknownCommand, command))
			fmt.Fprintln(os.Stderr)
			printUsage()
			return exitFatal
		}
		// 兼容用法：一个参数运行，两个参数输出到文件
		if len(args) == 2 {
			return dumpClass(args[0], args[1], formatText)
		}
		return runClass(args[0], runFlags{maxDepth: -1})
	}
}

// splitLangFlag 取出任意位置的全局语言参数（--lang zh、-lang zh、--lang=zh），
// 返回其余参数与语言名，最后出现的生效
func splitLangFlag(argv []string) (rest []string, lang string) {
	rest = make([]string, 0, len(argv))
	for i := 0; i < len(argv); i++ {
		name, value, hasValue := strings.Cut(strings.TrimLeft(argv[i], "-"), "=")
		if !isFlag(argv[i]) || name != "lang" {
			rest = append(rest, argv[i])
			continue
		}
		switch {
		case hasValue:
			lang = value
		case i+1 < len(argv):
			i++
			lang = argv[i]
		}
	}
	return rest, lang
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

func printUsage() {
	fmt.Print(i18n.T(i18n.CliUsage))
}

func cmdVersion() {
	fmt.Printf("javm %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
