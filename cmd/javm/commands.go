package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/config"
	"github.com/tangzhangming/javm/internal/errors"
	"github.com/tangzhangming/javm/internal/i18n"
	"github.com/tangzhangming/javm/internal/loader"
	"github.com/tangzhangming/javm/internal/logging"
	"github.com/tangzhangming/javm/internal/vm"
)

// dump 输出格式
const (
	formatText = "text"
	formatJSON = "json"
)

// runFlags run 子命令的参数，零值表示沿用配置文件
type runFlags struct {
	classpath string
	config    string
	trace     bool
	maxDepth  int // -1 表示未指定
}

// ============================================================================
// run
// ============================================================================

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var rf runFlags
	fs.StringVar(&rf.classpath, "cp", "", "class path roots")
	fs.StringVar(&rf.config, "config", "", "configuration file")
	fs.BoolVar(&rf.trace, "trace", false, "log every executed instruction")
	fs.IntVar(&rf.maxDepth, "max-depth", -1, "call depth limit, 0 means unbounded")
	fs.Usage = printUsage

	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliMissingClassFile))
		return exitFatal
	}
	return runClass(fs.Arg(0), rf)
}

// runClass 解析入口 class 文件并执行其 main 方法
func runClass(path string, rf runFlags) (code int) {
	cfg, code := loadConfig(path, rf.config)
	if cfg == nil {
		return code
	}
	if rf.classpath != "" {
		cfg.Classpath = filepath.SplitList(rf.classpath)
	}
	if rf.trace {
		cfg.Trace = true
	}
	if rf.maxDepth >= 0 {
		cfg.MaxCallDepth = rf.maxDepth
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliConfigError, err))
		return exitFatal
	}
	defer func() {
		if err := log.Close(); err != nil {
			fmt.Fprintln(os.Stderr, i18n.T(i18n.CliCannotWrite, cfg.LogFile, err))
			if code == exitOK {
				code = exitOutput
			}
		}
	}()

	cf, code := parseClassFile(path, cfg)
	if cf == nil {
		return code
	}
	name, err := cf.Name()
	if err != nil {
		return report(err)
	}
	base := strings.TrimSuffix(filepath.Base(path), loader.ClassFileExtension)
	if simpleName(name) != base {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliClassNameMismatch, name, filepath.Base(path)))
		return exitFatal
	}

	roots := classpathRoots(cfg, rf, path, name)
	ld := loader.New(roots,
		loader.WithLogger(log.Logger),
		loader.WithMaxMajorVersion(uint16(cfg.MaxMajorVersion)))
	ld.MarkLoaded(name)

	log.Info("starting",
		zap.String("class", name),
		zap.String("path", path),
		zap.Strings("classpath", roots),
		zap.Int("max_call_depth", cfg.MaxCallDepth))

	machine := vm.New(&entrySource{name: name, file: cf, next: ld},
		vm.WithStdout(os.Stdout),
		vm.WithLogger(log.Logger),
		vm.WithMaxCallDepth(cfg.MaxCallDepth),
		vm.WithTrace(cfg.Trace))
	if err := machine.Run(name); err != nil {
		log.Debug("run failed", zap.Object("stats", machine.Stats()), zap.Error(err))
		return report(err)
	}
	log.Info("finished",
		zap.Object("stats", machine.Stats()),
		zap.Strings("classes", machine.MethodArea().Classes()))
	return exitOK
}

// entrySource 入口类使用命令行给出的文件，其余类从类路径加载
type entrySource struct {
	name string
	file *classfile.ClassFile
	next vm.ClassSource
}

func (s *entrySource) Load(name string) (*classfile.ClassFile, error) {
	if name == s.name {
		return s.file, nil
	}
	return s.next.Load(name)
}

// simpleName 去掉包名的类名
func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// packageRoot 入口类所在的类路径根：从文件目录按包名层数向上
func packageRoot(path, name string) string {
	dir := filepath.Dir(path)
	for i := strings.Count(name, "/"); i > 0; i-- {
		dir = filepath.Dir(dir)
	}
	return dir
}

// classpathRoots 命令行 -cp 中的相对路径相对当前目录，配置文件中的相对配置文件所在目录
func classpathRoots(cfg *config.Config, rf runFlags, path, name string) []string {
	base := ""
	if rf.classpath == "" {
		base = configBase(path, rf.config)
	}
	return cfg.ResolveClasspath(base, packageRoot(path, name))
}

// configBase 配置文件中类路径的基准目录
func configBase(path, explicit string) string {
	if explicit != "" {
		return filepath.Dir(explicit)
	}
	if found := config.FindConfigFile(path); found != "" {
		return filepath.Dir(found)
	}
	return ""
}

// ============================================================================
// dump
// ============================================================================

func cmdDump(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	format := fs.String("format", formatText, "output format: text or json")
	output := fs.String("o", "", "write the dump to a file")
	fs.Usage = printUsage

	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliMissingClassFile))
		return exitFatal
	}
	return dumpClass(fs.Arg(0), *output, *format)
}

// dumpClass 打印 class 文件结构，output 为空时输出到标准输出
func dumpClass(path, output, format string) int {
	if format != formatText && format != formatJSON {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliUnknownFormat, format))
		return exitFatal
	}
	cfg, code := loadConfig(path, "")
	if cfg == nil {
		return code
	}
	cf, code := parseClassFile(path, cfg)
	if cf == nil {
		return code
	}

	var (
		w      io.Writer = os.Stdout
		closer io.Closer
	)
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			fmt.Fprintln(os.Stderr, i18n.T(i18n.CliCannotWrite, output, err))
			return exitOutput
		}
		w, closer = f, f
	}

	if err := writeDump(w, closer, cf, format); err != nil {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliCannotWrite, output, err))
		return exitOutput
	}
	return exitOK
}

// writeDump 按格式写出并关闭输出文件，写入与关闭的错误合并返回
func writeDump(w io.Writer, closer io.Closer, cf *classfile.ClassFile, format string) error {
	var err error
	if format == formatJSON {
		err = classfile.WriteJSON(w, cf)
	} else {
		err = classfile.NewPrinter(w).Print(cf)
	}
	if closer != nil {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

// ============================================================================
// 公共步骤
// ============================================================================

// loadConfig 加载显式指定或入口文件附近的配置，并应用语言与颜色设置
func loadConfig(path, explicit string) (*config.Config, int) {
	var (
		cfg *config.Config
		err error
	)
	if explicit != "" {
		cfg, err = config.Load(explicit)
	} else {
		cfg, _, err = config.LoadFor(path)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliConfigError, err))
		return nil, exitFatal
	}
	if globalLang == "" {
		// Validate 已检查过 lang
		_ = i18n.SetLanguageFromString(cfg.Lang)
	}
	errors.SetColorMode(cfg.Color)
	return cfg, exitOK
}

// parseClassFile 读取并解析入口 class 文件
func parseClassFile(path string, cfg *config.Config) (*classfile.ClassFile, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CliCannotRead, path, err))
		return nil, exitFatal
	}
	cf, err := classfile.Parse(data, classfile.WithMaxMajorVersion(uint16(cfg.MaxMajorVersion)))
	if err != nil {
		var ce *errors.ClassError
		if stderrors.As(err, &ce) {
			ce.File = path
		}
		return nil, report(err)
	}
	return cf, exitOK
}

// report 输出错误并返回对应的退出码
func report(err error) int {
	fmt.Fprint(os.Stderr, errors.Format(err))
	return exitCodeFor(err)
}

// exitCodeFor class 文件错误按异常类型区分，其余错误均为 1
func exitCodeFor(err error) int {
	var ce *errors.ClassError
	if !stderrors.As(err, &ce) {
		return exitFatal
	}
	if ce.Code == errors.C0002 {
		return exitClassVersion
	}
	return exitFormat
}
