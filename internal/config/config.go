// Package config 加载 javm 的运行配置
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/tangzhangming/javm/internal/i18n"
)

// 配置文件名，按顺序查找
var ConfigFileNames = []string{"javm.toml", "javm.yaml", "javm.yml"}

// 默认值
const (
	DefaultMaxMajorVersion = 52
	DefaultLogLevel        = "warn"
	DefaultLang            = "en"
	DefaultColor           = "auto"
)

// Config 解释器配置
type Config struct {
	// Classpath 类路径根目录，为空时使用入口类所在目录
	Classpath []string `toml:"classpath" yaml:"classpath"`

	// MaxCallDepth 调用深度上限，0 表示不限制
	MaxCallDepth int `toml:"max_call_depth" yaml:"max_call_depth"`

	// MaxMajorVersion 允许加载的最高 class 文件主版本号
	MaxMajorVersion int `toml:"max_major_version" yaml:"max_major_version"`

	LogLevel string `toml:"log_level" yaml:"log_level"` // debug / info / warn / error
	LogFile  string `toml:"log_file" yaml:"log_file"`   // 为空时输出到 stderr
	Trace    bool   `toml:"trace" yaml:"trace"`         // 逐条记录执行的指令
	Lang     string `toml:"lang" yaml:"lang"`           // en / zh
	Color    string `toml:"color" yaml:"color"`         // auto / always / never
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		MaxMajorVersion: DefaultMaxMajorVersion,
		LogLevel:        DefaultLogLevel,
		Lang:            DefaultLang,
		Color:           DefaultColor,
	}
}

// Load 从文件加载配置，按扩展名选择 TOML 或 YAML。
// 文件中未出现的键保留默认值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFor 为入口 class 文件查找并加载配置，找不到时返回默认配置
func LoadFor(classPath string) (*Config, string, error) {
	path := FindConfigFile(classPath)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate 校验配置，所有问题合并为一个错误返回
func (c *Config) Validate() error {
	var err error
	if c.MaxCallDepth < 0 {
		err = multierr.Append(err, fmt.Errorf("max_call_depth must not be negative, got %d", c.MaxCallDepth))
	}
	if c.MaxMajorVersion < 45 || c.MaxMajorVersion > 0xFFFF {
		err = multierr.Append(err, fmt.Errorf("max_major_version must be at least 45, got %d", c.MaxMajorVersion))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if _, langErr := i18n.ParseLanguage(c.Lang); langErr != nil {
		err = multierr.Append(err, fmt.Errorf("lang: %w", langErr))
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown color mode %q", c.Color))
	}
	return err
}

// ResolveClasspath 将相对类路径转换为相对 base 目录的路径；为空时返回 [defaultRoot]
func (c *Config) ResolveClasspath(base, defaultRoot string) []string {
	if len(c.Classpath) == 0 {
		return []string{defaultRoot}
	}
	roots := make([]string, 0, len(c.Classpath))
	for _, p := range c.Classpath {
		if !filepath.IsAbs(p) && base != "" {
			p = filepath.Join(base, p)
		}
		roots = append(roots, p)
	}
	return roots
}

// FindConfigFile 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func FindConfigFile(startPath string) string {
	// 如果是文件，从其所在目录开始
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	var dir string
	if info.IsDir() {
		dir = startPath
	} else {
		dir = filepath.Dir(startPath)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	// 向上查找
	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// 已到达根目录
			return ""
		}
		dir = parent
	}
}
