package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// ============================================================================
// 加载测试
// ============================================================================

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "javm.toml")
	writeFile(t, path, `
classpath = ["lib", "classes"]
max_call_depth = 512
trace = true
lang = "zh"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxCallDepth != 512 {
		t.Errorf("Expected max_call_depth=512, got %d", cfg.MaxCallDepth)
	}
	if !cfg.Trace || cfg.Lang != "zh" {
		t.Errorf("Expected trace=true lang=zh, got %+v", cfg)
	}
	// 未出现的键保留默认值
	if cfg.MaxMajorVersion != DefaultMaxMajorVersion || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("Expected defaults to survive, got %+v", cfg)
	}
	if len(cfg.Classpath) != 2 || cfg.Classpath[1] != "classes" {
		t.Errorf("Unexpected classpath %v", cfg.Classpath)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "javm.yaml")
	writeFile(t, path, "max_major_version: 46\nlog_level: debug\ncolor: never\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxMajorVersion != 46 || cfg.LogLevel != "debug" || cfg.Color != "never" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestLoadInvalidSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "javm.toml")
	writeFile(t, path, "max_call_depth = [")
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

// ============================================================================
// 校验测试
// ============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errors int
	}{
		{"defaults", func(c *Config) {}, 0},
		{"negative depth", func(c *Config) { c.MaxCallDepth = -1 }, 1},
		{"old version", func(c *Config) { c.MaxMajorVersion = 44 }, 1},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, 1},
		{"language alias", func(c *Config) { c.Lang = "zh-cn" }, 1},
		{"everything wrong", func(c *Config) {
			c.MaxCallDepth = -5
			c.LogLevel = "x"
			c.Lang = "fr"
			c.Color = "rainbow"
		}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if got := len(multierr.Errors(err)); got != tt.errors {
				t.Errorf("Expected %d errors, got %d (%v)", tt.errors, got, err)
			}
		})
	}
}

// ============================================================================
// 查找测试
// ============================================================================

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "javm.yaml"), "trace: true\n")
	classFile := filepath.Join(root, "a", "b", "Main.class")
	writeFile(t, classFile, "")

	found := FindConfigFile(classFile)
	if !strings.HasSuffix(found, "javm.yaml") {
		t.Errorf("Expected to find javm.yaml, got %q", found)
	}

	cfg, path, err := LoadFor(classFile)
	if err != nil || path == "" || !cfg.Trace {
		t.Errorf("Expected LoadFor to load the found file, got %+v %q %v", cfg, path, err)
	}
}

func TestResolveClasspath(t *testing.T) {
	cfg := Default()
	if roots := cfg.ResolveClasspath("/proj", "/proj/bin"); len(roots) != 1 || roots[0] != "/proj/bin" {
		t.Errorf("Expected default root, got %v", roots)
	}
	cfg.Classpath = []string{"lib", "/abs"}
	roots := cfg.ResolveClasspath("/proj", "/proj/bin")
	if roots[0] != filepath.Join("/proj", "lib") || roots[1] != "/abs" {
		t.Errorf("Unexpected roots %v", roots)
	}
}
