// Package loader 在类路径中查找并读取 class 文件
package loader

import (
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

// 常量定义
const (
	ClassFileExtension = ".class" // class 文件后缀
	LibraryPrefix      = "java/"  // Java 库类前缀，这些类从不加载
)

// IsLibraryClass 是否为 Java 库类
func IsLibraryClass(name string) bool {
	return strings.HasPrefix(name, LibraryPrefix)
}

// Loader 类加载器
type Loader struct {
	roots           []string        // 类路径根目录，按顺序查找
	maxMajorVersion uint16          // 允许的最高主版本号
	log             *zap.Logger
	mu              sync.Mutex
	loaded          map[string]bool   // 类名 -> 是否已加载
	digests         map[string]string // 类名 -> BLAKE2b-256 摘要
}

// Option 加载器选项
type Option func(*Loader)

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithMaxMajorVersion 设置允许的最高 class 文件主版本号
func WithMaxMajorVersion(v uint16) Option {
	return func(l *Loader) {
		l.maxMajorVersion = v
	}
}

// New 创建加载器，roots 为空时使用当前目录
func New(roots []string, opts ...Option) *Loader {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	l := &Loader{
		roots:           roots,
		maxMajorVersion: classfile.DefaultMaxMajorVersion,
		log:             zap.NewNop(),
		loaded:          make(map[string]bool),
		digests:         make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Roots 返回类路径
func (l *Loader) Roots() []string {
	return l.roots
}

// Resolve 将类名 pkg/Name 映射为某个根目录下的 pkg/Name.class
func (l *Loader) Resolve(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !strings.HasSuffix(rel, ClassFileExtension) {
		rel += ClassFileExtension
	}
	for _, root := range l.roots {
		path := filepath.Join(root, rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", l.notFound(name)
}

func (l *Loader) notFound(name string) error {
	return errors.NewRuntimeError(errors.R0303, name).
		With("class", name).
		With("classpath", strings.Join(l.roots, string(os.PathListSeparator))).
		WithHints()
}

// Open 读取类的 class 文件字节，返回内容和文件路径
func (l *Loader) Open(name string) ([]byte, string, error) {
	if IsLibraryClass(name) {
		return nil, "", l.notFound(name)
	}
	path, err := l.Resolve(name)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to read class file: %w", err)
	}

	sum := blake2b.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	l.mu.Lock()
	l.digests[name] = digest
	l.mu.Unlock()

	l.log.Debug("class file read",
		zap.String("class", name),
		zap.String("path", path),
		zap.Int("size", len(data)),
		zap.String("blake2b", digest))
	return data, path, nil
}

// Load 读取并解析类
func (l *Loader) Load(name string) (*classfile.ClassFile, error) {
	data, path, err := l.Open(name)
	if err != nil {
		return nil, err
	}
	cf, err := classfile.Parse(data, classfile.WithMaxMajorVersion(l.maxMajorVersion))
	if err != nil {
		var ce *errors.ClassError
		if stderrors.As(err, &ce) {
			ce.File = path
		}
		return nil, err
	}
	l.MarkLoaded(name)
	return cf, nil
}

// MarkLoaded 标记类已加载
func (l *Loader) MarkLoaded(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded[name] = true
}

// IsLoaded 检查类是否已加载
func (l *Loader) IsLoaded(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[name]
}

// Digest 返回已读取类文件的 BLAKE2b-256 摘要（十六进制）
func (l *Loader) Digest(name string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.digests[name]
}
