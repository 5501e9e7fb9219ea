package vm

import (
	"go.uber.org/zap"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
	"github.com/tangzhangming/javm/internal/loader"
)

// ============================================================================
// 方法区
// ============================================================================

// 静态初始化方法
const (
	ClinitName       = "<clinit>"
	ClinitDescriptor = "()V"
)

// LoadStatus 解析结果：已解析，或因新类的 <clinit> 被压栈而需要推迟
type LoadStatus uint8

const (
	Resolved LoadStatus = iota
	Deferred
)

func (s LoadStatus) String() string {
	if s == Deferred {
		return "deferred"
	}
	return "resolved"
}

// ClassSource 按类名提供解析后的 class 结构，*loader.Loader 满足该接口
type ClassSource interface {
	Load(name string) (*classfile.ClassFile, error)
}

// MethodArea 已加载类的注册表，每个类最多加载一次
type MethodArea struct {
	source  ClassSource
	stack   *VMStack
	classes map[string]*ClassRuntime
	order   []string
	log     *zap.Logger
	stats   *Stats
}

// NewMethodArea 创建方法区
func NewMethodArea(source ClassSource, stack *VMStack, log *zap.Logger, stats *Stats) *MethodArea {
	if log == nil {
		log = zap.NewNop()
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &MethodArea{
		source:  source,
		stack:   stack,
		classes: make(map[string]*ClassRuntime),
		log:     log,
		stats:   stats,
	}
}

// Load 返回已注册的类；首次加载时注册该类，若类声明了 <clinit>
// 则把它的帧压到调用栈顶并返回 Deferred，调用方必须放弃当前指令的剩余效果。
func (a *MethodArea) Load(name string) (*ClassRuntime, LoadStatus, error) {
	if cls, ok := a.classes[name]; ok {
		return cls, Resolved, nil
	}
	cls, err := a.Define(name)
	if err != nil {
		return nil, Resolved, err
	}
	scheduled, err := a.ScheduleInit(cls)
	if err != nil {
		return nil, Resolved, err
	}
	if scheduled {
		return cls, Deferred, nil
	}
	return cls, Resolved, nil
}

// Define 读取并注册类，不调度静态初始化
func (a *MethodArea) Define(name string) (*ClassRuntime, error) {
	if cls, ok := a.classes[name]; ok {
		return cls, nil
	}
	if loader.IsLibraryClass(name) {
		return nil, errors.NewRuntimeError(errors.R0303, name).With("class", name)
	}
	cf, err := a.source.Load(name)
	if err != nil {
		return nil, err
	}
	cls, err := NewClassRuntime(cf)
	if err != nil {
		return nil, err
	}
	if cls.Name() != name {
		return nil, errors.NewRuntimeError(errors.R0303, name).With("class", name).With("found", cls.Name())
	}
	a.classes[name] = cls
	a.order = append(a.order, name)
	a.stats.ClassesLoaded.Inc()
	a.log.Debug("class defined",
		zap.String("class", name),
		zap.String("super", cls.SuperName()),
		zap.Int("methods", len(cf.Methods)),
		zap.Int("fields", len(cf.Fields)))
	return cls, nil
}

// ScheduleInit 类声明了 <clinit> 时把它的帧压栈
func (a *MethodArea) ScheduleInit(cls *ClassRuntime) (bool, error) {
	method := cls.DeclaredMethod(ClinitName, ClinitDescriptor)
	if method == nil {
		return false, nil
	}
	f, err := newFrame(cls, method, ClinitName, ClinitDescriptor, nil, nil)
	if err != nil {
		return false, err
	}
	if err := a.stack.Push(f); err != nil {
		return false, err
	}
	a.stats.InitializersRun.Inc()
	a.stats.FramesPushed.Inc()
	a.log.Debug("static initializer scheduled", zap.String("class", cls.Name()))
	return true, nil
}

// Get 返回已注册的类
func (a *MethodArea) Get(name string) (*ClassRuntime, bool) {
	cls, ok := a.classes[name]
	return cls, ok
}

// Classes 按加载顺序返回类名
func (a *MethodArea) Classes() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Len 已加载类的数量
func (a *MethodArea) Len() int { return len(a.classes) }

// ============================================================================
// 成员解析
// ============================================================================

// superOf 加载 cls 的用户超类；没有用户超类时返回 nil
func (a *MethodArea) superOf(cls *ClassRuntime) (*ClassRuntime, LoadStatus, error) {
	super := cls.SuperName()
	if super == "" || loader.IsLibraryClass(super) {
		return nil, Resolved, nil
	}
	return a.Load(super)
}

// ResolveMethod 从 cls 开始沿超类链按名称和描述符查找方法，返回声明它的类
func (a *MethodArea) ResolveMethod(cls *ClassRuntime, name, descriptor string) (*ClassRuntime, *classfile.MethodInfo, LoadStatus, error) {
	for cur := cls; cur != nil; {
		if m := cur.DeclaredMethod(name, descriptor); m != nil {
			return cur, m, Resolved, nil
		}
		next, status, err := a.superOf(cur)
		if err != nil || status == Deferred {
			return nil, nil, status, err
		}
		cur = next
	}
	return nil, nil, Resolved, errors.NewRuntimeError(errors.R0305, cls.Name(), name, descriptor).
		With("class", cls.Name()).WithHints()
}

// ResolveStaticField 从 cls 开始沿超类链查找声明该静态字段的类
func (a *MethodArea) ResolveStaticField(cls *ClassRuntime, name string) (*ClassRuntime, LoadStatus, error) {
	for cur := cls; cur != nil; {
		if cur.HasStaticField(name) {
			return cur, Resolved, nil
		}
		next, status, err := a.superOf(cur)
		if err != nil || status == Deferred {
			return nil, status, err
		}
		cur = next
	}
	return nil, Resolved, errors.NewRuntimeError(errors.R0304, cls.Name(), name).
		With("class", cls.Name()).WithHints()
}

// Hierarchy 返回 cls 及其全部用户超类，子类在前
func (a *MethodArea) Hierarchy(cls *ClassRuntime) ([]*ClassRuntime, LoadStatus, error) {
	chain := []*ClassRuntime{cls}
	for cur := cls; ; {
		next, status, err := a.superOf(cur)
		if err != nil || status == Deferred {
			return nil, status, err
		}
		if next == nil {
			return chain, Resolved, nil
		}
		chain = append(chain, next)
		cur = next
	}
}
