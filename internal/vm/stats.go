package vm

import (
	"go.uber.org/atomic"
	"go.uber.org/zap/zapcore"
)

// Stats 运行统计，计数器可在运行过程中从其他 goroutine 读取
type Stats struct {
	InstructionsExecuted atomic.Uint64 // 执行的指令数
	FramesPushed         atomic.Uint64 // 压栈的帧数 (含 <clinit>)
	ObjectsAllocated     atomic.Uint64 // 分配的堆对象数
	ClassesLoaded        atomic.Uint64 // 加载的类数
	InitializersRun      atomic.Uint64 // 调度的 <clinit> 数
	Deferrals            atomic.Uint64 // 因静态初始化推迟的指令数
}

// StatsSnapshot 统计快照
type StatsSnapshot struct {
	InstructionsExecuted uint64
	FramesPushed         uint64
	ObjectsAllocated     uint64
	ClassesLoaded        uint64
	InitializersRun      uint64
	Deferrals            uint64
	RefHits              uint64  // 成员引用缓存命中
	RefMisses            uint64  // 成员引用缓存未命中
	RefHitRate           float64
}

// Snapshot 读取当前计数
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		InstructionsExecuted: s.InstructionsExecuted.Load(),
		FramesPushed:         s.FramesPushed.Load(),
		ObjectsAllocated:     s.ObjectsAllocated.Load(),
		ClassesLoaded:        s.ClassesLoaded.Load(),
		InitializersRun:      s.InitializersRun.Load(),
		Deferrals:            s.Deferrals.Load(),
	}
}

// MarshalLogObject 实现 zapcore.ObjectMarshaler
func (s StatsSnapshot) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("instructions", s.InstructionsExecuted)
	enc.AddUint64("frames", s.FramesPushed)
	enc.AddUint64("objects", s.ObjectsAllocated)
	enc.AddUint64("classes", s.ClassesLoaded)
	enc.AddUint64("initializers", s.InitializersRun)
	enc.AddUint64("deferrals", s.Deferrals)
	enc.AddUint64("ref_hits", s.RefHits)
	enc.AddUint64("ref_misses", s.RefMisses)
	enc.AddFloat64("ref_hit_rate", s.RefHitRate)
	return nil
}
