package vm

import (
	"github.com/tangzhangming/javm/internal/errors"
)

// VMStack 调用栈，栈顶为正在执行的帧
type VMStack struct {
	frames   []*Frame
	maxDepth int // 0 表示不限制
}

// NewVMStack 创建调用栈
func NewVMStack(maxDepth int) *VMStack {
	return &VMStack{frames: make([]*Frame, 0, 16), maxDepth: maxDepth}
}

// Push 压入帧，超过深度限制时返回 StackOverflowError
func (s *VMStack) Push(f *Frame) error {
	if s.maxDepth > 0 && len(s.frames) >= s.maxDepth {
		return errors.NewRuntimeError(errors.R0400, s.maxDepth)
	}
	s.frames = append(s.frames, f)
	return nil
}

// Top 栈顶帧，空栈返回 nil
func (s *VMStack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// PopAndDestroy 弹出并丢弃栈顶帧，空栈返回 false
func (s *VMStack) PopAndDestroy() bool {
	n := len(s.frames)
	if n == 0 {
		return false
	}
	s.frames[n-1] = nil
	s.frames = s.frames[:n-1]
	return true
}

// Size 帧数
func (s *VMStack) Size() int { return len(s.frames) }

// MaxDepth 深度限制
func (s *VMStack) MaxDepth() int { return s.maxDepth }

// Trace 从栈顶到栈底的堆栈帧
func (s *VMStack) Trace() []errors.StackFrame {
	trace := make([]errors.StackFrame, 0, len(s.frames))
	for i := len(s.frames) - 1; i >= 0; i-- {
		trace = append(trace, s.frames[i].StackFrame())
	}
	return trace
}
