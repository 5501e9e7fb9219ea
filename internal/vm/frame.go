package vm

import (
	"fmt"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 调用帧
// ============================================================================

// Frame 一次方法调用的活动记录
//
// 违反不变量（局部变量越界、空栈弹出、long/double 缺少占位槽位）时
// Frame 的方法以 *errors.RuntimeError panic，由 VM.Run 统一恢复。
type Frame struct {
	class      *ClassRuntime  // 声明该方法的类
	this       *ClassInstance // 接收者，静态方法为 nil
	method     *classfile.MethodInfo
	name       string
	descriptor string
	code       *classfile.CodeAttribute

	PC       int
	locals   []Value
	operands []Value
}

// NewInstanceFrame 在 cls 及其超类中解析实例方法并创建帧，args[0] 为接收者
func NewInstanceFrame(area *MethodArea, this *ClassInstance, cls *ClassRuntime, name, descriptor string, args []Value) (*Frame, LoadStatus, error) {
	owner, method, status, err := area.ResolveMethod(cls, name, descriptor)
	if err != nil || status == Deferred {
		return nil, status, err
	}
	if method.IsStatic() {
		return nil, Resolved, errors.NewRuntimeError(errors.R0307, owner.Name(), name, descriptor, "an instance method")
	}
	f, err := newFrame(owner, method, name, descriptor, this, args)
	return f, Resolved, err
}

// NewStaticFrame 在 cls 及其超类中解析静态方法并创建帧
func NewStaticFrame(area *MethodArea, cls *ClassRuntime, name, descriptor string, args []Value) (*Frame, LoadStatus, error) {
	owner, method, status, err := area.ResolveMethod(cls, name, descriptor)
	if err != nil || status == Deferred {
		return nil, status, err
	}
	if !method.IsStatic() {
		return nil, Resolved, errors.NewRuntimeError(errors.R0307, owner.Name(), name, descriptor, "static")
	}
	f, err := newFrame(owner, method, name, descriptor, nil, args)
	return f, Resolved, err
}

// newFrame 为已解析的方法创建帧，参数依次放入局部变量 0..N
func newFrame(owner *ClassRuntime, method *classfile.MethodInfo, name, descriptor string, this *ClassInstance, args []Value) (*Frame, error) {
	code := method.Code()
	if code == nil {
		return nil, errors.NewRuntimeError(errors.R0307, owner.Name(), name, descriptor, "implemented")
	}
	if len(args) > int(code.MaxLocals) {
		return nil, errors.NewRuntimeError(errors.R0402, len(args)-1, code.MaxLocals)
	}
	f := &Frame{
		class:      owner,
		this:       this,
		method:     method,
		name:       name,
		descriptor: descriptor,
		code:       code,
		locals:     make([]Value, code.MaxLocals),
		operands:   make([]Value, 0, code.MaxStack),
	}
	copy(f.locals, args)
	return f, nil
}

// Class 声明方法的类
func (f *Frame) Class() *ClassRuntime { return f.class }

// This 接收者
func (f *Frame) This() *ClassInstance { return f.this }

// Method 方法声明
func (f *Frame) Method() *classfile.MethodInfo { return f.method }

// Name 方法名
func (f *Frame) Name() string { return f.name }

// Descriptor 方法描述符
func (f *Frame) Descriptor() string { return f.descriptor }

// ConstantPool 所属类的常量池
func (f *Frame) ConstantPool() classfile.ConstantPool { return f.class.ConstantPool() }

// Code 方法字节码
func (f *Frame) Code() []byte { return f.code.Code }

// CodeAt 返回从 pc 开始的字节码
func (f *Frame) CodeAt(pc int) []byte { return f.code.Code[pc:] }

// MaxLocals 局部变量表大小
func (f *Frame) MaxLocals() int { return int(f.code.MaxLocals) }

// MaxStack 操作数栈容量
func (f *Frame) MaxStack() int { return int(f.code.MaxStack) }

// ExceptionTable 异常表，仅保留不参与控制流
func (f *Frame) ExceptionTable() []classfile.ExceptionTableEntry { return f.code.ExceptionTable }

// ============================================================================
// 局部变量
// ============================================================================

func (f *Frame) checkLocal(i int) {
	if i < 0 || i >= len(f.locals) {
		panic(errors.NewRuntimeError(errors.R0402, i, len(f.locals)))
	}
}

// Local 读取局部变量
func (f *Frame) Local(i int) Value {
	f.checkLocal(i)
	return f.locals[i]
}

// SetLocal 写入局部变量
func (f *Frame) SetLocal(i int, v Value) {
	f.checkLocal(i)
	f.locals[i] = v
}

// SetLocalWide 写入 long/double，i+1 为占位槽位
func (f *Frame) SetLocalWide(i int, v Value) {
	f.checkLocal(i + 1)
	f.locals[i] = v
	f.locals[i+1] = PaddingValue()
}

// LocalWide 读取 long/double
func (f *Frame) LocalWide(i int) Value {
	f.checkLocal(i + 1)
	return f.locals[i]
}

// ============================================================================
// 操作数栈
// ============================================================================

// Push 压入一个槽位
func (f *Frame) Push(v Value) {
	f.operands = append(f.operands, v)
}

// PushWide 压入 long/double：先占位槽位，再压入值
func (f *Frame) PushWide(v Value) {
	f.operands = append(f.operands, PaddingValue(), v)
}

// Pop 弹出一个槽位，空栈时致命
func (f *Frame) Pop() Value {
	n := len(f.operands)
	if n == 0 {
		panic(errors.NewRuntimeError(errors.R0401))
	}
	v := f.operands[n-1]
	f.operands = f.operands[:n-1]
	return v
}

// PopWide 弹出 long/double：先弹出值，再弹出其下方的占位槽位
func (f *Frame) PopWide() Value {
	v := f.Pop()
	if !v.IsWide() {
		panic(errors.NewRuntimeError(errors.R0001, fmt.Sprintf("expected long or double on the operand stack, got %s", v.Type)))
	}
	if pad := f.Pop(); pad.Type != TypePadding {
		panic(errors.NewRuntimeError(errors.R0001, fmt.Sprintf("missing padding below %s, got %s", v.Type, pad.Type)))
	}
	return v
}

// Peek 查看距栈顶 distance 的槽位 (不弹出)
func (f *Frame) Peek(distance int) Value {
	i := len(f.operands) - 1 - distance
	if i < 0 {
		panic(errors.NewRuntimeError(errors.R0401))
	}
	return f.operands[i]
}

// OperandCount 操作数栈中的槽位数
func (f *Frame) OperandCount() int { return len(f.operands) }

// BackupOperandStack 复制整个操作数栈
func (f *Frame) BackupOperandStack() []Value {
	backup := make([]Value, len(f.operands))
	copy(backup, f.operands)
	return backup
}

// RestoreOperandStack 用备份替换操作数栈
func (f *Frame) RestoreOperandStack(backup []Value) {
	f.operands = append(f.operands[:0], backup...)
}

// ============================================================================
// 诊断
// ============================================================================

// StackFrame 转换为错误报告中的堆栈帧
func (f *Frame) StackFrame() errors.StackFrame {
	return errors.StackFrame{
		ClassName:  f.class.Name(),
		MethodName: f.name,
		Descriptor: f.descriptor,
		PC:         f.PC,
		SourceFile: f.class.SourceFile(),
		LineNumber: f.code.LineNumber(f.PC),
	}
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s.%s%s@%d", f.class.Name(), f.name, f.descriptor, f.PC)
}
