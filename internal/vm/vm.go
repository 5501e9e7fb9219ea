// Package vm 实现 JVM 字节码解释器：值模型、堆、方法区、调用帧与指令分派
package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

// 入口方法
const (
	MainMethodName       = "main"
	MainMethodDescriptor = "([Ljava/lang/String;)V"
)

// ============================================================================
// VM 核心结构
// ============================================================================

// VM 虚拟机。一个 VM 只运行一次 Run，堆、方法区和调用栈都归它独占。
type VM struct {
	heap  *Heap
	area  *MethodArea
	stack *VMStack
	refs  *RefCache

	out      *bufio.Writer
	log      *zap.Logger
	trace    bool
	maxDepth int

	// wide 前缀设置的一次性标志，由下一条局部变量指令消费
	wide bool

	stats Stats
}

// Option VM 选项
type Option func(*VM)

// WithStdout 设置程序输出
func WithStdout(w io.Writer) Option {
	return func(vm *VM) {
		if w != nil {
			vm.out = bufio.NewWriter(w)
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(vm *VM) {
		if log != nil {
			vm.log = log
		}
	}
}

// WithMaxCallDepth 设置调用深度上限，0 表示不限制
func WithMaxCallDepth(n int) Option {
	return func(vm *VM) {
		vm.maxDepth = n
	}
}

// WithTrace 逐条指令记录 debug 日志
func WithTrace(enabled bool) Option {
	return func(vm *VM) {
		vm.trace = enabled
	}
}

// New 创建虚拟机
func New(source ClassSource, opts ...Option) *VM {
	vm := &VM{
		heap: NewHeap(),
		refs: NewRefCache(),
		out:  bufio.NewWriter(os.Stdout),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.stack = NewVMStack(vm.maxDepth)
	vm.area = NewMethodArea(source, vm.stack, vm.log, &vm.stats)
	return vm
}

// ============================================================================
// 运行
// ============================================================================

// Run 执行 mainClass 的 main(String[])。先压入 main 帧，类声明了 <clinit> 时
// 再把它压在 main 之上，因此静态初始化先于 main 执行。
// 致命错误以 *errors.RuntimeError 返回，携带出错时的 Java 调用栈。
func (vm *VM) Run(mainClass string) (err error) {
	vm.log.Debug("run started", zap.String("class", mainClass), zap.Int("max_call_depth", vm.maxDepth))
	defer func() {
		if r := recover(); r != nil {
			err = vm.recoverFatal(r)
		}
		if flushErr := vm.out.Flush(); flushErr != nil && err == nil {
			err = fmt.Errorf("flush program output: %w", flushErr)
		}
		fields := []zap.Field{zap.Object("stats", vm.Stats()), zap.Strings("classes", vm.area.Classes())}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		vm.log.Debug("run finished", fields...)
	}()

	cls, err := vm.area.Define(mainClass)
	if err != nil {
		return err
	}
	main := cls.DeclaredMethod(MainMethodName, MainMethodDescriptor)
	if main == nil {
		return errors.NewRuntimeError(errors.R0305, mainClass, MainMethodName, MainMethodDescriptor).
			With("class", mainClass).WithHints()
	}
	if !main.IsStatic() {
		return errors.NewRuntimeError(errors.R0307, mainClass, MainMethodName, MainMethodDescriptor, "static")
	}

	args := vm.alloc(NewArrayObject(TypeReference, 0))
	frame, err := newFrame(cls, main, MainMethodName, MainMethodDescriptor, nil, []Value{RefValue(args)})
	if err != nil {
		return err
	}
	vm.pushFrame(frame)
	if _, err := vm.area.ScheduleInit(cls); err != nil {
		return err
	}

	for vm.stack.Size() > 0 {
		vm.step()
	}
	return nil
}

// step 取出栈顶帧 pc 处的操作码并分派
func (vm *VM) step() {
	f := vm.stack.Top()
	code := f.Code()
	if f.PC < 0 || f.PC >= len(code) {
		vm.throw(errors.R0003, f.PC, len(code))
	}
	op := code[f.PC]
	vm.stats.InstructionsExecuted.Inc()
	if vm.trace {
		vm.log.Debug("exec",
			zap.Stringer("frame", f),
			zap.String("op", classfile.Mnemonics[op]),
			zap.Int("operands", f.OperandCount()))
	}
	dispatchTable[op](vm)
}

// recoverFatal 将分派过程中的 panic 转换为错误
func (vm *VM) recoverFatal(r interface{}) error {
	switch e := r.(type) {
	case *errors.RuntimeError:
		if e.Frames == nil {
			e.Frames = vm.stack.Trace()
		}
		return e
	case runtime.Error:
		rt := errors.NewRuntimeError(errors.R0001, e.Error())
		rt.Frames = vm.stack.Trace()
		return rt
	case error:
		return e
	default:
		panic(r)
	}
}

// ============================================================================
// 访问器
// ============================================================================

// Heap 对象堆
func (vm *VM) Heap() *Heap { return vm.heap }

// MethodArea 方法区
func (vm *VM) MethodArea() *MethodArea { return vm.area }

// Stack 调用栈
func (vm *VM) Stack() *VMStack { return vm.stack }

// RefCache 成员引用缓存
func (vm *VM) RefCache() *RefCache { return vm.refs }

// Stats 统计快照，含成员引用缓存的命中情况
func (vm *VM) Stats() StatsSnapshot {
	snap := vm.stats.Snapshot()
	hits, misses := vm.refs.Stats()
	snap.RefHits, snap.RefMisses = uint64(hits), uint64(misses)
	snap.RefHitRate = vm.refs.HitRate()
	return snap
}

// ============================================================================
// 错误
// ============================================================================

// throw 以致命错误终止当前指令
func (vm *VM) throw(code string, args ...interface{}) {
	panic(errors.NewRuntimeError(code, args...))
}

// fatal 抛出已构造的运行时错误
func (vm *VM) fatal(err *errors.RuntimeError) {
	panic(err)
}

// must 非 nil 错误即致命
func (vm *VM) must(err error) {
	if err != nil {
		panic(err)
	}
}

// internal 内部断言失败
func (vm *VM) internal(format string, args ...interface{}) {
	vm.throw(errors.R0001, fmt.Sprintf(format, args...))
}

// ============================================================================
// 指令读取
// ============================================================================

// frame 当前帧
func (vm *VM) frame() *Frame {
	return vm.stack.Top()
}

// u8 读取 pc+off 处的无符号字节
func (vm *VM) u8(off int) uint8 {
	f := vm.frame()
	return f.Code()[f.PC+off]
}

// u16 读取 pc+off 处的无符号 16 位数
func (vm *VM) u16(off int) uint16 {
	f := vm.frame()
	return classfile.U16At(f.Code(), f.PC+off)
}

// s16 读取 pc+off 处的有符号 16 位数
func (vm *VM) s16(off int) int16 {
	f := vm.frame()
	return classfile.S16At(f.Code(), f.PC+off)
}

// s32 读取 pc+off 处的有符号 32 位数
func (vm *VM) s32(off int) int32 {
	f := vm.frame()
	return classfile.S32At(f.Code(), f.PC+off)
}

// advance 前进 n 字节
func (vm *VM) advance(n int) {
	vm.frame().PC += n
}

// branch 相对当前指令地址跳转
func (vm *VM) branch(offset int) {
	vm.frame().PC += offset
}

// localOperand 读取局部变量索引，返回索引与指令长度；消费 wide 标志
func (vm *VM) localOperand() (int, int) {
	if vm.wide {
		vm.wide = false
		return int(vm.u16(1)), 3
	}
	return int(vm.u8(1)), 2
}

// ============================================================================
// 类型化出栈
// ============================================================================

func (vm *VM) expect(v Value, t ValueType) {
	if v.Type != t {
		vm.internal("expected %s on the operand stack, got %s", t, v.Type)
	}
}

func (vm *VM) popInt() int32 {
	v := vm.frame().Pop()
	vm.expect(v, TypeInt)
	return v.Int()
}

func (vm *VM) popFloat() float32 {
	v := vm.frame().Pop()
	vm.expect(v, TypeFloat)
	return v.Float()
}

func (vm *VM) popLong() int64 {
	v := vm.frame().PopWide()
	vm.expect(v, TypeLong)
	return v.Long()
}

func (vm *VM) popDouble() float64 {
	v := vm.frame().PopWide()
	vm.expect(v, TypeDouble)
	return v.Double()
}

func (vm *VM) popRef() Value {
	v := vm.frame().Pop()
	vm.expect(v, TypeReference)
	return v
}

func (vm *VM) pushInt(v int32)      { vm.frame().Push(IntValue(v)) }
func (vm *VM) pushFloat(v float32)  { vm.frame().Push(FloatValue(v)) }
func (vm *VM) pushLong(v int64)     { vm.frame().PushWide(LongValue(v)) }
func (vm *VM) pushDouble(v float64) { vm.frame().PushWide(DoubleValue(v)) }

// pushValue 按宽度压入
func (vm *VM) pushValue(v Value) {
	if v.IsWide() {
		vm.frame().PushWide(v)
		return
	}
	vm.frame().Push(v)
}

// popValue 按字段/参数类型出栈
func (vm *VM) popValue(t classfile.FieldType) Value {
	if t.IsWide() {
		return vm.frame().PopWide()
	}
	return vm.frame().Pop()
}

// ============================================================================
// 堆与对象
// ============================================================================

// alloc 在堆上登记对象
func (vm *VM) alloc(obj Object) Ref {
	vm.stats.ObjectsAllocated.Inc()
	return vm.heap.Alloc(obj)
}

// newString 分配字符串对象
func (vm *VM) newString(s string) Value {
	return RefValue(vm.alloc(NewStringObject(s)))
}

// deref 解引用，null 时抛出 NullPointerException
func (vm *VM) deref(v Value, action string) Object {
	vm.expect(v, TypeReference)
	obj := vm.heap.Get(v.Ref())
	if obj == nil {
		vm.fatal(errors.NewRuntimeError(errors.R0300, action).WithHints())
	}
	return obj
}

func (vm *VM) instanceOf(v Value, action string) *ClassInstance {
	inst, ok := vm.deref(v, action).(*ClassInstance)
	if !ok {
		vm.internal("cannot %s: not a class instance", action)
	}
	return inst
}

func (vm *VM) arrayOf(v Value, action string) *ArrayObject {
	arr, ok := vm.deref(v, action).(*ArrayObject)
	if !ok {
		vm.internal("cannot %s: not an array", action)
	}
	return arr
}

func (vm *VM) stringOf(v Value, action string) *StringObject {
	s, ok := vm.deref(v, action).(*StringObject)
	if !ok {
		vm.internal("cannot %s: not a string", action)
	}
	return s
}

// ============================================================================
// 类加载与帧
// ============================================================================

// loadClass 加载类；若加载压入了 <clinit> 帧返回 false，调用方必须放弃当前指令
func (vm *VM) loadClass(name string) (*ClassRuntime, bool) {
	cls, status, err := vm.area.Load(name)
	vm.must(err)
	if status == Deferred {
		vm.deferred(name)
		return nil, false
	}
	return cls, true
}

// deferred 记录一次因静态初始化推迟的指令
func (vm *VM) deferred(class string) {
	vm.stats.Deferrals.Inc()
	vm.log.Debug("instruction deferred for static initialization", zap.String("class", class))
}

// pushFrame 压入新帧
func (vm *VM) pushFrame(f *Frame) {
	vm.must(vm.stack.Push(f))
	vm.stats.FramesPushed.Inc()
	if vm.trace {
		vm.log.Debug("frame pushed", zap.Stringer("frame", f), zap.Int("depth", vm.stack.Size()))
	}
}

// popFrame 销毁栈顶帧
func (vm *VM) popFrame() {
	f := vm.stack.Top()
	if !vm.stack.PopAndDestroy() {
		vm.internal("return with an empty call stack")
	}
	if vm.trace {
		vm.log.Debug("frame popped", zap.Stringer("frame", f), zap.Int("depth", vm.stack.Size()))
	}
}
