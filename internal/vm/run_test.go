package vm

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

const (
	mainFlags = classfile.AccPublic | classfile.AccStatic
	printOut  = "java/io/PrintStream"
)

// program 以 Builder 组装的一组类，第一个为主类
type program struct {
	classes []*classfile.Builder
}

func newProgram(classes ...*classfile.Builder) *program {
	return &program{classes: classes}
}

// run 执行主类的 main 并返回程序输出
func (p *program) run(t *testing.T, opts ...Option) (string, error) {
	t.Helper()
	_, out, err := p.exec(t, opts...)
	return out, err
}

// exec 同 run，同时返回虚拟机以便检查方法区与统计
func (p *program) exec(t *testing.T, opts ...Option) (*VM, string, error) {
	t.Helper()
	src := memSource{}
	for _, b := range p.classes {
		cf := b.Build()
		name, err := cf.Name()
		if err != nil {
			t.Fatal(err)
		}
		src[name] = cf
	}
	main, _ := p.classes[0].Build().Name()

	var out bytes.Buffer
	vm := New(src, append([]Option{WithStdout(&out)}, opts...)...)
	err := vm.Run(main)
	return vm, out.String(), err
}

// emitGetOut 读取 System.out，不压入任何值
func emitGetOut(b *classfile.Builder, a *classfile.Asm) {
	a.OpU16(classfile.OpGetstatic, b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;"))
}

// emitPrintln 调用 PrintStream.println
func emitPrintln(b *classfile.Builder, a *classfile.Asm, descriptor string) {
	a.OpU16(classfile.OpInvokevirtual, b.Methodref(printOut, "println", descriptor))
}

func expectCode(t *testing.T, err error, code string) *errors.RuntimeError {
	t.Helper()
	var rt *errors.RuntimeError
	if !stderrors.As(err, &rt) {
		t.Fatalf("Expected a runtime error %s, got %v", code, err)
	}
	if rt.Code != code {
		t.Fatalf("Expected %s, got %s: %s", code, rt.Code, rt.Message)
	}
	return rt
}

// ============================================================================
// 输出
// ============================================================================

func TestPrintln(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.Op(classfile.OpLdc, byte(b.String("hello")))
	emitPrintln(b, a, "(Ljava/lang/String;)V")
	emitGetOut(b, a)
	a.Op(classfile.OpIconst1)
	emitPrintln(b, a, "(Z)V")
	emitGetOut(b, a)
	a.Op(classfile.OpBipush, 65)
	emitPrintln(b, a, "(C)V")
	emitGetOut(b, a)
	a.Op(classfile.OpIconstM1)
	emitPrintln(b, a, "(I)V")
	emitGetOut(b, a)
	a.Op(classfile.OpFconst2)
	emitPrintln(b, a, "(F)V")
	emitGetOut(b, a)
	a.Op(classfile.OpAconstNull)
	emitPrintln(b, a, "(Ljava/lang/Object;)V")
	emitGetOut(b, a)
	emitPrintln(b, a, "()V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 4, 1, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "hello\ntrue\nA\n-1\n2.000000\nnull\n\n"
	if out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestStringNatives(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.Op(classfile.OpLdc, byte(b.String("héllo")))
	a.OpU16(classfile.OpInvokevirtual, b.Methodref("java/lang/String", "length", "()I"))
	emitPrintln(b, a, "(I)V")
	emitGetOut(b, a)
	a.Op(classfile.OpLdc, byte(b.String("abc")))
	a.Op(classfile.OpLdc, byte(b.String("abc")))
	a.OpU16(classfile.OpInvokevirtual, b.Methodref("java/lang/String", "equals", "(Ljava/lang/Object;)Z"))
	emitPrintln(b, a, "(Z)V")
	emitGetOut(b, a)
	a.Op(classfile.OpLdc, byte(b.String("abc")))
	a.Op(classfile.OpAconstNull)
	a.OpU16(classfile.OpInvokevirtual, b.Methodref("java/lang/String", "equals", "(Ljava/lang/Object;)Z"))
	emitPrintln(b, a, "(Z)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 4, 1, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := "5\ntrue\nfalse\n"; out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestUnsupportedLibraryCall(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	a.OpU16(classfile.OpInvokestatic, b.Methodref("java/lang/Math", "random", "()D"))
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 4, 1, a.Bytes())

	_, err := newProgram(b).run(t)
	expectCode(t, err, errors.R0306)
}

// ============================================================================
// 静态初始化
// ============================================================================

func TestStaticInitializerRunsBeforeFirstAccess(t *testing.T) {
	counter := classfile.NewBuilder("Counter", "java/lang/Object")
	counter.AddField(classfile.AccStatic, "value", "I")
	clinit := classfile.NewAsm().
		Op(classfile.OpBipush, 7).
		OpU16(classfile.OpPutstatic, counter.Fieldref("Counter", "value", "I")).
		Op(classfile.OpReturn)
	counter.AddMethod(classfile.AccStatic, ClinitName, ClinitDescriptor, 1, 0, clinit.Bytes())

	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.OpU16(classfile.OpGetstatic, b.Fieldref("Counter", "value", "I"))
	emitPrintln(b, a, "(I)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

	out, err := newProgram(b, counter).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "7\n" {
		t.Errorf("Expected 7, got %q", out)
	}
}

func TestMainClassInitializerRunsBeforeMain(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	b.AddField(classfile.AccStatic, "greeting", "Ljava/lang/String;")
	clinit := classfile.NewAsm().
		Op(classfile.OpLdc, byte(b.String("ready"))).
		OpU16(classfile.OpPutstatic, b.Fieldref("Main", "greeting", "Ljava/lang/String;")).
		Op(classfile.OpReturn)
	b.AddMethod(classfile.AccStatic, ClinitName, ClinitDescriptor, 1, 0, clinit.Bytes())

	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.OpU16(classfile.OpGetstatic, b.Fieldref("Main", "greeting", "Ljava/lang/String;"))
	emitPrintln(b, a, "(Ljava/lang/String;)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "ready\n" {
		t.Errorf("Expected ready, got %q", out)
	}
}

func TestStaticDefaultsAndConstants(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	b.AddField(classfile.AccStatic, "count", "I")
	b.AddConstantField(classfile.AccStatic|classfile.AccFinal, "LIMIT", "J", b.Long(1<<33))

	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.OpU16(classfile.OpGetstatic, b.Fieldref("Main", "count", "I"))
	emitPrintln(b, a, "(I)V")
	emitGetOut(b, a)
	a.OpU16(classfile.OpGetstatic, b.Fieldref("Main", "LIMIT", "J"))
	emitPrintln(b, a, "(J)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := "0\n8589934592\n"; out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestMissingStaticField(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	a.OpU16(classfile.OpGetstatic, b.Fieldref("Main", "missing", "I"))
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

	_, err := newProgram(b).run(t)
	rt := expectCode(t, err, errors.R0304)
	if len(rt.Frames) != 1 || rt.Frames[0].MethodName != "main" {
		t.Errorf("Expected the trace to name main, got %+v", rt.Frames)
	}
}

// ============================================================================
// 方法调用
// ============================================================================

func TestInvokeStaticWithLongArgs(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	add := classfile.NewAsm().
		Op(classfile.OpLload0).
		Op(classfile.OpLload2).
		Op(classfile.OpLadd).
		Op(classfile.OpLreturn)
	b.AddMethod(classfile.AccStatic, "add", "(JJ)J", 4, 4, add.Bytes())

	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.OpU16(classfile.OpLdc2W, b.Long(1<<40))
	a.Op(classfile.OpLconst1)
	a.OpU16(classfile.OpInvokestatic, b.Methodref("Main", "add", "(JJ)J"))
	emitPrintln(b, a, "(J)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 4, 1, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := "1099511627777\n"; out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestRecursionDepthLimit(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	loop := classfile.NewAsm().
		OpU16(classfile.OpInvokestatic, b.Methodref("Main", "loop", "()V")).
		Op(classfile.OpReturn)
	b.AddMethod(classfile.AccStatic, "loop", "()V", 0, 0, loop.Bytes())
	main := classfile.NewAsm().
		OpU16(classfile.OpInvokestatic, b.Methodref("Main", "loop", "()V")).
		Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 0, 1, main.Bytes())

	_, err := newProgram(b).run(t, WithMaxCallDepth(16))
	rt := expectCode(t, err, errors.R0400)
	if len(rt.Frames) != 16 {
		t.Errorf("Expected 16 frames in the trace, got %d", len(rt.Frames))
	}
}

// shapes Shape 接口与实现它的 Square，area() 返回 4
func shapes() (*classfile.Builder, *classfile.Builder) {
	shape := classfile.NewBuilder("Shape", "java/lang/Object").
		SetAccessFlags(classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract)
	shape.AddMethod(classfile.AccPublic|classfile.AccAbstract, "area", "()I", 0, 0, nil)

	square := classfile.NewBuilder("Square", "java/lang/Object").AddInterface("Shape")
	init := classfile.NewAsm().
		Op(classfile.OpAload0).
		OpU16(classfile.OpInvokespecial, square.Methodref("java/lang/Object", "<init>", "()V")).
		Op(classfile.OpReturn)
	square.AddMethod(classfile.AccPublic, "<init>", "()V", 1, 1, init.Bytes())
	area := classfile.NewAsm().Op(classfile.OpIconst4).Op(classfile.OpIreturn)
	square.AddMethod(classfile.AccPublic, "area", "()I", 1, 1, area.Bytes())
	return shape, square
}

func TestInvokeInterfaceDispatchesOnReceiver(t *testing.T) {
	shape, square := shapes()

	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.OpU16(classfile.OpNew, b.Class("Square"))
	a.Op(classfile.OpDup)
	a.OpU16(classfile.OpInvokespecial, b.Methodref("Square", "<init>", "()V"))
	a.OpU16(classfile.OpInvokeinterface, b.InterfaceMethodref("Shape", "area", "()I")).Op(1, 0)
	emitPrintln(b, a, "(I)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 3, 1, a.Bytes())

	out, err := newProgram(b, shape, square).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "4\n" {
		t.Errorf("Expected 4, got %q", out)
	}
}

func TestInstantiateInterface(t *testing.T) {
	shape, _ := shapes()

	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm().
		OpU16(classfile.OpNew, b.Class("Shape")).
		Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 1, 1, a.Bytes())

	_, err := newProgram(b, shape).run(t)
	expectCode(t, err, errors.R0302)
}

// ============================================================================
// 对象与数组
// ============================================================================

func TestInheritedInstanceFields(t *testing.T) {
	base := classfile.NewBuilder("Base", "java/lang/Object")
	base.AddField(classfile.AccPublic, "size", "S")
	child := classfile.NewBuilder("Child", "Base")

	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	a.OpU16(classfile.OpNew, b.Class("Child"))
	a.Op(classfile.OpAstore1)
	a.Op(classfile.OpAload1)
	a.OpU16(classfile.OpSipush, 0x7FFF)
	a.Op(classfile.OpIconst2)
	a.Op(classfile.OpIadd)
	a.OpU16(classfile.OpPutfield, b.Fieldref("Child", "size", "S"))
	emitGetOut(b, a)
	a.Op(classfile.OpAload1)
	a.OpU16(classfile.OpGetfield, b.Fieldref("Child", "size", "S"))
	emitPrintln(b, a, "(I)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 3, 2, a.Bytes())

	out, err := newProgram(b, base, child).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// short 溢出后按声明类型截断
	if out != "-32767\n" {
		t.Errorf("Expected -32767, got %q", out)
	}
}

func TestArraySumLoop(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	// int[] arr = new int[4]; for (i = 0; i < arr.length; i++) arr[i] = i * i;
	a.Op(classfile.OpIconst4)
	a.Op(classfile.OpNewarray, classfile.ATypeInt)
	a.Op(classfile.OpAstore1)
	a.Op(classfile.OpIconst0)
	a.Op(classfile.OpIstore2)
	loop := a.Pos()
	a.Op(classfile.OpIload2)
	a.Op(classfile.OpAload1)
	a.Op(classfile.OpArraylength)
	exit := a.Pos()
	a.OpS16(classfile.OpIfIcmpge, 0)
	a.Op(classfile.OpAload1)
	a.Op(classfile.OpIload2)
	a.Op(classfile.OpIload2)
	a.Op(classfile.OpIload2)
	a.Op(classfile.OpImul)
	a.Op(classfile.OpIastore)
	a.Op(classfile.OpIinc, 2, 1)
	a.OpS16(classfile.OpGoto, int16(loop-a.Pos()))
	a.PatchS16(exit)
	emitGetOut(b, a)
	a.Op(classfile.OpAload1)
	a.Op(classfile.OpIconst3)
	a.Op(classfile.OpIaload)
	emitPrintln(b, a, "(I)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 4, 3, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "9\n" {
		t.Errorf("Expected 9, got %q", out)
	}
}

func TestMultiArray(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	emitGetOut(b, a)
	a.Op(classfile.OpIconst2)
	a.Op(classfile.OpIconst3)
	a.OpU16(classfile.OpMultianewarray, b.Class("[[J")).Op(2)
	a.Op(classfile.OpIconst1)
	a.Op(classfile.OpAaload)
	a.Op(classfile.OpArraylength)
	emitPrintln(b, a, "(I)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 3, 1, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "3\n" {
		t.Errorf("Expected 3, got %q", out)
	}
}

func TestCheckcastAndInstanceof(t *testing.T) {
	shape, square := shapes()

	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	a.OpU16(classfile.OpNew, b.Class("Square"))
	a.Op(classfile.OpAstore1)
	emitGetOut(b, a)
	a.Op(classfile.OpAload1)
	a.OpU16(classfile.OpInstanceof, b.Class("Shape"))
	emitPrintln(b, a, "(Z)V")
	emitGetOut(b, a)
	a.Op(classfile.OpAconstNull)
	a.OpU16(classfile.OpInstanceof, b.Class("Shape"))
	emitPrintln(b, a, "(Z)V")
	a.Op(classfile.OpAconstNull)
	a.OpU16(classfile.OpCheckcast, b.Class("Shape"))
	a.Op(classfile.OpPop)
	a.Op(classfile.OpAload1)
	a.OpU16(classfile.OpCheckcast, b.Class("Main"))
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 2, a.Bytes())

	out, err := newProgram(b, shape, square).run(t)
	expectCode(t, err, errors.R0301)
	if out != "true\nfalse\n" {
		t.Errorf("Expected true/false before the failed cast, got %q", out)
	}
}

// ============================================================================
// 控制流
// ============================================================================

func TestTableswitchPadding(t *testing.T) {
	tests := []struct {
		key  byte
		want string
	}{
		{classfile.OpIconst0, "10\n"},
		{classfile.OpIconst1, "20\n"},
		{classfile.OpIconst5, "30\n"},
	}

	for _, tt := range tests {
		b := classfile.NewBuilder("Main", "java/lang/Object")
		a := classfile.NewAsm()
		emitGetOut(b, a) // 0..2
		a.Op(tt.key)     // 3
		switchPC := a.Pos()
		a.Op(classfile.OpTableswitch).Align() // 4, 对齐到 8
		a.S32(34).S32(0).S32(1).S32(24).S32(29)
		a.Op(classfile.OpBipush, 10) // 28
		gotoA := a.Pos()
		a.OpS16(classfile.OpGoto, 0)
		a.Op(classfile.OpBipush, 20) // 33
		gotoB := a.Pos()
		a.OpS16(classfile.OpGoto, 0)
		a.Op(classfile.OpBipush, 30) // 38
		a.PatchS16(gotoA).PatchS16(gotoB)
		emitPrintln(b, a, "(I)V")
		a.Op(classfile.OpReturn)
		b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

		if switchPC != 4 {
			t.Fatalf("Expected tableswitch at 4, got %d", switchPC)
		}
		out, err := newProgram(b).run(t)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if out != tt.want {
			t.Errorf("key %s: expected %q, got %q", classfile.Mnemonics[tt.key], tt.want, out)
		}
	}
}

func TestLookupswitch(t *testing.T) {
	tests := []struct {
		key  byte
		want string
	}{
		{classfile.OpIconst3, "10\n"},
		{classfile.OpIconst4, "20\n"},
		{classfile.OpIconst0, "30\n"},
	}

	for _, tt := range tests {
		b := classfile.NewBuilder("Main", "java/lang/Object")
		a := classfile.NewAsm()
		emitGetOut(b, a)
		a.Op(tt.key)
		a.Op(classfile.OpLookupswitch).Align()
		a.S32(38).S32(2).S32(3).S32(28).S32(4).S32(33)
		a.Op(classfile.OpBipush, 10) // 32
		gotoA := a.Pos()
		a.OpS16(classfile.OpGoto, 0)
		a.Op(classfile.OpBipush, 20) // 37
		gotoB := a.Pos()
		a.OpS16(classfile.OpGoto, 0)
		a.Op(classfile.OpBipush, 30) // 42
		a.PatchS16(gotoA).PatchS16(gotoB)
		emitPrintln(b, a, "(I)V")
		a.Op(classfile.OpReturn)
		b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

		out, err := newProgram(b).run(t)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if out != tt.want {
			t.Errorf("key %s: expected %q, got %q", classfile.Mnemonics[tt.key], tt.want, out)
		}
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("missing main", func(t *testing.T) {
		b := classfile.NewBuilder("Main", "java/lang/Object")
		_, err := newProgram(b).run(t)
		expectCode(t, err, errors.R0305)
	})

	t.Run("instance main", func(t *testing.T) {
		b := classfile.NewBuilder("Main", "java/lang/Object")
		b.AddMethod(classfile.AccPublic, "main", MainMethodDescriptor, 0, 2, []byte{classfile.OpReturn})
		_, err := newProgram(b).run(t)
		expectCode(t, err, errors.R0307)
	})

	t.Run("missing class", func(t *testing.T) {
		b := classfile.NewBuilder("Main", "java/lang/Object")
		a := classfile.NewAsm().
			OpU16(classfile.OpInvokestatic, b.Methodref("Helper", "go", "()V")).
			Op(classfile.OpReturn)
		b.AddMethod(mainFlags, "main", MainMethodDescriptor, 0, 1, a.Bytes())
		_, err := newProgram(b).run(t)
		expectCode(t, err, errors.R0303)
	})
}

// ============================================================================
// 类加载
// ============================================================================

// counted Base 的 <clinit> 把 count 加一，Child 继承 Base
func counted() (*classfile.Builder, *classfile.Builder) {
	base := classfile.NewBuilder("Base", "java/lang/Object")
	base.AddField(classfile.AccStatic, "count", "I")
	clinit := classfile.NewAsm().
		OpU16(classfile.OpGetstatic, base.Fieldref("Base", "count", "I")).
		Op(classfile.OpIconst1).
		Op(classfile.OpIadd).
		OpU16(classfile.OpPutstatic, base.Fieldref("Base", "count", "I")).
		Op(classfile.OpReturn)
	base.AddMethod(classfile.AccStatic, ClinitName, ClinitDescriptor, 2, 0, clinit.Bytes())
	return base, classfile.NewBuilder("Child", "Base")
}

func TestClassesLoadOnce(t *testing.T) {
	base, child := counted()

	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	for i := 0; i < 2; i++ {
		a.OpU16(classfile.OpNew, b.Class("Child"))
		a.Op(classfile.OpPop)
	}
	emitGetOut(b, a)
	a.OpU16(classfile.OpGetstatic, b.Fieldref("Base", "count", "I"))
	a.OpU16(classfile.OpGetstatic, b.Fieldref("Base", "count", "I"))
	a.Op(classfile.OpIadd)
	emitPrintln(b, a, "(I)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 3, 1, a.Bytes())

	vm, out, err := newProgram(b, base, child).exec(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// <clinit> 只执行一次，两次读取都得到 1
	if out != "2\n" {
		t.Errorf("Expected 2, got %q", out)
	}

	stats := vm.Stats()
	if stats.ClassesLoaded != 3 {
		t.Errorf("Expected 3 classes loaded, got %d", stats.ClassesLoaded)
	}
	if stats.InitializersRun != 1 {
		t.Errorf("Expected 1 initializer run, got %d", stats.InitializersRun)
	}
	if stats.RefHits == 0 || stats.RefHitRate <= 0 {
		t.Errorf("Expected the repeated getstatic to hit the reference cache, got %+v", stats)
	}
	if got := strings.Join(vm.MethodArea().Classes(), ","); got != "Main,Child,Base" {
		t.Errorf("Expected load order Main,Child,Base, got %s", got)
	}

	first, status, err := vm.MethodArea().Load("Base")
	if err != nil || status != Resolved {
		t.Fatalf("Expected Base to resolve, got %s %v", status, err)
	}
	second, _, _ := vm.MethodArea().Load("Base")
	if first != second {
		t.Error("Expected the same ClassRuntime for repeated loads")
	}
	if vm.Stats().ClassesLoaded != 3 {
		t.Errorf("Expected repeated loads not to count, got %d", vm.Stats().ClassesLoaded)
	}
}

func TestDeferredInvokeKeepsArguments(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		args       []byte
		body       []byte
	}{
		{
			name:       "long then int",
			descriptor: "(JI)I",
			args:       []byte{classfile.OpLconst1, classfile.OpIconst5},
			body:       []byte{classfile.OpLload0, classfile.OpL2i, classfile.OpIload2, classfile.OpIadd},
		},
		{
			name:       "int then long",
			descriptor: "(IJ)I",
			args:       []byte{classfile.OpIconst5, classfile.OpLconst1},
			body:       []byte{classfile.OpIload0, classfile.OpLload1, classfile.OpL2i, classfile.OpIadd},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := classfile.NewBuilder("Calc", "java/lang/Object")
			calc.AddField(classfile.AccStatic, "base", "I")
			clinit := classfile.NewAsm().
				Op(classfile.OpBipush, 100).
				OpU16(classfile.OpPutstatic, calc.Fieldref("Calc", "base", "I")).
				Op(classfile.OpReturn)
			calc.AddMethod(classfile.AccStatic, ClinitName, ClinitDescriptor, 1, 0, clinit.Bytes())
			add := classfile.NewAsm()
			for _, op := range tt.body {
				add.Op(op)
			}
			add.OpU16(classfile.OpGetstatic, calc.Fieldref("Calc", "base", "I"))
			add.Op(classfile.OpIadd)
			add.Op(classfile.OpIreturn)
			calc.AddMethod(classfile.AccStatic, "add", tt.descriptor, 4, 3, add.Bytes())

			b := classfile.NewBuilder("Main", "java/lang/Object")
			a := classfile.NewAsm()
			emitGetOut(b, a)
			for _, op := range tt.args {
				a.Op(op)
			}
			a.OpU16(classfile.OpInvokestatic, b.Methodref("Calc", "add", tt.descriptor))
			emitPrintln(b, a, "(I)V")
			a.Op(classfile.OpReturn)
			b.AddMethod(mainFlags, "main", MainMethodDescriptor, 4, 1, a.Bytes())

			vm, out, err := newProgram(b, calc).exec(t)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if out != "106\n" {
				t.Errorf("Expected 106, got %q", out)
			}
			if vm.Stats().Deferrals != 1 {
				t.Errorf("Expected 1 deferral, got %d", vm.Stats().Deferrals)
			}
		})
	}
}

// ============================================================================
// 非多态的 invokevirtual
// ============================================================================

func TestInvokevirtualUsesReferencedClass(t *testing.T) {
	base := classfile.NewBuilder("Base", "java/lang/Object")
	base.AddMethod(classfile.AccPublic, "id", "()I", 1, 1,
		[]byte{classfile.OpIconst1, classfile.OpIreturn})
	child := classfile.NewBuilder("Child", "Base")
	child.AddMethod(classfile.AccPublic, "id", "()I", 1, 1,
		[]byte{classfile.OpIconst2, classfile.OpIreturn})

	tests := []struct {
		class string
		want  string
	}{
		{"Base", "1\n"},
		{"Child", "2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			b := classfile.NewBuilder("Main", "java/lang/Object")
			a := classfile.NewAsm()
			emitGetOut(b, a)
			a.OpU16(classfile.OpNew, b.Class("Child"))
			a.OpU16(classfile.OpInvokevirtual, b.Methodref(tt.class, "id", "()I"))
			emitPrintln(b, a, "(I)V")
			a.Op(classfile.OpReturn)
			b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

			out, err := newProgram(b, base, child).run(t)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, out)
			}
		})
	}
}

// ============================================================================
// 库方法补充
// ============================================================================

func TestPrintArrays(t *testing.T) {
	tests := []struct {
		name   string
		create func(b *classfile.Builder, a *classfile.Asm)
		prefix string
	}{
		{"int array", func(b *classfile.Builder, a *classfile.Asm) {
			a.Op(classfile.OpIconst2)
			a.Op(classfile.OpNewarray, classfile.ATypeInt)
		}, "[I@"},
		{"reference array", func(b *classfile.Builder, a *classfile.Asm) {
			a.Op(classfile.OpIconst1)
			a.OpU16(classfile.OpAnewarray, b.Class("java/lang/String"))
		}, "[L@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := classfile.NewBuilder("Main", "java/lang/Object")
			a := classfile.NewAsm()
			emitGetOut(b, a)
			tt.create(b, a)
			emitPrintln(b, a, "(Ljava/lang/Object;)V")
			a.Op(classfile.OpReturn)
			b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

			out, err := newProgram(b).run(t)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if !strings.HasPrefix(out, tt.prefix) {
				t.Errorf("Expected prefix %s, got %q", tt.prefix, out)
			}
		})
	}
}

func TestRegisterNativesIsNoOp(t *testing.T) {
	b := classfile.NewBuilder("Main", "java/lang/Object")
	a := classfile.NewAsm()
	a.OpU16(classfile.OpInvokestatic, b.Methodref("java/lang/Object", "registerNatives", "()V"))
	emitGetOut(b, a)
	a.Op(classfile.OpIconst1)
	emitPrintln(b, a, "(I)V")
	a.Op(classfile.OpReturn)
	b.AddMethod(mainFlags, "main", MainMethodDescriptor, 2, 1, a.Bytes())

	out, err := newProgram(b).run(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "1\n" {
		t.Errorf("Expected 1, got %q", out)
	}
}
