package vm

import (
	"strings"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
	"github.com/tangzhangming/javm/internal/loader"
)

const (
	objectClass = "java/lang/Object"
	stringClass = "java/lang/String"
)

// classOperand 读取 pc+1 处 CONSTANT_Class 的名称
func (vm *VM) classOperand() string {
	name, err := vm.frame().ConstantPool().ClassName(vm.u16(1))
	vm.must(err)
	return name
}

// loadUserClass 名称指向用户类时加载它，数组描述符与库类跳过；返回 false 表示已推迟
func (vm *VM) loadUserClass(name string) bool {
	if strings.HasPrefix(name, "[") {
		name = strings.TrimLeft(name, "[")
		if !strings.HasPrefix(name, "L") {
			return true
		}
		name = strings.TrimSuffix(name[1:], ";")
	}
	if loader.IsLibraryClass(name) {
		return true
	}
	_, ok := vm.loadClass(name)
	return ok
}

// ============================================================================
// 对象创建
// ============================================================================

// opNew 分配对象。String 直接分配空字符串，用户类沿超类链收集实例字段
func opNew(vm *VM) {
	name := vm.classOperand()
	if name == stringClass {
		vm.frame().Push(RefValue(vm.alloc(NewStringObject(""))))
		vm.advance(3)
		return
	}
	cls, ok := vm.loadClass(name)
	if !ok {
		return
	}
	chain, status, err := vm.area.Hierarchy(cls)
	vm.must(err)
	if status == Deferred {
		vm.deferred(name)
		return
	}
	inst, err := NewClassInstance(chain...)
	vm.must(err)
	vm.frame().Push(RefValue(vm.alloc(inst)))
	vm.advance(3)
}

// arrayTypes newarray 的 atype 到元素类型
var arrayTypes = map[uint8]ValueType{
	classfile.ATypeBoolean: TypeBoolean,
	classfile.ATypeChar:    TypeChar,
	classfile.ATypeFloat:   TypeFloat,
	classfile.ATypeDouble:  TypeDouble,
	classfile.ATypeByte:    TypeByte,
	classfile.ATypeShort:   TypeShort,
	classfile.ATypeInt:     TypeInt,
	classfile.ATypeLong:    TypeLong,
}

// popCount 弹出数组长度，负数抛出 NegativeArraySizeException
func (vm *VM) popCount() int {
	n := vm.popInt()
	if n < 0 {
		vm.throw(errors.R0101, n)
	}
	return int(n)
}

func opNewarray(vm *VM) {
	atype := vm.u8(1)
	t, ok := arrayTypes[atype]
	if !ok {
		vm.internal("invalid newarray type %d", atype)
	}
	n := vm.popCount()
	vm.frame().Push(RefValue(vm.alloc(NewArrayObject(t, n))))
	vm.advance(2)
}

// opAnewarray 引用数组。元素为用户类时先加载它
func opAnewarray(vm *VM) {
	if !vm.loadUserClass(vm.classOperand()) {
		return
	}
	n := vm.popCount()
	vm.frame().Push(RefValue(vm.alloc(NewArrayObject(TypeReference, n))))
	vm.advance(3)
}

// opMultianewarray 按维度依次创建嵌套数组，最内层使用元素类型
func opMultianewarray(vm *VM) {
	descriptor := vm.classOperand()
	dims := int(vm.u8(3))
	if dims < 1 || dims > strings.Count(descriptor, "[") {
		vm.internal("multianewarray of %s with %d dimensions", descriptor, dims)
	}
	if !vm.loadUserClass(descriptor) {
		return
	}
	counts := make([]int, dims)
	for i := dims - 1; i >= 0; i-- {
		counts[i] = vm.popCount()
	}
	inner := TypeForDescriptor(descriptor[dims])
	vm.frame().Push(vm.newMultiArray(counts, inner))
	vm.advance(4)
}

func (vm *VM) newMultiArray(counts []int, inner ValueType) Value {
	if len(counts) == 1 {
		return RefValue(vm.alloc(NewArrayObject(inner, counts[0])))
	}
	arr := NewArrayObject(TypeReference, counts[0])
	for i := 0; i < counts[0]; i++ {
		arr.Set(i, vm.newMultiArray(counts[1:], inner))
	}
	return RefValue(vm.alloc(arr))
}

func opArraylength(vm *VM) {
	arr := vm.arrayOf(vm.popRef(), "read the length of an array")
	vm.pushInt(int32(arr.Len()))
	vm.advance(1)
}

// ============================================================================
// 类型检查
// ============================================================================

// opCheckcast 引用保留在栈上；null 总能通过，类型不符抛出 ClassCastException
func opCheckcast(vm *VM) {
	target := vm.classOperand()
	if !vm.loadUserClass(target) {
		return
	}
	v := vm.frame().Peek(0)
	vm.expect(v, TypeReference)
	if obj := vm.heap.Get(v.Ref()); obj != nil && !vm.isInstance(obj, target) {
		vm.fatal(errors.NewRuntimeError(errors.R0301, vm.typeName(obj), target).
			With("target", target).WithHints())
	}
	vm.advance(3)
}

// opInstanceof null 结果为 0
func opInstanceof(vm *VM) {
	target := vm.classOperand()
	if !vm.loadUserClass(target) {
		return
	}
	obj := vm.heap.Get(vm.popRef().Ref())
	result := int32(0)
	if obj != nil && vm.isInstance(obj, target) {
		result = 1
	}
	vm.pushInt(result)
	vm.advance(3)
}

// typeName 对象的类型名，用于错误信息
func (vm *VM) typeName(obj Object) string {
	switch o := obj.(type) {
	case *ClassInstance:
		return o.Class().Name()
	case *StringObject:
		return stringClass
	case *ArrayObject:
		return "[" + string(descriptorOf(o.ElementType()))
	default:
		return "?"
	}
}

// descriptorOf 元素类型对应的描述符首字符，引用元素为 L
func descriptorOf(t ValueType) byte {
	if t <= TypeDouble {
		return "ZBCSIFJD"[t]
	}
	return 'L'
}

// isInstance 判断对象是否可赋值给 target
func (vm *VM) isInstance(obj Object, target string) bool {
	if target == objectClass {
		return true
	}
	switch o := obj.(type) {
	case *StringObject:
		return target == stringClass
	case *ArrayObject:
		// 引用数组不记录元素类，只比较维度起始的元素种类
		if len(target) < 2 || target[0] != '[' {
			return false
		}
		if o.ElementType() == TypeReference {
			return target[1] == 'L' || target[1] == '['
		}
		return target[1] == descriptorOf(o.ElementType())
	case *ClassInstance:
		return vm.subclassOf(o.Class(), target)
	default:
		return false
	}
}

// subclassOf 沿已加载的超类链与接口检查 cls 是否为 target 的子类型
func (vm *VM) subclassOf(cls *ClassRuntime, target string) bool {
	for cur := cls; cur != nil; {
		if cur.Name() == target || vm.implements(cur, target) {
			return true
		}
		super := cur.SuperName()
		if super == "" {
			return false
		}
		if loader.IsLibraryClass(super) {
			return super == target
		}
		cur, _ = vm.area.Get(super)
	}
	return false
}

// implements 检查 cls 直接或经由父接口实现 target
func (vm *VM) implements(cls *ClassRuntime, target string) bool {
	if cls.Implements(target) {
		return true
	}
	for _, name := range cls.Interfaces() {
		if iface, ok := vm.area.Get(name); ok && vm.implements(iface, target) {
			return true
		}
	}
	return false
}
