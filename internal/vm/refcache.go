package vm

import (
	"github.com/tangzhangming/javm/internal/classfile"
)

// ============================================================================
// 成员引用缓存
// ============================================================================

// memberRef 解码后的 Fieldref/Methodref/InterfaceMethodref
type memberRef struct {
	class      string
	name       string
	descriptor string
	field      classfile.FieldType        // 字段引用的类型
	method     classfile.MethodDescriptor // 方法引用的参数与返回类型
}

// key 原生方法表的键
func (r *memberRef) key() string {
	return r.class + "." + r.name
}

type refKey struct {
	class *ClassRuntime
	index uint16
}

// RefCache 按 (类, 常量池索引) 缓存解码后的成员引用，
// 同一调用点重复执行时不再查常量池和解析描述符。
type RefCache struct {
	entries map[refKey]*memberRef
	hits    int64
	misses  int64
}

// NewRefCache 创建缓存
func NewRefCache() *RefCache {
	return &RefCache{entries: make(map[refKey]*memberRef)}
}

// lookup 返回 cls 常量池中 index 处的成员引用，isMethod 时同时解析方法描述符
func (c *RefCache) lookup(cls *ClassRuntime, index uint16, isMethod bool) (*memberRef, error) {
	key := refKey{class: cls, index: index}
	if ref, ok := c.entries[key]; ok {
		c.hits++
		return ref, nil
	}
	c.misses++

	class, name, descriptor, err := cls.ConstantPool().MemberRef(index)
	if err != nil {
		return nil, err
	}
	ref := &memberRef{class: class, name: name, descriptor: descriptor}
	if isMethod {
		if ref.method, err = classfile.ParseMethodDescriptor(descriptor); err != nil {
			return nil, err
		}
	} else if ref.field, err = classfile.ParseFieldType(descriptor); err != nil {
		return nil, err
	}
	c.entries[key] = ref
	return ref, nil
}

// Stats 命中与未命中次数
func (c *RefCache) Stats() (hits, misses int64) {
	return c.hits, c.misses
}

// HitRate 命中率
func (c *RefCache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
