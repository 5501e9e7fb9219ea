package classfile

import (
	"fmt"
	"io"
	"math"

	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 解析选项
// ============================================================================

type parseOptions struct {
	maxMajorVersion uint16
}

// Option 解析选项
type Option func(*parseOptions)

// WithMaxMajorVersion 设置允许的最高主版本号
func WithMaxMajorVersion(v uint16) Option {
	return func(o *parseOptions) {
		if v != 0 {
			o.maxMajorVersion = v
		}
	}
}

// ============================================================================
// 解析
// ============================================================================

// ReadFrom 从 io.Reader 读取并解析 class 文件
func ReadFrom(r io.Reader, opts ...Option) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read class file: %w", err)
	}
	return Parse(data, opts...)
}

// Parse 解析 class 文件字节
func Parse(data []byte, opts ...Option) (*ClassFile, error) {
	o := parseOptions{maxMajorVersion: DefaultMaxMajorVersion}
	for _, opt := range opts {
		opt(&o)
	}

	r := NewByteReader(data)
	cf := &ClassFile{}

	cf.Magic = r.ReadU32()
	if r.Err() != nil {
		return nil, r.Err()
	}
	if cf.Magic != ClassFileMagic {
		return nil, errors.NewClassError(errors.C0001, cf.Magic)
	}

	cf.MinorVersion = r.ReadU16()
	cf.MajorVersion = r.ReadU16()
	if r.Err() != nil {
		return nil, r.Err()
	}
	if cf.MajorVersion > o.maxMajorVersion {
		return nil, errors.NewClassError(errors.C0002,
			cf.MajorVersion, cf.MinorVersion, FriendlyVersion(cf.MajorVersion),
			o.maxMajorVersion, FriendlyVersion(o.maxMajorVersion))
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = pool

	cf.AccessFlags = r.ReadU16()
	cf.ThisClass = r.ReadU16()
	cf.SuperClass = r.ReadU16()

	n := int(r.ReadU16())
	for i := 0; i < n && r.Err() == nil; i++ {
		cf.Interfaces = append(cf.Interfaces, r.ReadU16())
	}
	if r.Err() != nil {
		return nil, r.Err()
	}

	n = int(r.ReadU16())
	for i := 0; i < n; i++ {
		flags, name, desc := r.ReadU16(), r.ReadU16(), r.ReadU16()
		attrs, err := readAttributes(r, pool)
		if err != nil {
			return nil, err
		}
		cf.Fields = append(cf.Fields, FieldInfo{AccessFlags: flags, NameIndex: name, DescriptorIndex: desc, Attributes: attrs})
	}

	n = int(r.ReadU16())
	for i := 0; i < n; i++ {
		flags, name, desc := r.ReadU16(), r.ReadU16(), r.ReadU16()
		attrs, err := readAttributes(r, pool)
		if err != nil {
			return nil, err
		}
		cf.Methods = append(cf.Methods, MethodInfo{AccessFlags: flags, NameIndex: name, DescriptorIndex: desc, Attributes: attrs})
	}

	attrs, err := readAttributes(r, pool)
	if err != nil {
		return nil, err
	}
	cf.Attributes = attrs

	if _, err := pool.ClassName(cf.ThisClass); err != nil {
		return nil, err
	}
	return cf, nil
}

// readConstantPool 读取常量池，long/double 之后的槽位填入占位条目
func readConstantPool(r *ByteReader) (ConstantPool, error) {
	count := int(r.ReadU16())
	if r.Err() != nil {
		return nil, r.Err()
	}
	if count == 0 {
		count = 1
	}
	pool := make(ConstantPool, count)

	for i := 1; i < count; i++ {
		tag := r.ReadU8()
		var entry ConstantPoolEntry

		switch tag {
		case ConstantUtf8:
			raw := r.ReadBytes(int(r.ReadU16()))
			entry = &ConstantUtf8Info{Value: DecodeModifiedUTF8(raw), Raw: raw}
		case ConstantInteger:
			entry = &ConstantIntegerInfo{Bytes: r.ReadU32()}
		case ConstantFloat:
			entry = &ConstantFloatInfo{Bytes: r.ReadU32()}
		case ConstantLong:
			entry = &ConstantLongInfo{HighBytes: r.ReadU32(), LowBytes: r.ReadU32()}
		case ConstantDouble:
			entry = &ConstantDoubleInfo{HighBytes: r.ReadU32(), LowBytes: r.ReadU32()}
		case ConstantClass:
			entry = &ConstantClassInfo{NameIndex: r.ReadU16()}
		case ConstantString:
			entry = &ConstantStringInfo{StringIndex: r.ReadU16()}
		case ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref:
			entry = &ConstantMemberrefInfo{Kind: tag, ClassIndex: r.ReadU16(), NameAndTypeIndex: r.ReadU16()}
		case ConstantNameAndType:
			entry = &ConstantNameAndTypeInfo{NameIndex: r.ReadU16(), DescriptorIndex: r.ReadU16()}
		case ConstantMethodHandle:
			entry = &ConstantMethodHandleInfo{ReferenceKind: r.ReadU8(), ReferenceIndex: r.ReadU16()}
		case ConstantMethodType:
			entry = &ConstantMethodTypeInfo{DescriptorIndex: r.ReadU16()}
		case ConstantInvokeDynamic:
			entry = &ConstantInvokeDynamicInfo{BootstrapMethodAttrIndex: r.ReadU16(), NameAndTypeIndex: r.ReadU16()}
		default:
			if r.Err() != nil {
				return nil, r.Err()
			}
			return nil, errors.NewClassError(errors.C0004, tag, i)
		}
		if r.Err() != nil {
			return nil, r.Err()
		}

		pool[i] = entry
		if tag == ConstantLong || tag == ConstantDouble {
			if i+1 < count {
				pool[i+1] = &ConstantUnusable{}
			}
			i++
		}
	}
	return pool, nil
}

// ============================================================================
// 数值常量构造
// ============================================================================

// IntegerConstant 构造 int 常量
func IntegerConstant(v int32) *ConstantIntegerInfo {
	return &ConstantIntegerInfo{Bytes: uint32(v)}
}

// FloatConstant 构造 float 常量
func FloatConstant(v float32) *ConstantFloatInfo {
	return &ConstantFloatInfo{Bytes: math.Float32bits(v)}
}

// LongConstant 构造 long 常量
func LongConstant(v int64) *ConstantLongInfo {
	u := uint64(v)
	return &ConstantLongInfo{HighBytes: uint32(u >> 32), LowBytes: uint32(u)}
}

// DoubleConstant 构造 double 常量
func DoubleConstant(v float64) *ConstantDoubleInfo {
	u := math.Float64bits(v)
	return &ConstantDoubleInfo{HighBytes: uint32(u >> 32), LowBytes: uint32(u)}
}
