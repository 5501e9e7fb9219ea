package classfile

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 常量池查询
// ============================================================================

// Entry 返回索引 i 处的常量，索引非法或指向占位槽位时返回错误
func (cp ConstantPool) Entry(i uint16) (ConstantPoolEntry, error) {
	if i == 0 || int(i) >= len(cp) {
		return nil, errors.NewClassError(errors.C0005, i, "index in range")
	}
	entry := cp[i]
	if entry == nil || entry.Tag() == ConstantLargeContinued {
		return nil, errors.NewClassError(errors.C0005, i, "usable entry")
	}
	return entry, nil
}

// Utf8 返回 CONSTANT_Utf8 的文本
func (cp ConstantPool) Utf8(i uint16) (string, error) {
	entry, err := cp.Entry(i)
	if err != nil {
		return "", err
	}
	u, ok := entry.(*ConstantUtf8Info)
	if !ok {
		return "", errors.NewClassError(errors.C0005, i, "CONSTANT_Utf8")
	}
	return u.Value, nil
}

// ClassName 返回 CONSTANT_Class 指向的类名
func (cp ConstantPool) ClassName(i uint16) (string, error) {
	entry, err := cp.Entry(i)
	if err != nil {
		return "", err
	}
	c, ok := entry.(*ConstantClassInfo)
	if !ok {
		return "", errors.NewClassError(errors.C0005, i, "CONSTANT_Class")
	}
	return cp.Utf8(c.NameIndex)
}

// NameAndType 返回 CONSTANT_NameAndType 的名称与描述符
func (cp ConstantPool) NameAndType(i uint16) (name, descriptor string, err error) {
	entry, err := cp.Entry(i)
	if err != nil {
		return "", "", err
	}
	nt, ok := entry.(*ConstantNameAndTypeInfo)
	if !ok {
		return "", "", errors.NewClassError(errors.C0005, i, "CONSTANT_NameAndType")
	}
	if name, err = cp.Utf8(nt.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.Utf8(nt.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// MemberRef 解析字段/方法/接口方法引用，返回类名、成员名与描述符
func (cp ConstantPool) MemberRef(i uint16) (class, name, descriptor string, err error) {
	entry, err := cp.Entry(i)
	if err != nil {
		return "", "", "", err
	}
	ref, ok := entry.(*ConstantMemberrefInfo)
	if !ok {
		return "", "", "", errors.NewClassError(errors.C0005, i, "member reference")
	}
	if class, err = cp.ClassName(ref.ClassIndex); err != nil {
		return "", "", "", err
	}
	if name, descriptor, err = cp.NameAndType(ref.NameAndTypeIndex); err != nil {
		return "", "", "", err
	}
	return class, name, descriptor, nil
}

// StringValue 返回 CONSTANT_String 的文本
func (cp ConstantPool) StringValue(i uint16) (string, error) {
	entry, err := cp.Entry(i)
	if err != nil {
		return "", err
	}
	s, ok := entry.(*ConstantStringInfo)
	if !ok {
		return "", errors.NewClassError(errors.C0005, i, "CONSTANT_String")
	}
	return cp.Utf8(s.StringIndex)
}

// ============================================================================
// 格式化
// ============================================================================

// FormatConstant 将常量格式化为可读文本：
// 类引用为类名，成员引用为 Class.name，数值为十进制，浮点数为 %f
func (cp ConstantPool) FormatConstant(i uint16) (string, error) {
	entry, err := cp.Entry(i)
	if err != nil {
		return "", err
	}
	switch c := entry.(type) {
	case *ConstantClassInfo:
		return cp.Utf8(c.NameIndex)
	case *ConstantMemberrefInfo:
		class, name, _, err := cp.MemberRef(i)
		if err != nil {
			return "", err
		}
		return class + "." + name, nil
	case *ConstantStringInfo:
		return cp.Utf8(c.StringIndex)
	case *ConstantIntegerInfo:
		return fmt.Sprintf("%d", c.Value()), nil
	case *ConstantFloatInfo:
		return fmt.Sprintf("%f", c.Value()), nil
	case *ConstantLongInfo:
		return fmt.Sprintf("%d", c.Value()), nil
	case *ConstantDoubleInfo:
		return fmt.Sprintf("%f", c.Value()), nil
	case *ConstantNameAndTypeInfo:
		name, descriptor, err := cp.NameAndType(i)
		if err != nil {
			return "", err
		}
		return name + descriptor, nil
	case *ConstantUtf8Info:
		return c.Value, nil
	case *ConstantMethodTypeInfo:
		return cp.Utf8(c.DescriptorIndex)
	case *ConstantMethodHandleInfo:
		return cp.FormatConstant(c.ReferenceIndex)
	case *ConstantInvokeDynamicInfo:
		name, descriptor, err := cp.NameAndType(c.NameAndTypeIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("#%d:%s%s", c.BootstrapMethodAttrIndex, name, descriptor), nil
	default:
		return "", errors.NewClassError(errors.C0004, entry.Tag(), i)
	}
}

// formatOrMark 格式化常量，失败时返回错误标记，供打印使用
func (cp ConstantPool) formatOrMark(i uint16) string {
	s, err := cp.FormatConstant(i)
	if err != nil {
		return "?"
	}
	return s
}

// 访问标志名称，顺序与输出顺序一致
var accessFlagNames = []struct {
	mask uint16
	name string
}{
	{AccPublic, "public"},
	{AccFinal, "final"},
	{AccSuper, "super"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccVolatile, "volatile"},
	{AccTransient, "transient"},
}

// AccessFlagsString 返回访问标志的名称列表
func AccessFlagsString(flags uint16) string {
	var names []string
	for _, f := range accessFlagNames {
		if flags&f.mask != 0 {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, " ")
}

// FriendlyVersion 将主版本号转换为 Java 版本：45..48 为 1.1..1.4，49 起为 5.0, 6.0, ...
func FriendlyVersion(major uint16) string {
	switch {
	case major < MinMajorVersion:
		return "?"
	case major <= 48:
		return fmt.Sprintf("1.%d", major-44)
	default:
		return fmt.Sprintf("%d.0", major-44)
	}
}
