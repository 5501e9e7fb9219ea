package errors

import (
	"github.com/tangzhangming/javm/internal/i18n"
)

// ============================================================================
// 修复建议生成器
// ============================================================================

// SuggestionGenerator 修复建议生成器
type SuggestionGenerator struct{}

// NewSuggestionGenerator 创建修复建议生成器
func NewSuggestionGenerator() *SuggestionGenerator {
	return &SuggestionGenerator{}
}

// GetSuggestions 根据错误码和上下文获取修复建议
func (g *SuggestionGenerator) GetSuggestions(code string, context map[string]interface{}) []string {
	switch code {
	// class 文件错误
	case C0001:
		return []string{i18n.T(i18n.HintNotAClassFile)}
	case C0002:
		return []string{i18n.T(i18n.HintRecompileTarget)}

	// 运行时错误
	case R0100:
		return g.arrayIndexSuggestions(context)
	case R0200:
		return []string{i18n.T(i18n.HintCheckDivisor)}
	case R0300:
		return []string{i18n.T(i18n.HintCheckNull)}
	case R0301:
		return g.castSuggestions(context)
	case R0302:
		return g.instantiationSuggestions(context)
	case R0303:
		return g.classNotFoundSuggestions(context)
	case R0304, R0305:
		return g.memberSuggestions(context)
	case R0306:
		return []string{i18n.T(i18n.HintSupportedLibrary)}
	case R0307:
		return g.incompatibleSuggestions(context)
	case R0400:
		return []string{
			i18n.T(i18n.HintCheckRecursion),
			i18n.T(i18n.HintRaiseDepth),
		}

	default:
		return nil
	}
}

// ============================================================================
// 具体建议生成
// ============================================================================

// arrayIndexSuggestions 数组越界的建议
func (g *SuggestionGenerator) arrayIndexSuggestions(context map[string]interface{}) []string {
	length, ok := context["length"].(int)
	if !ok {
		return nil
	}
	if length == 0 {
		return []string{i18n.T(i18n.HintEmptyArray)}
	}
	return []string{i18n.T(i18n.HintArrayIndexRange, length-1)}
}

// castSuggestions 类型转换失败的建议
func (g *SuggestionGenerator) castSuggestions(context map[string]interface{}) []string {
	target, _ := context["target"].(string)
	if target == "" {
		return nil
	}
	return []string{i18n.T(i18n.HintCheckCast, target)}
}

// instantiationSuggestions 实例化抽象类的建议
func (g *SuggestionGenerator) instantiationSuggestions(context map[string]interface{}) []string {
	class, _ := context["class"].(string)
	if class == "" {
		return nil
	}
	return []string{i18n.T(i18n.HintConcreteClass, class)}
}

// classNotFoundSuggestions 类找不到的建议
func (g *SuggestionGenerator) classNotFoundSuggestions(context map[string]interface{}) []string {
	class, _ := context["class"].(string)
	classpath, _ := context["classpath"].(string)
	if class == "" {
		return nil
	}
	if classpath == "" {
		classpath = "."
	}
	return []string{i18n.T(i18n.HintCheckClasspath, class, classpath)}
}

// memberSuggestions 字段或方法找不到的建议
func (g *SuggestionGenerator) memberSuggestions(context map[string]interface{}) []string {
	class, _ := context["class"].(string)
	if class == "" {
		return nil
	}
	return []string{i18n.T(i18n.HintCheckMember, class)}
}

// incompatibleSuggestions 静态/实例不匹配的建议
func (g *SuggestionGenerator) incompatibleSuggestions(context map[string]interface{}) []string {
	class, _ := context["class"].(string)
	if class == "" {
		return nil
	}
	return []string{i18n.T(i18n.HintRecompileBoth, class)}
}

// ============================================================================
// 便捷函数
// ============================================================================

var defaultGenerator = NewSuggestionGenerator()

// GetSuggestions 使用默认生成器获取建议
func GetSuggestions(code string, context map[string]interface{}) []string {
	return defaultGenerator.GetSuggestions(code, context)
}

// WithHints 根据错误码和上下文填充修复建议
func (e *RuntimeError) WithHints() *RuntimeError {
	e.Hints = GetSuggestions(e.Code, e.Context)
	return e
}
