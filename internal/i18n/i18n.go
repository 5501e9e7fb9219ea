package i18n

import (
	"fmt"
)

// Language 诊断与命令行文本的语言
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// catalogues 各语言的消息表，缺失的条目回退到英文
var catalogues = map[Language]map[string]string{
	LangEnglish: messagesEN,
	LangChinese: messagesZH,
}

// 解释器单线程运行，语言只在启动时由配置或 --lang 设置一次
var currentLang = LangEnglish

// ParseLanguage 解析配置文件和 --lang 中的语言名，只接受 en 与 zh
func ParseLanguage(name string) (Language, error) {
	lang := Language(name)
	if _, ok := catalogues[lang]; !ok {
		return "", fmt.Errorf("unknown language %q (supported: en, zh)", name)
	}
	return lang, nil
}

// SetLanguage 设置当前语言
func SetLanguage(lang Language) {
	currentLang = lang
}

// SetLanguageFromString 解析并设置语言，未知语言时保持不变并返回错误
func SetLanguageFromString(name string) error {
	lang, err := ParseLanguage(name)
	if err != nil {
		return err
	}
	SetLanguage(lang)
	return nil
}

// GetLanguage 当前语言
func GetLanguage() Language {
	return currentLang
}

// T 按当前语言取消息并格式化；两种语言都没有时返回消息 ID
func T(msgID string, args ...interface{}) string {
	msg, ok := catalogues[currentLang][msgID]
	if !ok {
		if msg, ok = messagesEN[msgID]; !ok {
			return msgID
		}
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
