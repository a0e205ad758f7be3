package node

import "strings"

// IsResponseFormatUnsupportedError 判断模型端是否不支持结构化输出参数，
// 命中时链路应降级为纯提示词约束重试。
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"response_format", "json_schema", "response_schema", "failed to parse"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	if strings.Contains(msg, "response") &&
		(strings.Contains(msg, "unknown parameter") || strings.Contains(msg, "invalid")) {
		return true
	}
	return false
}
