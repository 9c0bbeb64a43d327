package httpapi

import (
	"fmt"
	"strings"
)

const defaultFileName = "config"

// outputFileName validates the fileName query value and appends ".yaml" when
// it has no extension.
func outputFileName(name string) (string, error) {
	base := strings.TrimSpace(name)
	if base == "" {
		base = defaultFileName
	}
	if strings.ContainsAny(base, "\r\n\x00") {
		return "", requestError("INVALID_ARGUMENT", "fileName 含有非法控制字符", "")
	}
	if strings.Contains(base, "/") || strings.Contains(base, "\\") {
		return "", requestError("INVALID_ARGUMENT", "fileName 不允许包含路径分隔符", "")
	}
	if len(base) > 200 {
		return "", requestError("INVALID_ARGUMENT", "fileName 过长", "max=200 bytes")
	}
	if !hasExt(base) {
		base += ".yaml"
	}
	return base, nil
}

func hasExt(name string) bool {
	i := strings.LastIndexByte(name, '.')
	return i > 0 && i < len(name)-1
}

func contentDispositionAttachment(filename string) string {
	// RFC 6266 + RFC 5987.
	escaped := strings.ReplaceAll(filename, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")

	// pctEncode follows our deterministic encoding (space => %20).
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", escaped, pctEncode(filename))
}
