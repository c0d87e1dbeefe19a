package rcur

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseLegacy 解析旧版文本格式：每个非空（去除首尾空白后）行为一个槽位的 base64 编码，
// 共 SlotCount 行，顺序与容器槽位一致。
// 错误：ErrAlreadyBinary、ErrNotText，或 *LegacyError（ErrSlotCountMismatch / ErrInvalidBase64）。
func ParseLegacy(text []byte) (Images, error) {
	var out Images
	if IsContainer(text) {
		return out, ErrAlreadyBinary
	}
	text = bytes.TrimPrefix(text, utf8BOM)
	if !utf8.Valid(text) {
		return out, ErrNotText
	}
	lines := legacyLines(string(text))
	if len(lines) != SlotCount {
		return out, &LegacyError{Kind: ErrSlotCountMismatch, Found: len(lines)}
	}
	for i, ln := range lines {
		b, err := base64.StdEncoding.DecodeString(ln)
		if err != nil {
			return Images{}, &LegacyError{Kind: ErrInvalidBase64, Line: i + 1, Err: err}
		}
		out[i] = b
	}
	return out, nil
}

// legacyLines 按行切分（兼容 LF/CRLF/CR），丢弃空白行。
func legacyLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			out = append(out, t)
		}
	}
	return out
}
