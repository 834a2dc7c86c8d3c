package service

import (
	"mime"
	"strings"
)

// contentDisposition attachment 头，非 ASCII 文件名附加 RFC 5987 filename*
func contentDisposition(name string) string {
	fallback := asciiFallback(name)
	value := mime.FormatMediaType("attachment", map[string]string{"filename": fallback})
	if value == "" {
		value = `attachment; filename="download"`
	}
	if fallback != name {
		value += "; filename*=UTF-8''" + encodeExtValue(name)
	}
	return value
}

func asciiFallback(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r > 0x7e, r == '"', r == '\\':
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "download"
	}
	return sb.String()
}

const upperhex = "0123456789ABCDEF"

// encodeExtValue 按 RFC 5987 attr-char 百分号编码
func encodeExtValue(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if isAttrChar(b) {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[b>>4])
		sb.WriteByte(upperhex[b&0x0f])
	}
	return sb.String()
}

func isAttrChar(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", b) >= 0
}
