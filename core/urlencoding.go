package core

import (
	"sort"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// EncodeValues renders a map as key=value pairs joined by '&', with keys in
// byte order. Spaces stay literal in keys and become '+' in values.
func EncodeValues(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeComponent(key))
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(escapeComponent(values[key]), " ", "+"))
	}
	return b.String()
}

func escapeComponent(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if shouldKeepByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0F])
	}
	return b.String()
}

func shouldKeepByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case ' ', '!', '$', '\'', '(', ')', '*', '-', '.', ';', '@', '_', '~':
		return true
	}
	return false
}
