package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// unescape decodes the interior of a single- or double-quoted string literal.
// It reports false for an escape sequence that has no value.
func unescape(raw []byte) (string, bool) {
	if !strings.ContainsRune(string(raw), '\\') {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			sb.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(raw) {
			return "", false
		}
		i++
		switch e := raw[i]; e {
		case 'n':
			sb.WriteByte('\n')
			i++
		case 't':
			sb.WriteByte('\t')
			i++
		case 'r':
			sb.WriteByte('\r')
			i++
		case 'b':
			sb.WriteByte('\b')
			i++
		case 'f':
			sb.WriteByte('\f')
			i++
		case 'v':
			sb.WriteByte('\v')
			i++
		case '0':
			if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '9' {
				// Legacy octal escapes are rejected in modules.
				return "", false
			}
			sb.WriteByte(0)
			i++
		case '\r':
			// Line continuation.
			i++
			if i < len(raw) && raw[i] == '\n' {
				i++
			}
		case '\n':
			i++
		case 'x':
			if i+2 >= len(raw) {
				return "", false
			}
			v, err := strconv.ParseUint(string(raw[i+1:i+3]), 16, 8)
			if err != nil {
				return "", false
			}
			sb.WriteRune(rune(v))
			i += 3
		case 'u':
			r, n, ok := unicodeEscape(raw[i+1:])
			if !ok {
				return "", false
			}
			i += 1 + n
			// Combine a surrogate pair written as two escapes.
			if r >= 0xD800 && r <= 0xDBFF && i+1 < len(raw) && raw[i] == '\\' && raw[i+1] == 'u' {
				if lo, m, ok := unicodeEscape(raw[i+2:]); ok && lo >= 0xDC00 && lo <= 0xDFFF {
					r = 0x10000 + (r-0xD800)<<10 + (lo - 0xDC00)
					i += 2 + m
				}
			}
			sb.WriteRune(r)
		default:
			if e >= '1' && e <= '9' {
				return "", false
			}
			// Identity escape; copy the full rune.
			r, size := utf8.DecodeRune(raw[i:])
			if r == utf8.RuneError && size <= 1 {
				return "", false
			}
			sb.WriteRune(r)
			i += size
		}
	}
	return sb.String(), true
}

// unicodeEscape decodes the digits following "\u": either four hex digits or
// a braced code point. It returns the rune and the number of bytes consumed.
func unicodeEscape(b []byte) (rune, int, bool) {
	if len(b) > 0 && b[0] == '{' {
		end := strings.IndexByte(string(b), '}')
		if end < 2 || end > 7 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(string(b[1:end]), 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, false
		}
		return rune(v), end + 1, true
	}
	if len(b) < 4 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(string(b[:4]), 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return rune(v), 4, true
}
