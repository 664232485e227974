package classfile

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// decodeModifiedUTF8 解码 JVM 的 modified UTF-8。
// 非法序列替换为 U+FFFD 而不是报错：混淆器经常写入畸形字符串，它们本身就是检测信号
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 || c == 0 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b))

	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			sb.WriteByte(c)
			i++

		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || !isContinuation(b[i+1]) {
				sb.WriteRune(utf8.RuneError)
				i++
				continue
			}
			sb.WriteRune(rune(c&0x1F)<<6 | rune(b[i+1]&0x3F))
			i += 2

		case c&0xF0 == 0xE0:
			r, ok := decode3(b, i)
			if !ok {
				sb.WriteRune(utf8.RuneError)
				i++
				continue
			}
			i += 3

			// 补充平面字符以两个 3 字节代理项编码
			if utf16.IsSurrogate(r) {
				if r < 0xDC00 {
					if low, ok := decode3(b, i); ok && low >= 0xDC00 && low <= 0xDFFF {
						sb.WriteRune(utf16.DecodeRune(r, low))
						i += 3
						continue
					}
				}
				sb.WriteRune(utf8.RuneError)
				continue
			}
			sb.WriteRune(r)

		default:
			sb.WriteRune(utf8.RuneError)
			i++
		}
	}

	return sb.String()
}

func decode3(b []byte, i int) (rune, bool) {
	if i+2 >= len(b) || b[i]&0xF0 != 0xE0 || !isContinuation(b[i+1]) || !isContinuation(b[i+2]) {
		return 0, false
	}
	return rune(b[i]&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F), true
}

func isContinuation(c byte) bool {
	return c&0xC0 == 0x80
}
