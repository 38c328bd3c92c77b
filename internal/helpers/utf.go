package helpers

import (
	"strings"
	"unicode/utf8"
)

// JavaScript strings are sequences of UTF-16 code units, so string literals
// are stored that way in the AST even though source files are UTF-8.

func StringToUTF16(text string) []uint16 {
	decoded := make([]uint16, 0, len(text))
	for _, c := range text {
		if c <= 0xFFFF {
			decoded = append(decoded, uint16(c))
		} else {
			c -= 0x10000
			decoded = append(decoded, uint16(0xD800+((c>>10)&0x3FF)), uint16(0xDC00+(c&0x3FF)))
		}
	}
	return decoded
}

func decodeUTF16Rune(text []uint16, i int) (rune, int) {
	r1 := rune(text[i])
	if r1 >= 0xD800 && r1 <= 0xDBFF && i+1 < len(text) {
		if r2 := rune(text[i+1]); r2 >= 0xDC00 && r2 <= 0xDFFF {
			return (r1-0xD800)<<10 | (r2 - 0xDC00) + 0x10000, 2
		}
	}
	return r1, 1
}

// Lone surrogates have no UTF-8 encoding and become U+FFFD
func UTF16ToString(text []uint16) string {
	b := strings.Builder{}
	for i := 0; i < len(text); {
		c, width := decodeUTF16Rune(text, i)
		b.WriteRune(c)
		i += width
	}
	return b.String()
}

// Does "UTF16ToString(text) == str" without a temporary allocation
func UTF16EqualsString(text []uint16, str string) bool {
	if len(text) > len(str) {
		// Strings can't be equal if UTF-16 encoding is longer than UTF-8 encoding
		return false
	}
	var temp [utf8.UTFMax]byte
	j := 0
	for i := 0; i < len(text); {
		c, width := decodeUTF16Rune(text, i)
		i += width
		n := utf8.EncodeRune(temp[:], c)
		if j+n > len(str) || string(temp[:n]) != str[j:j+n] {
			return false
		}
		j += n
	}
	return j == len(str)
}

func UTF16EqualsUTF16(a []uint16, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i, c := range a {
		if c != b[i] {
			return false
		}
	}
	return true
}
