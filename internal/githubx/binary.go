package githubx

import (
	"bytes"
	"unicode/utf8"
)

// sniffLen matches git's own heuristic window.
const sniffLen = 8000

// IsBinary reports whether data looks like binary content: a NUL byte or
// invalid UTF-8 within the first 8000 bytes.
func IsBinary(data []byte) bool {
	window := data
	truncated := false
	if len(window) > sniffLen {
		window = window[:sniffLen]
		truncated = true
	}
	if bytes.IndexByte(window, 0) >= 0 {
		return true
	}
	if truncated {
		// A multibyte rune may be cut at the window edge.
		for range utf8.UTFMax - 1 {
			if utf8.Valid(window) {
				break
			}
			window = window[:len(window)-1]
		}
	}
	return !utf8.Valid(window)
}
