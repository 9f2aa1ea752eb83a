package diag

import (
	"bytes"
	"runtime"
)

// stackHeader copies the numeric goroutine id out of the "goroutine NN ..."
// header line runtime.Stack prints, into buf, returning the number of bytes
// written. It never allocates more than a small fixed stack buffer.
func stackHeader(buf []byte) int {
	var raw [128]byte
	n := runtime.Stack(raw[:], false)
	line := raw[:n]
	const prefix = "goroutine "
	idx := bytes.Index(line, []byte(prefix))
	if idx < 0 {
		return copy(buf, "unknown")
	}
	rest := line[idx+len(prefix):]
	sp := bytes.IndexByte(rest, ' ')
	if sp < 0 {
		return copy(buf, "unknown")
	}
	return copy(buf, rest[:sp])
}
