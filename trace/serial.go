package trace

import (
	"io"
	"sync"
)

// SerialOutput writes records as "Level: message\r\n".
type SerialOutput struct {
	w io.Writer

	mu   sync.Mutex
	line []byte
}

func NewSerialOutput(w io.Writer) *SerialOutput {
	return &SerialOutput{w: w, line: make([]byte, 0, 80)}
}

// Emit assembles the whole line first so it reaches the transport in one
// write. Transport errors are dropped: there is nowhere left to report them.
func (o *SerialOutput) Emit(l Level, msg []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.line = append(o.line[:0], l.String()...)
	o.line = append(o.line, ": "...)
	o.line = append(o.line, msg...)
	o.line = append(o.line, '\r', '\n')
	_, _ = o.w.Write(o.line)
}
