package mcp2515

import (
	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/trace"
	"mcuhal-go/x/conv"
)

// DumpAllRegs reads every register in ascending address order and emits one
// Debug record per address, formatted "<NAME> (0xAA) = 0xVV". A failed read
// still gets its record, at Error level with the error code in place of the
// value, and the first such error is returned after the walk.
func DumpAllRegs(t *trace.Trace, flash hal.Flash, io *IoSpi) error {
	var (
		first error
		name  [labelWidth]byte
		line  [40]byte
	)
	for a := 0; a < NumRegisters; a++ {
		r := Register(a)
		v, err := io.ReadRegister(r)

		msg := append(line[:0], Label(flash, r, &name)...)
		msg = append(msg, " ("...)
		msg = conv.AppendHex8(msg, byte(r))
		msg = append(msg, ") = "...)
		if err != nil {
			if first == nil {
				first = err
			}
			msg = append(msg, string(errcode.Of(err))...)
			t.Emit(trace.Error, msg)
			continue
		}
		msg = conv.AppendHex8(msg, v)
		t.Emit(trace.Debug, msg)
	}
	return first
}
