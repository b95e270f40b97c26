//go:build rp2040

// Package rp2 carries the trace console onto an RP2040 PL011 through the
// interrupt-driven uartx driver, so the same trace facade runs on Pico boards.
package rp2

import (
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"mcuhal-go/errcode"
	"mcuhal-go/trace"
	"mcuhal-go/types"
)

// Console is a configured PL011 used as a write-mostly line.
type Console struct {
	u *uartx.UART
}

// OpenConsole configures uart0 or uart1 on the given pins. Pass
// machine.NoPin for both tx and rx to keep the board's default pins.
func OpenConsole(id string, tx, rx machine.Pin, cfg types.UARTConfig) (*Console, error) {
	var hw *uartx.UART
	switch id {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errcode.InvalidParams
	}
	if !cfg.Baud.Valid() {
		return nil, errcode.InvalidBaud
	}
	if !cfg.Parity.Valid() || !cfg.StopBits.Valid() {
		return nil, errcode.InvalidParams
	}
	if err := hw.Configure(uartx.UARTConfig{BaudRate: cfg.Baud.Hz(), TX: tx, RX: rx}); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "rp2.console", Err: err}
	}
	var par uartx.UARTParity
	switch cfg.Parity {
	case types.ParityEven:
		par = uartx.ParityEven
	case types.ParityOdd:
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	if err := hw.SetFormat(8, uint8(cfg.StopBits), par); err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "rp2.console", Msg: err.Error(), Err: err}
	}
	return &Console{u: hw}, nil
}

// Write queues p on the transmit ring; the ISR drains it.
func (c *Console) Write(p []byte) (int, error) { return c.u.Write(p) }

// Read is non-blocking and returns 0 when nothing is buffered.
func (c *Console) Read(p []byte) (int, error) { return c.u.Read(p) }

// Trace returns a trace facade that prints through the console.
func (c *Console) Trace(threshold trace.Level) *trace.Trace {
	return trace.New(trace.NewSerialOutput(c), threshold)
}
