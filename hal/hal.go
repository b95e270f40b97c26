// Package hal defines the board-independent contracts implemented by the
// per-MCU packages and consumed by drivers.
package hal

import "mcuhal-go/types"

// ---- GPIO ----

type PullUpMode uint8

const (
	PullNone PullUpMode = iota
	PullUp
)

func (m PullUpMode) String() string {
	if m == PullUp {
		return "pull_up"
	}
	return "none"
}

type DigitalInPin interface {
	IsSet() bool
	// SetPullUpMode must only be called while the pin is an input.
	SetPullUpMode(mode PullUpMode)
}

type DigitalOutPin interface {
	Set()
	Clr()
}

// ---- Interrupts ----

// IRQState is the saved global interrupt state returned by Enter.
type IRQState uintptr

// CriticalSection suspends global interrupts. Exit restores exactly the state
// returned by the matching Enter, so sections nest.
type CriticalSection interface {
	Enter() IRQState
	Exit(state IRQState)
}

// IntNum is a platform interrupt source identifier.
type IntNum uint8

type InterruptController interface {
	EnableInterrupt(id IntNum)
	DisableInterrupt(id IntNum)
}

// ---- SPI ----

// SpiMaster performs one full-duplex byte exchange per call. Chip-select is
// the caller's business.
type SpiMaster interface {
	Exchange(out byte) (in byte)
}

// ---- UART ----

// UART is a byte-level asynchronous serial peripheral. Callbacks run in
// interrupt context.
type UART interface {
	// Transmit blocks until the data register is free, then writes b.
	Transmit(b byte)
	// Receive returns the byte in the receive data register.
	Receive() byte

	SetBaudRate(baud types.BaudRate) error
	SetParity(p types.Parity) error
	SetStopBits(s types.StopBits) error

	EnableTxInterrupt()
	DisableTxInterrupt()
	EnableRxInterrupt()
	DisableRxInterrupt()

	// OnRxDone and OnTxDone bind the single handler for each event.
	OnRxDone(fn func())
	OnTxDone(fn func())
}

// ---- Flash ----

// ROM marks a constant table that is only read through a Flash accessor.
type ROM string

// Flash copies ROM tables into caller buffers.
type Flash interface {
	// Read copies from src starting at off into dst and returns the count.
	Read(dst []byte, src ROM, off int) int
}
