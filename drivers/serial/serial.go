// Package serial is an interrupt-fed buffered byte stream over a hal.UART.
//
// The receive handler appends to the receive ring and the transmit handler
// drains the transmit ring; foreground calls touch ring indices only inside
// a critical section. A full receive ring drops bytes (counted in Stats); a
// full transmit ring blocks the writer or fails with errcode.BufferFull.
package serial

import (
	"sync/atomic"

	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/types"
	"mcuhal-go/x/ring"
)

// Config sizes the rings and sets the line. RxSize 0 makes the port
// write-only; TxSize 0 makes writes go straight to the UART.
type Config struct {
	types.UARTConfig
	RxSize, TxSize int
	// NonBlocking makes Write fail with errcode.BufferFull instead of
	// waiting for room.
	NonBlocking bool
}

type Stats struct {
	RxDropped uint32
	RxQueued  int
	TxQueued  int
}

type Serial struct {
	uart hal.UART
	cs   hal.CriticalSection
	rx   *ring.Ring
	tx   *ring.Ring

	nonBlocking bool
	rxDropped   atomic.Uint32
}

// New configures the UART and binds its receive and transmit handlers.
func New(u hal.UART, cs hal.CriticalSection, cfg Config) (*Serial, error) {
	if cfg.RxSize < 0 || cfg.TxSize < 0 {
		return nil, errcode.Wrap(errcode.InvalidParams, "serial.New", "negative buffer size")
	}
	if err := u.SetBaudRate(cfg.Baud); err != nil {
		return nil, err
	}
	if err := u.SetParity(cfg.Parity); err != nil {
		return nil, err
	}
	if err := u.SetStopBits(cfg.StopBits); err != nil {
		return nil, err
	}

	s := &Serial{
		uart:        u,
		cs:          cs,
		rx:          ring.New(cfg.RxSize),
		tx:          ring.New(cfg.TxSize),
		nonBlocking: cfg.NonBlocking,
	}
	u.OnRxDone(s.onRx)
	u.OnTxDone(s.onTx)
	if cfg.RxSize > 0 {
		u.EnableRxInterrupt()
	}
	return s, nil
}

// ---- interrupt context ----

func (s *Serial) onRx() {
	b := s.uart.Receive()
	if !s.rx.Push(b) {
		s.rxDropped.Add(1)
	}
}

func (s *Serial) onTx() {
	if b, ok := s.tx.Pop(); ok {
		s.uart.Transmit(b)
		return
	}
	s.uart.DisableTxInterrupt()
}

// ---- foreground ----

// Write queues p for transmission. In non-blocking mode it stops at the
// first byte that does not fit and returns the count queued with
// errcode.BufferFull.
func (s *Serial) Write(p []byte) (int, error) {
	if s.tx.Cap() == 0 {
		for _, b := range p {
			s.uart.Transmit(b)
		}
		return len(p), nil
	}
	for i, b := range p {
		for !s.push(b) {
			if s.nonBlocking {
				return i, errcode.BufferFull
			}
		}
	}
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (s *Serial) WriteByte(b byte) error {
	_, err := s.Write([]byte{b})
	return err
}

func (s *Serial) push(b byte) bool {
	st := s.cs.Enter()
	ok := s.tx.Push(b)
	if ok {
		// Start the transmitter; the handler switches itself off once the
		// ring runs dry.
		s.uart.EnableTxInterrupt()
	}
	s.cs.Exit(st)
	return ok
}

// Read drains up to len(p) received bytes. It never waits; n is 0 when
// nothing has arrived.
func (s *Serial) Read(p []byte) (int, error) {
	st := s.cs.Enter()
	n := s.rx.ReadInto(p)
	s.cs.Exit(st)
	return n, nil
}

// ReadByte returns errcode.Empty when nothing is buffered.
func (s *Serial) ReadByte() (byte, error) {
	st := s.cs.Enter()
	b, ok := s.rx.Pop()
	s.cs.Exit(st)
	if !ok {
		return 0, errcode.Empty
	}
	return b, nil
}

// Buffered is the number of received bytes waiting to be read.
func (s *Serial) Buffered() int { return s.rx.Len() }

// Flush waits until the transmit ring is empty. The last byte may still be
// shifting out of the UART when it returns.
func (s *Serial) Flush() {
	for !s.tx.IsEmpty() {
	}
}

func (s *Serial) Stats() Stats {
	return Stats{
		RxDropped: s.rxDropped.Load(),
		RxQueued:  s.rx.Len(),
		TxQueued:  s.tx.Len(),
	}
}
