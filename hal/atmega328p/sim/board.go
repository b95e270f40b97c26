// Package sim is a host-side model of the ATmega328P peripherals used by
// this module. Registers are reg.Func8 values whose hooks model the
// hardware side effects, and interrupts are delivered synchronously on the
// goroutine that caused them, gated the way the CPU gates them: SREG.I, the
// source enable bit and the peripheral flag must all be set.
package sim

import (
	"fmt"

	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/reg"
)

// Consecutive deliveries after which service gives up.
const stormLimit = 10000

// Board wires the simulated register file together.
type Board struct {
	masks [atmega328p.NumMaskRegs]*reg.Func8

	PortB, PortC, PortD *Port
	SPI                 *SPI
	UART                *UART

	ic        *atmega328p.InterruptController
	pending   [atmega328p.NumInterrupts]bool
	delivered [atmega328p.NumInterrupts]int
	servicing bool
}

func New() *Board {
	b := &Board{}
	for i := range b.masks {
		f := &reg.Func8{}
		f.Write = func(old, v uint8) { b.service() }
		b.masks[i] = f
	}
	b.PortB = newPort(b)
	b.PortC = newPort(b)
	b.PortD = newPort(b)
	b.SPI = newSPI(b)
	b.UART = newUART(b)
	// Peripheral control registers double as mask registers.
	b.masks[atmega328p.RegSPCR] = &b.SPI.SPCR
	b.masks[atmega328p.RegUCSR0B] = &b.UART.UCSRB
	return b
}

// Masks returns the mask register set for atmega328p.NewInterruptController.
func (b *Board) Masks() atmega328p.MaskRegisters {
	var m atmega328p.MaskRegisters
	for i, f := range b.masks {
		m[i] = f
	}
	return m
}

// SREG is the status register.
func (b *Board) SREG() reg.Reg8 { return b.masks[atmega328p.RegSREG] }

// Attach routes delivered interrupts to ic.
func (b *Board) Attach(ic *atmega328p.InterruptController) {
	b.ic = ic
	b.service()
}

// NewInterruptController builds a controller over the board's mask
// registers and attaches it.
func (b *Board) NewInterruptController() *atmega328p.InterruptController {
	ic := atmega328p.NewInterruptController(b.Masks())
	b.Attach(ic)
	return ic
}

// Raise latches the flag of a source that has no modelled peripheral, such
// as an external or pin change interrupt.
func (b *Board) Raise(id atmega328p.Interrupt) {
	if int(id) >= len(b.pending) {
		panic(fmt.Sprintf("sim: interrupt %d out of range", id))
	}
	b.pending[id] = true
	b.service()
}

// Pending reports whether a raised flag is still waiting for delivery.
func (b *Board) Pending(id atmega328p.Interrupt) bool { return b.flagged(id) }

// Delivered counts handler invocations for id.
func (b *Board) Delivered(id atmega328p.Interrupt) int { return b.delivered[id] }

func (b *Board) flagged(id atmega328p.Interrupt) bool {
	switch id {
	case atmega328p.SpiTransferComplete:
		return b.SPI.spif
	case atmega328p.UsartRxComplete:
		return b.UART.rxc
	case atmega328p.UsartDataRegisterEmpty:
		return b.UART.udre
	case atmega328p.UsartTxComplete:
		return b.UART.txc
	}
	return b.pending[id]
}

// acknowledge clears flags that hardware clears on vector entry. RXC and
// UDRE are levels cleared only by the handler's register access.
func (b *Board) acknowledge(id atmega328p.Interrupt) {
	switch id {
	case atmega328p.SpiTransferComplete:
		b.SPI.spif = false
	case atmega328p.UsartTxComplete:
		b.UART.txc = false
	case atmega328p.UsartRxComplete, atmega328p.UsartDataRegisterEmpty:
	default:
		b.pending[id] = false
	}
}

// next returns the highest priority deliverable source.
func (b *Board) next() (atmega328p.Interrupt, bool) {
	if b.masks[atmega328p.RegSREG].Get()&atmega328p.SREG_I == 0 {
		return 0, false
	}
	for id := atmega328p.ExternalInt0; id <= atmega328p.SpmReady; id++ {
		r, bit, ok := atmega328p.MaskOf(id)
		if !ok || b.masks[r].Get()&reg.Bit(bit) == 0 {
			continue
		}
		if b.flagged(id) {
			return id, true
		}
	}
	return 0, false
}

// service delivers interrupts until none is deliverable. Handlers run with
// I cleared; it is set again on return as RETI does.
func (b *Board) service() {
	if b.servicing || b.ic == nil {
		return
	}
	b.servicing = true
	defer func() { b.servicing = false }()

	sreg := &b.masks[atmega328p.RegSREG].Mem8
	for n := 0; ; n++ {
		if n == stormLimit {
			panic("sim: interrupt storm, a handler is not clearing its flag")
		}
		id, ok := b.next()
		if !ok {
			return
		}
		b.acknowledge(id)
		b.delivered[id]++
		sreg.Set(sreg.Get() &^ atmega328p.SREG_I)
		b.ic.Dispatch(id)
		sreg.Set(sreg.Get() | atmega328p.SREG_I)
	}
}
