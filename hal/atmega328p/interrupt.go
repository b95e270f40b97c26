package atmega328p

import (
	"fmt"

	"mcuhal-go/hal"
	"mcuhal-go/hal/reg"
)

// Interrupt identifies one enable bit. Vector sources follow the datasheet
// vector order; per-pin change masks follow them.
type Interrupt = hal.IntNum

const (
	Global Interrupt = iota
	ExternalInt0
	ExternalInt1
	PinChangeGroup0
	PinChangeGroup1
	PinChangeGroup2
	WatchdogTimer
	Timer2CompareA
	Timer2CompareB
	Timer2Overflow
	Timer1Capture
	Timer1CompareA
	Timer1CompareB
	Timer1Overflow
	Timer0CompareA
	Timer0CompareB
	Timer0Overflow
	SpiTransferComplete
	UsartRxComplete
	UsartDataRegisterEmpty
	UsartTxComplete
	AnalogDigitalConverter
	EepromReady
	AnalogComparator
	TwoWire
	SpmReady
	pinChangeBase // PCINT0..PCINT23 follow

	NumInterrupts = pinChangeBase + 24
)

// PinChange returns the per-pin change mask source for PCINTn (0..23).
// PCINT15 does not exist on this device and maps to an invalid source.
func PinChange(n uint8) Interrupt {
	if n > 23 {
		n = 15
	}
	return pinChangeBase + Interrupt(n)
}

// MaskReg indexes the registers holding interrupt enable bits.
type MaskReg uint8

const (
	RegSREG MaskReg = iota
	RegEIMSK
	RegPCICR
	RegPCMSK0
	RegPCMSK1
	RegPCMSK2
	RegWDTCSR
	RegTIMSK0
	RegTIMSK1
	RegTIMSK2
	RegUCSR0B
	RegSPCR
	RegTWCR
	RegEECR
	RegSPMCSR
	RegACSR
	RegADCSRA

	NumMaskRegs
)

// MaskRegisters holds one reference per MaskReg, e.g.
//
//	MaskRegisters{RegSREG: avr.SREG, RegEIMSK: avr.EIMSK, ...}
type MaskRegisters [NumMaskRegs]reg.Reg8

type mask struct {
	reg   MaskReg
	bit   uint8
	valid bool
}

var masks [NumInterrupts]mask

func init() {
	set := func(id Interrupt, r MaskReg, bit uint8) { masks[id] = mask{reg: r, bit: bit, valid: true} }

	set(Global, RegSREG, sregI)
	set(ExternalInt0, RegEIMSK, 0)
	set(ExternalInt1, RegEIMSK, 1)
	set(PinChangeGroup0, RegPCICR, 0)
	set(PinChangeGroup1, RegPCICR, 1)
	set(PinChangeGroup2, RegPCICR, 2)
	set(WatchdogTimer, RegWDTCSR, 6)
	set(Timer2CompareA, RegTIMSK2, 1)
	set(Timer2CompareB, RegTIMSK2, 2)
	set(Timer2Overflow, RegTIMSK2, 0)
	set(Timer1Capture, RegTIMSK1, 5)
	set(Timer1CompareA, RegTIMSK1, 1)
	set(Timer1CompareB, RegTIMSK1, 2)
	set(Timer1Overflow, RegTIMSK1, 0)
	set(Timer0CompareA, RegTIMSK0, 1)
	set(Timer0CompareB, RegTIMSK0, 2)
	set(Timer0Overflow, RegTIMSK0, 0)
	set(SpiTransferComplete, RegSPCR, bitSPIE)
	set(UsartRxComplete, RegUCSR0B, bitRXCIE0)
	set(UsartDataRegisterEmpty, RegUCSR0B, bitUDRIE0)
	set(UsartTxComplete, RegUCSR0B, bitTXCIE0)
	set(AnalogDigitalConverter, RegADCSRA, 3)
	set(EepromReady, RegEECR, 3)
	set(AnalogComparator, RegACSR, 3)
	set(TwoWire, RegTWCR, 0)
	set(SpmReady, RegSPMCSR, 7)

	for n := uint8(0); n < 24; n++ {
		switch {
		case n < 8:
			set(pinChangeBase+Interrupt(n), RegPCMSK0, n)
		case n < 15:
			set(pinChangeBase+Interrupt(n), RegPCMSK1, n-8)
		case n > 15:
			set(pinChangeBase+Interrupt(n), RegPCMSK2, n-16)
		}
	}
}

// MaskOf returns the register and bit backing id.
func MaskOf(id Interrupt) (r MaskReg, bit uint8, ok bool) {
	if int(id) >= len(masks) {
		return 0, 0, false
	}
	m := masks[id]
	return m.reg, m.bit, m.valid
}

// InterruptController sets and clears individual enable bits and routes
// vectors to the single handler bound per source.
type InterruptController struct {
	regs     MaskRegisters
	handlers [NumInterrupts]func()
}

var _ hal.InterruptController = (*InterruptController)(nil)

func NewInterruptController(regs MaskRegisters) *InterruptController {
	for i, r := range regs {
		if r == nil {
			panic(fmt.Sprintf("atmega328p: mask register %d not supplied", i))
		}
	}
	c := &InterruptController{regs: regs}
	c.routeVectors()
	return c
}

// EnableInterrupt sets exactly the enable bit of id. Global is the I flag.
func (c *InterruptController) EnableInterrupt(id Interrupt) {
	c.update(id, true)
}

// DisableInterrupt clears exactly the enable bit of id.
func (c *InterruptController) DisableInterrupt(id Interrupt) {
	c.update(id, false)
}

func (c *InterruptController) IsEnabled(id Interrupt) bool {
	r, bit, ok := MaskOf(id)
	if !ok {
		return false
	}
	return reg.HasBits(c.regs[r], reg.Bit(bit))
}

func (c *InterruptController) update(id Interrupt, on bool) {
	r, bit, ok := MaskOf(id)
	if !ok {
		return
	}
	sreg := c.regs[RegSREG]
	if r == RegSREG {
		// sei / cli
		if on {
			reg.SetBits(sreg, SREG_I)
		} else {
			reg.ClearBits(sreg, SREG_I)
		}
		return
	}
	// Mask registers are shared with peripheral drivers whose handlers also
	// write them, so the read-modify-write runs with interrupts off.
	saved := sreg.Get()
	sreg.Set(saved &^ SREG_I)
	if on {
		reg.SetBits(c.regs[r], reg.Bit(bit))
	} else {
		reg.ClearBits(c.regs[r], reg.Bit(bit))
	}
	sreg.Set(saved)
}

// Handle binds fn as the only handler for id. Binding twice is a wiring
// error and panics.
func (c *InterruptController) Handle(id Interrupt, fn func()) {
	if int(id) >= len(c.handlers) || id == Global {
		panic(fmt.Sprintf("atmega328p: interrupt %d has no vector", id))
	}
	if c.handlers[id] != nil {
		panic(fmt.Sprintf("atmega328p: handler already bound for interrupt %d", id))
	}
	c.handlers[id] = fn
}

// Dispatch runs the handler bound to id. It is called from the vector with
// interrupts disabled by hardware.
func (c *InterruptController) Dispatch(id Interrupt) {
	if int(id) >= len(c.handlers) {
		return
	}
	if h := c.handlers[id]; h != nil {
		h()
	}
}

// CriticalSection returns a critical section over this controller's SREG.
func (c *InterruptController) CriticalSection() *CriticalSection {
	return NewCriticalSection(c.regs[RegSREG])
}
