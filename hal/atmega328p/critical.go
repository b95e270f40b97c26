package atmega328p

import (
	"mcuhal-go/hal"
	"mcuhal-go/hal/reg"
)

// CriticalSection saves SREG and clears the I flag on Enter; Exit writes
// the saved SREG back. Sections nest: only the outermost Exit can re-enable.
type CriticalSection struct {
	sreg reg.Reg8
}

var _ hal.CriticalSection = (*CriticalSection)(nil)

func NewCriticalSection(sreg reg.Reg8) *CriticalSection {
	return &CriticalSection{sreg: sreg}
}

func (c *CriticalSection) Enter() hal.IRQState {
	s := c.sreg.Get()
	c.sreg.Set(s &^ SREG_I)
	return hal.IRQState(s)
}

func (c *CriticalSection) Exit(state hal.IRQState) {
	c.sreg.Set(uint8(state))
}

// Do runs fn inside a section.
func (c *CriticalSection) Do(fn func()) {
	s := c.Enter()
	defer c.Exit(s)
	fn()
}
