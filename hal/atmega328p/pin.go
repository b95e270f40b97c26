package atmega328p

import (
	"sync"

	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/hal/reg"
)

// Port is one 8-bit GPIO port (DDRx, PORTx, PINx). It owns the claim table
// for its bits: a bit backs at most one live pin.
type Port struct {
	name           byte
	ddr, port, pin reg.Reg8

	mu      sync.Mutex
	claimed uint8
}

// NewPort binds the direction, output and input registers of port name
// ('B', 'C', 'D'). pin may be nil for output-only use.
func NewPort(name byte, ddr, port, pin reg.Reg8) *Port {
	return &Port{name: name, ddr: ddr, port: port, pin: pin}
}

func (p *Port) Name() byte { return p.name }

func (p *Port) pinName(bit uint8) string {
	return string([]byte{'P', p.name, '0' + bit})
}

func (p *Port) claim(op string, bit uint8) error {
	if bit > 7 {
		return errcode.Wrap(errcode.InvalidPin, op, "bit index out of range")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.claimed&reg.Bit(bit) != 0 {
		return errcode.Wrap(errcode.PinInUse, op, p.pinName(bit))
	}
	p.claimed |= reg.Bit(bit)
	return nil
}

func (p *Port) release(bit uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.claimed&reg.Bit(bit) == 0 {
		return
	}
	// Back to hi-Z input.
	reg.ClearBits(p.ddr, reg.Bit(bit))
	reg.ClearBits(p.port, reg.Bit(bit))
	p.claimed &^= reg.Bit(bit)
}

// Claimed reports the bits currently backing live pins.
func (p *Port) Claimed() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claimed
}

// ---- Output ----

type DigitalOutPin struct {
	p   *Port
	bit uint8
	m   uint8
}

var _ hal.DigitalOutPin = (*DigitalOutPin)(nil)

// OutPin claims bit and configures it as an output. The output latch is left
// as it was.
func (p *Port) OutPin(bit uint8) (*DigitalOutPin, error) {
	if err := p.claim("port.OutPin", bit); err != nil {
		return nil, err
	}
	o := &DigitalOutPin{p: p, bit: bit, m: reg.Bit(bit)}
	reg.SetBits(p.ddr, o.m)
	return o, nil
}

// OutPinInit is OutPin with the latch preset, so the line never glitches to
// the other level when the direction flips.
func (p *Port) OutPinInit(bit uint8, high bool) (*DigitalOutPin, error) {
	if err := p.claim("port.OutPin", bit); err != nil {
		return nil, err
	}
	o := &DigitalOutPin{p: p, bit: bit, m: reg.Bit(bit)}
	if high {
		o.Set()
	} else {
		o.Clr()
	}
	reg.SetBits(p.ddr, o.m)
	return o, nil
}

func (o *DigitalOutPin) Set() { reg.SetBits(o.p.port, o.m) }
func (o *DigitalOutPin) Clr() { reg.ClearBits(o.p.port, o.m) }

// IsSet reads back the output latch.
func (o *DigitalOutPin) IsSet() bool { return reg.HasBits(o.p.port, o.m) }

// Toggle flips the output. Writing one to PINx toggles PORTx in hardware
// without touching neighbouring bits.
func (o *DigitalOutPin) Toggle() {
	if o.p.pin != nil {
		o.p.pin.Set(o.m)
		return
	}
	o.p.port.Set(o.p.port.Get() ^ o.m)
}

func (o *DigitalOutPin) Bit() uint8     { return o.bit }
func (o *DigitalOutPin) String() string { return o.p.pinName(o.bit) }

// Release returns the bit to its port as a hi-Z input.
func (o *DigitalOutPin) Release() { o.p.release(o.bit) }

// ---- Input ----

type DigitalInPin struct {
	p   *Port
	bit uint8
	m   uint8
}

var _ hal.DigitalInPin = (*DigitalInPin)(nil)

// InPin claims bit and configures it as an input with pull-up disabled.
func (p *Port) InPin(bit uint8) (*DigitalInPin, error) {
	if p.pin == nil {
		return nil, errcode.Wrap(errcode.Unsupported, "port.InPin", "no input register")
	}
	if err := p.claim("port.InPin", bit); err != nil {
		return nil, err
	}
	i := &DigitalInPin{p: p, bit: bit, m: reg.Bit(bit)}
	reg.ClearBits(p.ddr, i.m)
	reg.ClearBits(p.port, i.m)
	return i, nil
}

func (i *DigitalInPin) IsSet() bool { return reg.HasBits(i.p.pin, i.m) }

// SetPullUpMode drives the PORTx bit, which selects the pull-up while the
// pin is an input.
func (i *DigitalInPin) SetPullUpMode(mode hal.PullUpMode) {
	if mode == hal.PullUp {
		reg.SetBits(i.p.port, i.m)
	} else {
		reg.ClearBits(i.p.port, i.m)
	}
}

func (i *DigitalInPin) Bit() uint8     { return i.bit }
func (i *DigitalInPin) String() string { return i.p.pinName(i.bit) }
func (i *DigitalInPin) Release()       { i.p.release(i.bit) }
