package sim

import (
	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/reg"
)

// Port models DDRx, PORTx and PINx with an external line per bit. An input
// bit reads the externally driven level, or the pull-up when floating.
type Port struct {
	b              *Board
	DDR, PORT, PIN reg.Func8

	drive, driven uint8
	watchers      []func()
}

func newPort(b *Board) *Port {
	p := &Port{b: b}
	p.DDR.Write = func(old, v uint8) { p.changed() }
	p.PORT.Write = func(old, v uint8) { p.changed() }
	p.PIN.Read = func(uint8) uint8 { return p.level() }
	// Writing one to a PINx bit toggles PORTx.
	p.PIN.Write = func(_, v uint8) { p.PORT.Set(p.PORT.Get() ^ v) }
	return p
}

// NewPort returns the HAL port over these registers.
func (p *Port) NewPort(name byte) *atmega328p.Port {
	return atmega328p.NewPort(name, &p.DDR, &p.PORT, &p.PIN)
}

func (p *Port) level() uint8 {
	ddr, port := p.DDR.Get(), p.PORT.Get()
	return port&ddr | p.drive&p.driven&^ddr | port&^ddr&^p.driven
}

// Drive forces an external level onto bit.
func (p *Port) Drive(bit uint8, high bool) {
	p.driven |= reg.Bit(bit)
	if high {
		p.drive |= reg.Bit(bit)
	} else {
		p.drive &^= reg.Bit(bit)
	}
}

// Float stops driving bit externally.
func (p *Port) Float(bit uint8) { p.driven &^= reg.Bit(bit) }

// Level is what PINx reads for bit.
func (p *Port) Level(bit uint8) bool { return p.level()&reg.Bit(bit) != 0 }

// IsOutput reports the direction bit.
func (p *Port) IsOutput(bit uint8) bool { return p.DDR.Get()&reg.Bit(bit) != 0 }

func (p *Port) watch(fn func()) { p.watchers = append(p.watchers, fn) }

func (p *Port) changed() {
	for _, fn := range p.watchers {
		fn()
	}
}
