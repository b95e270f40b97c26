package sim

import (
	"math/bits"

	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/reg"
)

// Device is an SPI slave. Exchange receives the byte on MOSI in wire order
// (MSB first) and returns the byte it puts on MISO.
type Device interface {
	Select(active bool)
	Exchange(in byte) byte
}

type attachment struct {
	dev      Device
	port     *Port
	bit      uint8
	selected bool
}

// SPI models the SPI peripheral in master mode. Each SPDR write completes
// one exchange instantly and raises SPIF.
type SPI struct {
	b                *Board
	SPCR, SPSR, SPDR reg.Func8

	spif bool
	rx   byte
	devs []*attachment

	// Exchanges counts completed transfers.
	Exchanges int
}

func newSPI(b *Board) *SPI {
	s := &SPI{b: b}
	s.SPCR.Write = func(old, v uint8) { b.service() }
	s.SPSR.Read = func(last uint8) uint8 {
		v := last & atmega328p.SPSR_2X
		if s.spif {
			v |= atmega328p.SPSR_SPIF
		}
		return v
	}
	s.SPDR.Read = func(uint8) uint8 {
		s.spif = false
		return s.rx
	}
	s.SPDR.Write = func(_, v uint8) { s.shift(v) }
	return s
}

// Registers returns the HAL register set.
func (s *SPI) Registers() atmega328p.SpiRegisters {
	return atmega328p.SpiRegisters{SPCR: &s.SPCR, SPSR: &s.SPSR, SPDR: &s.SPDR}
}

// AttachDevice connects dev with its active-low chip select on port bit.
func (s *SPI) AttachDevice(dev Device, port *Port, bit uint8) {
	a := &attachment{dev: dev, port: port, bit: bit}
	s.devs = append(s.devs, a)
	port.watch(func() {
		sel := port.IsOutput(bit) && port.PORT.Get()&reg.Bit(bit) == 0
		if sel != a.selected {
			a.selected = sel
			dev.Select(sel)
		}
	})
}

func (s *SPI) shift(v uint8) {
	spcr := s.SPCR.Get()
	if spcr&(atmega328p.SPCR_SPE|atmega328p.SPCR_MSTR) != atmega328p.SPCR_SPE|atmega328p.SPCR_MSTR {
		return
	}
	lsb := spcr&atmega328p.SPCR_DORD != 0
	out := v
	if lsb {
		out = bits.Reverse8(v)
	}
	in := uint8(0xFF) // MISO idles high
	for _, a := range s.devs {
		if a.selected {
			in = a.dev.Exchange(out)
			break
		}
	}
	if lsb {
		in = bits.Reverse8(in)
	}
	s.rx = in
	s.Exchanges++
	s.spif = true
	s.b.service()
}
