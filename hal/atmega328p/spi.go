package atmega328p

import (
	"sync/atomic"

	"tinygo.org/x/drivers"

	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/hal/reg"
	"mcuhal-go/types"
)

type SpiRegisters struct {
	SPCR, SPSR, SPDR reg.Reg8
}

// SpiMaster drives the SPI peripheral in master mode. The hardware SS pin
// (PB2) must be an output before the first exchange or the peripheral drops
// out of master mode.
type SpiMaster struct {
	r    SpiRegisters
	cfg  types.SpiConfig
	done atomic.Bool // set by the transfer-complete handler
}

var (
	_ hal.SpiMaster = (*SpiMaster)(nil)
	_ drivers.SPI   = (*SpiMaster)(nil)
)

// prescaler -> SPR1:0 and SPI2X
func prescalerBits(p uint32) (spr uint8, x2 bool, ok bool) {
	switch p {
	case 2:
		return 0, true, true
	case 4:
		return 0, false, true
	case 8:
		return 1, true, true
	case 16:
		return 1, false, true
	case 32:
		return 2, true, true
	case 64:
		return 2, false, true
	case 128:
		return 3, false, true
	}
	return 0, false, false
}

// NewSpiMaster configures mode, bit order and clock divisor once, enables
// the peripheral and binds the transfer-complete interrupt.
func NewSpiMaster(r SpiRegisters, ic *InterruptController, cfg types.SpiConfig) (*SpiMaster, error) {
	if !cfg.Mode.Valid() || cfg.BitOrder > types.LSBFirst {
		return nil, errcode.Wrap(errcode.InvalidParams, "spi.New", "mode/bit order")
	}
	spr, x2, ok := prescalerBits(cfg.Prescaler)
	if !ok {
		return nil, errcode.Wrap(errcode.InvalidPrescaler, "spi.New", "")
	}

	s := &SpiMaster{r: r, cfg: cfg}

	v := uint8(SPCR_SPE|SPCR_MSTR) | spr
	if cfg.BitOrder == types.LSBFirst {
		v |= SPCR_DORD
	}
	if cfg.Mode.CPOL() {
		v |= SPCR_CPOL
	}
	if cfg.Mode.CPHA() {
		v |= SPCR_CPHA
	}
	r.SPCR.Set(v)
	if x2 {
		reg.SetBits(r.SPSR, SPSR_2X)
	} else {
		reg.ClearBits(r.SPSR, SPSR_2X)
	}

	ic.Handle(SpiTransferComplete, s.onTransferComplete)
	ic.EnableInterrupt(SpiTransferComplete)
	return s, nil
}

func (s *SpiMaster) onTransferComplete() { s.done.Store(true) }

func (s *SpiMaster) Config() types.SpiConfig { return s.cfg }

// Exchange shifts out one byte and returns the byte shifted in. It waits on
// the interrupt-set completion flag, so global interrupts must be enabled.
// There is no timeout: a stalled peripheral blocks forever.
func (s *SpiMaster) Exchange(out byte) byte {
	s.done.Store(false)
	s.r.SPDR.Set(out)
	for !s.done.Load() {
	}
	return s.r.SPDR.Get()
}

// Transfer implements drivers.SPI.
func (s *SpiMaster) Transfer(b byte) (byte, error) {
	return s.Exchange(b), nil
}

// Tx implements drivers.SPI. A nil w sends zeros; a nil r discards.
func (s *SpiMaster) Tx(w, r []byte) error {
	n := len(w)
	switch {
	case w == nil:
		n = len(r)
	case r != nil && len(r) != len(w):
		return errcode.Wrap(errcode.InvalidParams, "spi.Tx", "buffer length mismatch")
	}
	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in := s.Exchange(out)
		if r != nil {
			r[i] = in
		}
	}
	return nil
}
