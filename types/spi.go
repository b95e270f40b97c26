package types

// ------------------------
// SPI
// ------------------------

// SpiMode encodes clock polarity (bit 1) and phase (bit 0).
//
//	Mode 0: CPOL=0, CPHA=0
//	Mode 1: CPOL=0, CPHA=1
//	Mode 2: CPOL=1, CPHA=0
//	Mode 3: CPOL=1, CPHA=1
type SpiMode uint8

const (
	SpiMode0 SpiMode = iota
	SpiMode1
	SpiMode2
	SpiMode3
)

func (m SpiMode) Valid() bool { return m <= SpiMode3 }
func (m SpiMode) CPOL() bool  { return m&2 != 0 }
func (m SpiMode) CPHA() bool  { return m&1 != 0 }

type SpiBitOrder uint8

const (
	MSBFirst SpiBitOrder = iota
	LSBFirst
)

func (o SpiBitOrder) String() string {
	if o == LSBFirst {
		return "lsb_first"
	}
	return "msb_first"
}

// SpiConfig is fixed for the lifetime of a master instance.
type SpiConfig struct {
	Mode      SpiMode
	BitOrder  SpiBitOrder
	Prescaler uint32
}
