package atmega328p

import "mcuhal-go/hal"

// Flash reads ROM tables. TinyGo keeps constant data in SRAM on AVR, so
// this is a plain copy and tables passed to it must stay small.
type Flash struct{}

var _ hal.Flash = Flash{}

func (Flash) Read(dst []byte, src hal.ROM, off int) int {
	if off < 0 || off >= len(src) {
		return 0
	}
	return copy(dst, src[off:])
}
