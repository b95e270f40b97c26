// Package reg models 8-bit memory-mapped peripheral registers.
//
// On TinyGo targets a *volatile.Register8 satisfies Reg8 directly, so device
// register pointers can be handed to the HAL unchanged. Host builds use Mem8
// and Func8 to back registers with plain memory or simulated hardware.
package reg

import "sync/atomic"

// Reg8 is a reference to one 8-bit register.
type Reg8 interface {
	Get() uint8
	Set(v uint8)
}

// SetBits performs a read-modify-write setting the bits in mask.
func SetBits(r Reg8, mask uint8) { r.Set(r.Get() | mask) }

// ClearBits performs a read-modify-write clearing the bits in mask.
func ClearBits(r Reg8, mask uint8) { r.Set(r.Get() &^ mask) }

// HasBits reports whether any bit of mask is set.
func HasBits(r Reg8, mask uint8) bool { return r.Get()&mask != 0 }

// ReplaceBits replaces the field mask<<pos with value<<pos.
func ReplaceBits(r Reg8, value, mask uint8, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

// Bit returns the single-bit mask for bit n.
func Bit(n uint8) uint8 { return 1 << n }

// Mem8 is a register backed by plain memory.
type Mem8 struct{ v atomic.Uint32 }

func (m *Mem8) Get() uint8  { return uint8(m.v.Load()) }
func (m *Mem8) Set(v uint8) { m.v.Store(uint32(v)) }

// Func8 is a register whose accesses are routed to callbacks. A nil Read
// returns the last written value; a nil Write only stores.
type Func8 struct {
	Mem8
	Read  func(last uint8) uint8
	Write func(old, v uint8)
}

func (f *Func8) Get() uint8 {
	last := f.Mem8.Get()
	if f.Read != nil {
		return f.Read(last)
	}
	return last
}

func (f *Func8) Set(v uint8) {
	old := f.Mem8.Get()
	f.Mem8.Set(v)
	if f.Write != nil {
		f.Write(old, v)
	}
}
