// Package mcp2515 provides register-level access to the MCP2515 stand-alone
// CAN controller over SPI, plus a register dump for bring-up.
package mcp2515

import "mcuhal-go/hal"

// SPI instruction set.
const (
	opReset      = 0xC0
	opRead       = 0x03
	opReadRx     = 0x90 // | buffer<<2
	opWrite      = 0x02
	opLoadTx     = 0x40
	opRTS        = 0x80 // | TXBn mask
	opReadStatus = 0xA0
	opRxStatus   = 0xB0
	opBitModify  = 0x05
)

// NumRegisters is the size of the register address space.
const NumRegisters = 0x80

type Register uint8

// Control and status registers. CANSTAT and CANCTRL are mirrored at the
// top of every 16-byte row.
const (
	BFPCTRL   Register = 0x0C
	TXRTSCTRL Register = 0x0D
	CANSTAT   Register = 0x0E
	CANCTRL   Register = 0x0F
	TEC       Register = 0x1C // R
	REC       Register = 0x1D // R
	CNF3      Register = 0x28
	CNF2      Register = 0x29
	CNF1      Register = 0x2A
	CANINTE   Register = 0x2B
	CANINTF   Register = 0x2C
	EFLG      Register = 0x2D
	TXB0CTRL  Register = 0x30
	TXB1CTRL  Register = 0x40
	TXB2CTRL  Register = 0x50
	RXB0CTRL  Register = 0x60
	RXB1CTRL  Register = 0x70
)

// Acceptance filter n (0..5) and mask n (0..1) SIDH addresses.
func RXF(n uint8) Register {
	if n < 3 {
		return Register(n * 4)
	}
	return Register(0x10 + (n-3)*4)
}

func RXM(n uint8) Register { return Register(0x20 + (n&1)*4) }

// CANCTRL fields.
const (
	canctrlREQOP  = 0xE0
	canctrlABAT   = 0x10
	canctrlOSM    = 0x08
	canctrlCLKEN  = 0x04
	canctrlCLKPRE = 0x03

	txbTXREQ = 0x08
)

// Mode is the REQOP/OPMOD operating mode.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeSleep
	ModeLoopback
	ModeListenOnly
	ModeConfig
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeSleep:
		return "sleep"
	case ModeLoopback:
		return "loopback"
	case ModeListenOnly:
		return "listen_only"
	case ModeConfig:
		return "config"
	}
	return "invalid"
}

// Reset values of CANSTAT and CANCTRL.
const (
	ResetCANSTAT = 0x80
	ResetCANCTRL = 0x87
)

// Writable reports whether r accepts SPI writes at all. CANSTAT, the error
// counters and the receive buffers are hardware owned. Several writable
// registers (TXBnCTRL, BFPCTRL, TXRTSCTRL, EFLG, CNF3, the SIDL and DLC
// fields) also carry read-only or unimplemented bits that ignore writes.
func Writable(r Register) bool {
	switch {
	case r >= NumRegisters:
		return false
	case r&0x0F == 0x0E:
		return false
	case r == TEC || r == REC:
		return false
	case r > RXB0CTRL && r < RXB0CTRL+0x0E, r > RXB1CTRL && r < RXB1CTRL+0x0E:
		return false
	}
	return true
}

// Register names are assembled from short field tables rather than stored
// per address: the full 128-entry list would cost over a kilobyte of RAM on
// targets that keep constant data in data memory.
const (
	labelWidth = 9 // longest name, TXRTSCTRL
	fieldWidth = 4
)

const (
	// Filter and mask identifier registers.
	idFields hal.ROM = "SIDHSIDLEID8EID0"
	// Transmit and receive buffer rows, from CTRL.
	bufFields hal.ROM = "CTRLSIDHSIDLEID8EID0DLC D0  D1  D2  D3  D4  D5  D6  D7  "
	// 0x0C, 0x0D, 0x1C, 0x1D, 0x28..0x2D, then the CANSTAT/CANCTRL pair
	// found at the end of every row.
	namedRegs hal.ROM = "BFPCTRL  TXRTSCTRLTEC      REC      CNF3     CNF2     " +
		"CNF1     CANINTE  CANINTF  EFLG     CANSTAT  CANCTRL  "
)

// Label copies the name of r into dst and returns it without padding.
func Label(flash hal.Flash, r Register, dst *[labelWidth]byte) []byte {
	r &= NumRegisters - 1
	row, col := byte(r)>>4, byte(r)&0x0F
	switch {
	case col >= 0x0E:
		return named(flash, dst, 10+col-0x0E)
	case row <= 1 && col >= 0x0C:
		return named(flash, dst, 2*row+col-0x0C)
	case row == 2 && col >= 0x08:
		return named(flash, dst, 4+col-0x08)
	case row <= 1:
		return field(flash, dst, "RXF", 3*row+col/4, idFields, col%4)
	case row == 2:
		return field(flash, dst, "RXM", col/4, idFields, col%4)
	case row <= 5:
		return field(flash, dst, "TXB", row-3, bufFields, col)
	}
	return field(flash, dst, "RXB", row-6, bufFields, col)
}

func named(flash hal.Flash, dst *[labelWidth]byte, i byte) []byte {
	return trim(dst, flash.Read(dst[:], namedRegs, int(i)*labelWidth))
}

func field(flash hal.Flash, dst *[labelWidth]byte, prefix string, n byte, tab hal.ROM, f byte) []byte {
	i := copy(dst[:], prefix)
	dst[i] = '0' + n
	i++
	i += flash.Read(dst[i:i+fieldWidth], tab, int(f)*fieldWidth)
	return trim(dst, i)
}

func trim(dst *[labelWidth]byte, n int) []byte {
	for n > 0 && dst[n-1] == ' ' {
		n--
	}
	return dst[:n]
}

// LookupRegister finds a register by label. Mirrored registers resolve to
// their lowest address.
func LookupRegister(flash hal.Flash, name string) (Register, bool) {
	var buf [labelWidth]byte
	for r := Register(0); r < NumRegisters; r++ {
		if string(Label(flash, r, &buf)) == name {
			return r, true
		}
	}
	return 0, false
}
