// Package simdev is a register-file model of an MCP2515 that speaks the SPI
// instruction set. It can sit behind the ATmega328P simulator (sim.Device)
// or be used directly as a drivers.SPI with its own chip-select pin.
package simdev

import (
	"sync"

	"tinygo.org/x/drivers"

	"mcuhal-go/drivers/mcp2515"
	"mcuhal-go/hal"
)

// Instruction opcodes as seen on the wire.
const (
	opReset      = 0xC0
	opRead       = 0x03
	opWrite      = 0x02
	opBitModify  = 0x05
	opReadStatus = 0xA0
	opRxStatus   = 0xB0
	opRTS        = 0x80
	opLoadTx     = 0x40
	opReadRx     = 0x90
)

type Device struct {
	mu sync.Mutex

	regs    [mcp2515.NumRegisters]byte
	canstat byte
	canctrl byte

	selected bool
	phase    int
	op       byte
	addr     byte
	mask     byte

	// Transactions counts chip-select assertions.
	Transactions int
	// Opcodes logs the first byte of every transaction.
	Opcodes []byte
}

var (
	_ drivers.SPI = (*Device)(nil)
)

func New() *Device {
	d := &Device{}
	d.reset()
	return d
}

func (d *Device) reset() {
	d.regs = [mcp2515.NumRegisters]byte{}
	d.canstat = mcp2515.ResetCANSTAT
	d.canctrl = mcp2515.ResetCANCTRL
}

// Peek returns a register without an SPI transaction.
func (d *Device) Peek(r mcp2515.Register) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(byte(r))
}

// Poke sets a register, including hardware-owned ones.
func (d *Device) Poke(r mcp2515.Register, v byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch byte(r) & 0x0F {
	case 0x0E:
		d.canstat = v
	case 0x0F:
		d.canctrl = v
	default:
		d.regs[r&0x7F] = v
	}
}

func (d *Device) read(a byte) byte {
	switch a & 0x0F {
	case 0x0E:
		return d.canstat
	case 0x0F:
		return d.canctrl
	}
	return d.regs[a&0x7F]
}

// WritableBits returns the bits of r that take SPI writes. Read-only and
// unimplemented bits keep their value.
func WritableBits(r mcp2515.Register) byte {
	if !mcp2515.Writable(r) {
		return 0
	}
	switch r {
	case mcp2515.BFPCTRL:
		return 0x3F
	case mcp2515.TXRTSCTRL:
		return 0x07 // BnRTS inputs are read-only
	case mcp2515.CNF3:
		return 0xC7
	case mcp2515.EFLG:
		return 0xC0 // only the overflow flags can be cleared
	case mcp2515.RXB0CTRL:
		return 0x64
	case mcp2515.RXB1CTRL:
		return 0x60
	}
	switch {
	case r >= mcp2515.TXB0CTRL && r < mcp2515.RXB0CTRL && r&0x0F <= 0x0D:
		switch r & 0x0F {
		case 0x00:
			return 0x0B // ABTF, MLOA, TXERR are status
		case 0x02:
			return 0xEB
		case 0x05:
			return 0x4F
		}
	case r < mcp2515.CNF3 && r&0x0F < 0x0C && r&0x03 == 0x01:
		if r >= mcp2515.RXM(0) {
			return 0xE3 // mask SIDL has no EXIDE
		}
		return 0xEB
	}
	return 0xFF
}

func (d *Device) write(a, v byte) {
	a &= 0x7F
	m := WritableBits(mcp2515.Register(a))
	if m == 0 {
		return
	}
	if a&0x0F == 0x0F {
		d.canctrl = v
		// Mode requests are granted at once.
		d.canstat = v&0xE0 | d.canstat&0x1F
		return
	}
	d.regs[a] = d.regs[a]&^m | v&m
}

func (d *Device) txreq(n int) bool { return d.regs[0x30+0x10*n]&0x08 != 0 }

func (d *Device) status() byte {
	intf := d.regs[mcp2515.CANINTF]
	var s byte
	s |= intf & 0x03 // RX0IF, RX1IF
	for n := 0; n < 3; n++ {
		if d.txreq(n) {
			s |= 0x04 << (2 * n)
		}
		if intf&(0x04<<n) != 0 {
			s |= 0x08 << (2 * n)
		}
	}
	return s
}

func (d *Device) rxStatus() byte {
	return (d.regs[mcp2515.CANINTF] & 0x03) << 6
}

// Select implements the sim.Device chip-select hook.
func (d *Device) Select(active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectLocked(active)
}

func (d *Device) selectLocked(active bool) {
	if active == d.selected {
		return
	}
	d.selected = active
	if active {
		d.Transactions++
		d.phase = 0
		return
	}
	// Reading a receive buffer with READ RX BUFFER clears its flag on CS rise.
	if d.op&0xF9 == opReadRx && d.phase > 1 {
		d.regs[mcp2515.CANINTF] &^= 1 << ((d.op >> 2) & 1)
	}
}

// Exchange clocks one byte in and returns the byte driven on MISO.
func (d *Device) Exchange(in byte) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exchange(in)
}

func (d *Device) exchange(in byte) byte {
	if !d.selected {
		return 0xFF
	}
	p := d.phase
	d.phase++
	if p == 0 {
		d.op = in
		d.Opcodes = append(d.Opcodes, in)
		switch {
		case in == opReset:
			d.reset()
		case in&0xF8 == opRTS:
			for n := 0; n < 3; n++ {
				if in&(1<<n) != 0 {
					d.regs[0x30+0x10*n] |= 0x08
				}
			}
		case in&0xF9 == opReadRx:
			d.addr = 0x61 + 0x10*((in>>2)&1)
			if in&0x02 != 0 {
				d.addr += 5
			}
		case in&0xF8 == opLoadTx:
			n := (in >> 1) & 0x03
			d.addr = 0x31 + 0x10*n
			if in&0x01 != 0 {
				d.addr += 5
			}
		}
		return 0xFF
	}

	switch {
	case d.op == opRead:
		if p == 1 {
			d.addr = in & 0x7F
			return 0xFF
		}
		v := d.read(d.addr)
		d.addr = (d.addr + 1) & 0x7F
		return v
	case d.op == opWrite:
		if p == 1 {
			d.addr = in & 0x7F
			return 0xFF
		}
		d.write(d.addr, in)
		d.addr = (d.addr + 1) & 0x7F
		return 0xFF
	case d.op == opBitModify:
		switch p {
		case 1:
			d.addr = in & 0x7F
		case 2:
			d.mask = in
		case 3:
			old := d.read(d.addr)
			d.write(d.addr, old&^d.mask|in&d.mask)
		}
		return 0xFF
	case d.op == opReadStatus:
		return d.status()
	case d.op == opRxStatus:
		return d.rxStatus()
	case d.op&0xF9 == opReadRx:
		v := d.regs[d.addr&0x7F]
		d.addr++
		return v
	case d.op&0xF8 == opLoadTx:
		d.regs[d.addr&0x7F] = in
		d.addr++
		return 0xFF
	}
	return 0xFF
}

// Tx implements drivers.SPI for hosts without the board simulator. The
// caller frames transactions with ChipSelect.
func (d *Device) Tx(w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in := d.exchange(out)
		if i < len(r) {
			r[i] = in
		}
	}
	return nil
}

func (d *Device) Transfer(b byte) (byte, error) {
	return d.Exchange(b), nil
}

// ChipSelect returns the active-low select line of the device.
func (d *Device) ChipSelect() *ChipSelect { return &ChipSelect{d: d, level: true} }

type ChipSelect struct {
	d     *Device
	level bool
}

var _ hal.DigitalOutPin = (*ChipSelect)(nil)

func (c *ChipSelect) Set() {
	c.level = true
	c.d.Select(false)
}

func (c *ChipSelect) Clr() {
	c.level = false
	c.d.Select(true)
}

func (c *ChipSelect) IsSet() bool { return c.level }
