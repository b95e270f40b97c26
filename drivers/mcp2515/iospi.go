package mcp2515

import (
	"tinygo.org/x/drivers"

	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/hal/spibus"
)

// IoSpi runs MCP2515 SPI instructions. Every operation holds a bus lease
// and keeps chip-select asserted from the opcode to the last data byte.
// Nothing is cached: each read is a live transaction.
type IoSpi struct {
	bus *spibus.Bus
	cs  hal.DigitalOutPin

	// Scratch buffers, touched only while the bus lease is held.
	w [4]byte
	r [4]byte
}

// NewIoSpi drives cs (active low) high before returning.
func NewIoSpi(bus *spibus.Bus, cs hal.DigitalOutPin) *IoSpi {
	cs.Set()
	return &IoSpi{bus: bus, cs: cs}
}

func (d *IoSpi) txn(fn func(spi drivers.SPI) error) error {
	h, err := d.bus.Open("mcp2515")
	if err != nil {
		return err
	}
	defer h.Close()
	d.cs.Clr()
	defer d.cs.Set()
	return fn(h)
}

// Reset returns the controller to configuration mode with reset defaults.
func (d *IoSpi) Reset() error {
	return d.txn(func(spi drivers.SPI) error {
		d.w[0] = opReset
		return spi.Tx(d.w[:1], nil)
	})
}

func (d *IoSpi) ReadRegister(r Register) (byte, error) {
	var v byte
	err := d.txn(func(spi drivers.SPI) error {
		d.w[0], d.w[1], d.w[2] = opRead, byte(r), 0
		err := spi.Tx(d.w[:3], d.r[:3])
		v = d.r[2]
		return err
	})
	return v, err
}

// ReadRegisters reads len(dst) consecutive registers starting at r.
func (d *IoSpi) ReadRegisters(r Register, dst []byte) error {
	return d.txn(func(spi drivers.SPI) error {
		d.w[0], d.w[1] = opRead, byte(r)
		if err := spi.Tx(d.w[:2], nil); err != nil {
			return err
		}
		return spi.Tx(nil, dst)
	})
}

func (d *IoSpi) WriteRegister(r Register, v byte) error {
	return d.txn(func(spi drivers.SPI) error {
		d.w[0], d.w[1], d.w[2] = opWrite, byte(r), v
		return spi.Tx(d.w[:3], nil)
	})
}

// WriteRegisters writes src to consecutive registers starting at r.
func (d *IoSpi) WriteRegisters(r Register, src []byte) error {
	return d.txn(func(spi drivers.SPI) error {
		d.w[0], d.w[1] = opWrite, byte(r)
		if err := spi.Tx(d.w[:2], nil); err != nil {
			return err
		}
		return spi.Tx(src, nil)
	})
}

// ModifyRegister changes only the bits of r selected by mask. The controller
// honours the mask on bit-modifiable registers only; elsewhere the whole
// byte is written.
func (d *IoSpi) ModifyRegister(r Register, mask, data byte) error {
	return d.txn(func(spi drivers.SPI) error {
		d.w[0], d.w[1], d.w[2], d.w[3] = opBitModify, byte(r), mask, data
		return spi.Tx(d.w[:4], nil)
	})
}

// Status is the READ STATUS byte.
type Status byte

func (s Status) RX0IF() bool { return s&0x01 != 0 }
func (s Status) RX1IF() bool { return s&0x02 != 0 }

// TXREQ reports the pending request flag of transmit buffer n.
func (s Status) TXREQ(n uint8) bool { return s&(0x04<<(2*n)) != 0 }

// TXIF reports the interrupt flag of transmit buffer n.
func (s Status) TXIF(n uint8) bool { return s&(0x08<<(2*n)) != 0 }

func (d *IoSpi) ReadStatus() (Status, error) {
	v, err := d.readQuick(opReadStatus)
	return Status(v), err
}

// RxStatus is the RX STATUS byte.
type RxStatus byte

func (s RxStatus) MsgInRXB0() bool { return s&0x40 != 0 }
func (s RxStatus) MsgInRXB1() bool { return s&0x80 != 0 }
func (s RxStatus) Extended() bool  { return s&0x10 != 0 }
func (s RxStatus) Remote() bool    { return s&0x08 != 0 }

// Filter is the index of the acceptance filter that matched.
func (s RxStatus) Filter() uint8 { return uint8(s & 0x07) }

func (d *IoSpi) ReadRxStatus() (RxStatus, error) {
	v, err := d.readQuick(opRxStatus)
	return RxStatus(v), err
}

func (d *IoSpi) readQuick(op byte) (byte, error) {
	var v byte
	err := d.txn(func(spi drivers.SPI) error {
		d.w[0], d.w[1] = op, 0
		err := spi.Tx(d.w[:2], d.r[:2])
		v = d.r[1]
		return err
	})
	return v, err
}

// RequestToSend flags the transmit buffers in mask (bits 0..2) for sending.
func (d *IoSpi) RequestToSend(mask uint8) error {
	if mask == 0 || mask > 0x07 {
		return errcode.Wrap(errcode.InvalidParams, "mcp2515.RequestToSend", "mask")
	}
	return d.txn(func(spi drivers.SPI) error {
		d.w[0] = opRTS | mask
		return spi.Tx(d.w[:1], nil)
	})
}

// LoadTxBuffer writes src to transmit buffer n starting at TXBnSIDH.
func (d *IoSpi) LoadTxBuffer(n uint8, src []byte) error {
	if n > 2 || len(src) > 13 {
		return errcode.Wrap(errcode.InvalidParams, "mcp2515.LoadTxBuffer", "")
	}
	return d.txn(func(spi drivers.SPI) error {
		d.w[0] = opLoadTx | n<<1
		if err := spi.Tx(d.w[:1], nil); err != nil {
			return err
		}
		return spi.Tx(src, nil)
	})
}

// ReadRxBuffer reads receive buffer n starting at RXBnSIDH. Raising
// chip-select at the end clears the buffer's CANINTF.RXnIF.
func (d *IoSpi) ReadRxBuffer(n uint8, dst []byte) error {
	if n > 1 || len(dst) > 13 {
		return errcode.Wrap(errcode.InvalidParams, "mcp2515.ReadRxBuffer", "")
	}
	return d.txn(func(spi drivers.SPI) error {
		d.w[0] = opReadRx | n<<2
		if err := spi.Tx(d.w[:1], nil); err != nil {
			return err
		}
		return spi.Tx(nil, dst)
	})
}

// SetMode requests an operating mode through CANCTRL.REQOP. The switch
// completes when CANSTAT reports it; see Mode.
func (d *IoSpi) SetMode(m Mode) error {
	if m > ModeConfig {
		return errcode.Wrap(errcode.InvalidParams, "mcp2515.SetMode", m.String())
	}
	return d.ModifyRegister(CANCTRL, canctrlREQOP, byte(m)<<5)
}

// Mode reads the current operating mode from CANSTAT.OPMOD.
func (d *IoSpi) Mode() (Mode, error) {
	v, err := d.ReadRegister(CANSTAT)
	return Mode(v >> 5), err
}
