// Package setups describes board wiring and operating parameters as plain Go
// values, and brings an ATmega328P up from such a plan.
package setups

import (
	"mcuhal-go/errcode"
	"mcuhal-go/trace"
	"mcuhal-go/types"
)

// PinRef names one port bit, e.g. PinRef{'B', 2} for PB2 (Uno D10).
type PinRef struct {
	Port byte
	Bit  uint8
}

func (p PinRef) String() string { return string([]byte{'P', p.Port, '0' + p.Bit%10}) }

// spiSS is the SPI slave-select pin. An input driven low there drops the
// peripheral out of master mode.
var spiSS = PinRef{'B', 2}

func (p PinRef) valid() bool {
	return (p.Port == 'B' || p.Port == 'C' || p.Port == 'D') && p.Bit < 8
}

// Plan specifies wiring and operating parameters for one board. Nil parts
// are not brought up.
type Plan struct {
	Name  string
	CPUHz uint32

	UART  *UARTPlan
	SPI   *SPIPlan
	CAN   *CANPlan
	Trace *TracePlan
}

type UARTPlan struct {
	Line           types.UARTConfig
	RxSize, TxSize int
	NonBlocking    bool
}

type SPIPlan struct {
	Config     types.SpiConfig
	SCK, MOSI  PinRef
	MISO       PinRef
	MISOPullUp bool
}

// CANPlan places an MCP2515 on the SPI bus.
type CANPlan struct {
	CS  PinRef // active low
	INT PinRef // active low, input with pull-up
}

// TracePlan routes the trace facade to the UART.
type TracePlan struct {
	Level trace.Level
}

// UnoCANShield is an Arduino Uno with a Seeed CAN-BUS shield: MCP2515 on
// SPI (CS D10, INT D2) at 1 MHz, write-only debug console on UART0.
var UnoCANShield = Plan{
	Name:  "uno-can-shield",
	CPUHz: 16_000_000,
	UART: &UARTPlan{
		Line:   types.UARTConfig{Baud: types.B115200, Parity: types.ParityNone, StopBits: types.StopBits1},
		RxSize: 0,
		TxSize: 16,
	},
	SPI: &SPIPlan{
		Config:     types.SpiConfig{Mode: types.SpiMode0, BitOrder: types.MSBFirst, Prescaler: 16},
		SCK:        PinRef{'B', 5},
		MOSI:       PinRef{'B', 3},
		MISO:       PinRef{'B', 4},
		MISOPullUp: true,
	},
	CAN: &CANPlan{
		CS:  PinRef{'B', 2},
		INT: PinRef{'D', 2},
	},
	Trace: &TracePlan{Level: trace.Debug},
}

// UnoSerialEcho is an Uno echoing UART0 back to itself.
var UnoSerialEcho = Plan{
	Name:  "uno-serial-echo",
	CPUHz: 16_000_000,
	UART: &UARTPlan{
		Line:   types.UARTConfig{Baud: types.B115200, Parity: types.ParityNone, StopBits: types.StopBits1},
		RxSize: 16,
		TxSize: 16,
	},
}

// Validate rejects plans that cannot be brought up.
func (p Plan) Validate() error {
	const op = "setups.Validate"
	if p.CPUHz == 0 {
		return errcode.Wrap(errcode.InvalidParams, op, "cpu clock")
	}
	used := map[PinRef]string{}
	claim := func(r PinRef, what string) error {
		if !r.valid() {
			return errcode.Wrap(errcode.InvalidPin, op, what)
		}
		if prev, ok := used[r]; ok {
			return errcode.Wrap(errcode.PinInUse, op, r.String()+" "+prev+"/"+what)
		}
		used[r] = what
		return nil
	}

	if u := p.UART; u != nil {
		if !u.Line.Baud.Valid() {
			return errcode.Wrap(errcode.InvalidBaud, op, "uart")
		}
		if !u.Line.Parity.Valid() || !u.Line.StopBits.Valid() {
			return errcode.Wrap(errcode.InvalidParams, op, "uart framing")
		}
		if u.RxSize < 0 || u.TxSize < 0 {
			return errcode.Wrap(errcode.InvalidParams, op, "uart buffer size")
		}
		// RXD/TXD are fixed.
		if err := claim(PinRef{'D', 0}, "rxd"); err != nil {
			return err
		}
		if err := claim(PinRef{'D', 1}, "txd"); err != nil {
			return err
		}
	}
	if s := p.SPI; s != nil {
		if !s.Config.Mode.Valid() || s.Config.BitOrder > types.LSBFirst {
			return errcode.Wrap(errcode.InvalidParams, op, "spi mode")
		}
		switch s.Config.Prescaler {
		case 2, 4, 8, 16, 32, 64, 128:
		default:
			return errcode.Wrap(errcode.InvalidPrescaler, op, "spi")
		}
		for _, c := range []struct {
			r    PinRef
			name string
		}{{s.SCK, "sck"}, {s.MOSI, "mosi"}, {s.MISO, "miso"}} {
			if err := claim(c.r, c.name); err != nil {
				return err
			}
		}
	}
	if c := p.CAN; c != nil {
		if p.SPI == nil {
			return errcode.Wrap(errcode.InvalidParams, op, "can needs spi")
		}
		if err := claim(c.CS, "can cs"); err != nil {
			return err
		}
		if err := claim(c.INT, "can int"); err != nil {
			return err
		}
	}
	if p.SPI != nil {
		// SS must not be an input while the SPI runs as master.
		if what := used[spiSS]; what == "miso" || what == "can int" {
			return errcode.Wrap(errcode.InvalidParams, op, spiSS.String()+" (ss) used as "+what)
		}
	}
	if p.Trace != nil {
		if p.UART == nil {
			return errcode.Wrap(errcode.InvalidParams, op, "trace needs uart")
		}
		if p.Trace.Level > trace.Error {
			return errcode.Wrap(errcode.InvalidParams, op, "trace level")
		}
	}
	return nil
}

// uses reports whether the plan wires r to anything.
func (p Plan) uses(r PinRef) bool {
	if s := p.SPI; s != nil && (s.SCK == r || s.MOSI == r || s.MISO == r) {
		return true
	}
	if c := p.CAN; c != nil && (c.CS == r || c.INT == r) {
		return true
	}
	return false
}
