package setups

import (
	"mcuhal-go/drivers/mcp2515"
	"mcuhal-go/drivers/serial"
	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/spibus"
	"mcuhal-go/trace"
)

// Hardware is the register set a plan is brought up on: device registers
// on the target or the simulator's on a host.
type Hardware struct {
	Masks               atmega328p.MaskRegisters
	PortB, PortC, PortD *atmega328p.Port
	SPI                 atmega328p.SpiRegisters
	UART                atmega328p.UART0Registers

	// Attach, when set, receives the controller as soon as it exists.
	Attach func(*atmega328p.InterruptController)
}

func (hw Hardware) port(name byte) *atmega328p.Port {
	switch name {
	case 'B':
		return hw.PortB
	case 'C':
		return hw.PortC
	case 'D':
		return hw.PortD
	}
	return nil
}

// Stack is what Bringup built. Parts the plan leaves out are nil.
type Stack struct {
	IC     *atmega328p.InterruptController
	CS     *atmega328p.CriticalSection
	UART   *atmega328p.UART0
	Serial *serial.Serial
	Trace  *trace.Trace
	SPI    *atmega328p.SpiMaster
	Bus    *spibus.Bus
	CAN    *mcp2515.IoSpi
	CANInt *atmega328p.DigitalInPin
}

// Bringup configures pins and peripherals in dependency order and enables
// global interrupts.
func Bringup(p Plan, hw Hardware) (*Stack, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	st := &Stack{}
	st.IC = atmega328p.NewInterruptController(hw.Masks)
	if hw.Attach != nil {
		hw.Attach(st.IC)
	}
	st.CS = st.IC.CriticalSection()

	var canCS *atmega328p.DigitalOutPin
	if c := p.CAN; c != nil {
		// CS doubles as SS on PB2; it must be a high output before the
		// SPI peripheral is enabled.
		var err error
		if canCS, err = outPin(hw, c.CS, true); err != nil {
			return nil, err
		}
		in, err := inPin(hw, c.INT, hal.PullUp)
		if err != nil {
			return nil, err
		}
		st.CANInt = in
	}

	if s := p.SPI; s != nil {
		if !p.uses(spiSS) {
			// Park an otherwise unused SS as a high output.
			if _, err := outPin(hw, spiSS, true); err != nil {
				return nil, err
			}
		}
		if _, err := outPin(hw, s.SCK, false); err != nil {
			return nil, err
		}
		if _, err := outPin(hw, s.MOSI, false); err != nil {
			return nil, err
		}
		mode := hal.PullNone
		if s.MISOPullUp {
			mode = hal.PullUp
		}
		if _, err := inPin(hw, s.MISO, mode); err != nil {
			return nil, err
		}
	}

	if u := p.UART; u != nil {
		st.UART = atmega328p.NewUART0(hw.UART, st.IC, p.CPUHz)
	}
	if s := p.SPI; s != nil {
		spi, err := atmega328p.NewSpiMaster(hw.SPI, st.IC, s.Config)
		if err != nil {
			return nil, err
		}
		st.SPI = spi
		st.Bus = spibus.New(spi)
	}

	st.IC.EnableInterrupt(atmega328p.Global)

	if u := p.UART; u != nil {
		s, err := serial.New(st.UART, st.CS, serial.Config{
			UARTConfig:  u.Line,
			RxSize:      u.RxSize,
			TxSize:      u.TxSize,
			NonBlocking: u.NonBlocking,
		})
		if err != nil {
			return nil, err
		}
		st.Serial = s
	}
	if t := p.Trace; t != nil {
		st.Trace = trace.New(trace.NewSerialOutput(st.Serial), t.Level)
	}
	if canCS != nil {
		st.CAN = mcp2515.NewIoSpi(st.Bus, canCS)
	}
	return st, nil
}

func outPin(hw Hardware, r PinRef, high bool) (*atmega328p.DigitalOutPin, error) {
	port := hw.port(r.Port)
	if port == nil {
		return nil, errcode.Wrap(errcode.InvalidPin, "setups.Bringup", r.String())
	}
	return port.OutPinInit(r.Bit, high)
}

func inPin(hw Hardware, r PinRef, mode hal.PullUpMode) (*atmega328p.DigitalInPin, error) {
	port := hw.port(r.Port)
	if port == nil {
		return nil, errcode.Wrap(errcode.InvalidPin, "setups.Bringup", r.String())
	}
	in, err := port.InPin(r.Bit)
	if err != nil {
		return nil, err
	}
	in.SetPullUpMode(mode)
	return in, nil
}
