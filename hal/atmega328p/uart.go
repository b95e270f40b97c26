package atmega328p

import (
	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/hal/reg"
	"mcuhal-go/types"
	"mcuhal-go/x/mathx"
)

type UART0Registers struct {
	UDR          reg.Reg8
	UCSRA        reg.Reg8
	UCSRB        reg.Reg8
	UCSRC        reg.Reg8
	UBRRH, UBRRL reg.Reg8
}

// Maximum divisor error accepted when generating a baud rate, in permille.
const maxBaudErrorPermille = 30

// UART0 is the USART0 peripheral in asynchronous mode, 8 data bits.
type UART0 struct {
	r    UART0Registers
	ic   *InterruptController
	fcpu uint32

	onRx, onTx func()
}

var _ hal.UART = (*UART0)(nil)

// NewUART0 enables the receiver and transmitter in 8N1 and binds the receive
// and data-register-empty vectors. fcpu is the system clock in Hz.
func NewUART0(r UART0Registers, ic *InterruptController, fcpu uint32) *UART0 {
	u := &UART0{r: r, ic: ic, fcpu: fcpu}
	r.UCSRC.Set(UCSR0C_8BIT)
	reg.SetBits(r.UCSRB, UCSR0B_RXEN|UCSR0B_TXEN)
	ic.Handle(UsartRxComplete, u.isrRx)
	ic.Handle(UsartDataRegisterEmpty, u.isrTx)
	return u
}

// Configure applies a full line configuration.
func (u *UART0) Configure(cfg types.UARTConfig) error {
	if err := u.SetBaudRate(cfg.Baud); err != nil {
		return err
	}
	if err := u.SetParity(cfg.Parity); err != nil {
		return err
	}
	return u.SetStopBits(cfg.StopBits)
}

// divisor picks the normal (/16) or double-speed (/8) divisor closest to the
// requested rate.
func divisor(fcpu, baud uint32) (ubrr uint16, u2x bool, ok bool) {
	if fcpu == 0 || baud == 0 {
		return 0, false, false
	}
	best := uint32(maxBaudErrorPermille + 1)
	for _, div := range [2]uint32{16, 8} {
		n := mathx.RoundDiv(fcpu, div*baud)
		if n == 0 || n > 4096 {
			continue
		}
		e := mathx.Permille(fcpu/(div*n), baud)
		if e < best {
			best, ubrr, u2x = e, uint16(n-1), div == 8
		}
	}
	return ubrr, u2x, best <= maxBaudErrorPermille
}

func (u *UART0) SetBaudRate(baud types.BaudRate) error {
	ubrr, u2x, ok := divisor(u.fcpu, baud.Hz())
	if !ok {
		return errcode.Wrap(errcode.InvalidBaud, "uart0.SetBaudRate", "")
	}
	// Flag bits in UCSR0A are read-only or cleared by writing one, so write
	// only the speed bit.
	if u2x {
		u.r.UCSRA.Set(UCSR0A_U2X)
	} else {
		u.r.UCSRA.Set(0)
	}
	u.r.UBRRH.Set(uint8(ubrr >> 8))
	u.r.UBRRL.Set(uint8(ubrr)) // low byte write latches the divisor
	return nil
}

func (u *UART0) SetParity(p types.Parity) error {
	var upm uint8
	switch p {
	case types.ParityNone:
		upm = 0b00
	case types.ParityEven:
		upm = 0b10
	case types.ParityOdd:
		upm = 0b11
	default:
		return errcode.Wrap(errcode.InvalidParams, "uart0.SetParity", "unknown parity")
	}
	reg.ReplaceBits(u.r.UCSRC, upm, 0b11, bitUPM00)
	return nil
}

func (u *UART0) SetStopBits(s types.StopBits) error {
	switch s {
	case types.StopBits1:
		reg.ClearBits(u.r.UCSRC, UCSR0C_USBS)
	case types.StopBits2:
		reg.SetBits(u.r.UCSRC, UCSR0C_USBS)
	default:
		return errcode.Wrap(errcode.InvalidParams, "uart0.SetStopBits", "")
	}
	return nil
}

// Transmit busy-waits for an empty data register.
func (u *UART0) Transmit(b byte) {
	for !reg.HasBits(u.r.UCSRA, UCSR0A_UDRE) {
	}
	u.r.UDR.Set(b)
}

// Receive reads the data register, which also clears the receive flag.
func (u *UART0) Receive() byte { return u.r.UDR.Get() }

func (u *UART0) EnableTxInterrupt()  { u.ic.EnableInterrupt(UsartDataRegisterEmpty) }
func (u *UART0) DisableTxInterrupt() { u.ic.DisableInterrupt(UsartDataRegisterEmpty) }
func (u *UART0) EnableRxInterrupt()  { u.ic.EnableInterrupt(UsartRxComplete) }
func (u *UART0) DisableRxInterrupt() { u.ic.DisableInterrupt(UsartRxComplete) }

func (u *UART0) OnRxDone(fn func()) { u.onRx = fn }
func (u *UART0) OnTxDone(fn func()) { u.onTx = fn }

func (u *UART0) isrRx() {
	if u.onRx != nil {
		u.onRx()
		return
	}
	_ = u.r.UDR.Get()
}

func (u *UART0) isrTx() {
	if u.onTx != nil {
		u.onTx()
		return
	}
	u.DisableTxInterrupt()
}
