package sim

import (
	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/reg"
)

// UART models USART0. The transmitter shifts a byte out as soon as it is
// written unless manual shifting is on, in which case each Shift call
// completes one byte.
type UART struct {
	b                        *Board
	UDR, UCSRA, UCSRB, UCSRC reg.Func8
	UBRRH, UBRRL             reg.Func8

	udre, txc, rxc bool
	rxData         byte
	txData         byte
	txBusy         bool
	manual         bool

	// Sent holds every byte that left the transmitter.
	Sent []byte
	// Overruns counts injected bytes lost because RXC was still set.
	Overruns int
}

func newUART(b *Board) *UART {
	u := &UART{b: b, udre: true}
	u.UCSRA.Read = func(last uint8) uint8 {
		v := last & (atmega328p.UCSR0A_U2X | 1) // U2X0, MPCM0
		if u.rxc {
			v |= atmega328p.UCSR0A_RXC
		}
		if u.txc {
			v |= atmega328p.UCSR0A_TXC
		}
		if u.udre {
			v |= atmega328p.UCSR0A_UDRE
		}
		return v
	}
	u.UCSRA.Write = func(_, v uint8) {
		if v&atmega328p.UCSR0A_TXC != 0 {
			u.txc = false
		}
	}
	u.UCSRB.Write = func(old, v uint8) { b.service() }
	u.UDR.Read = func(uint8) uint8 {
		u.rxc = false
		return u.rxData
	}
	u.UDR.Write = func(_, v uint8) { u.write(v) }
	return u
}

// Registers returns the HAL register set.
func (u *UART) Registers() atmega328p.UART0Registers {
	return atmega328p.UART0Registers{
		UDR: &u.UDR, UCSRA: &u.UCSRA, UCSRB: &u.UCSRB, UCSRC: &u.UCSRC,
		UBRRH: &u.UBRRH, UBRRL: &u.UBRRL,
	}
}

// SetManualShift holds written bytes in the data register until Shift.
func (u *UART) SetManualShift(on bool) { u.manual = on }

func (u *UART) write(v uint8) {
	if u.UCSRB.Get()&atmega328p.UCSR0B_TXEN == 0 || !u.udre {
		return
	}
	u.txData, u.txBusy, u.udre = v, true, false
	if !u.manual {
		u.Shift()
		return
	}
	u.b.service()
}

// Shift completes transmission of the byte in the data register. It
// reports false when the register was empty.
func (u *UART) Shift() bool {
	if !u.txBusy {
		return false
	}
	u.Sent = append(u.Sent, u.txData)
	u.txBusy = false
	u.udre, u.txc = true, true
	u.b.service()
	return true
}

// Inject receives bytes on RXD one at a time.
func (u *UART) Inject(data ...byte) {
	for _, c := range data {
		if u.UCSRB.Get()&atmega328p.UCSR0B_RXEN == 0 {
			continue
		}
		if u.rxc {
			u.Overruns++
			continue
		}
		u.rxData, u.rxc = c, true
		u.b.service()
	}
}

// Baud decodes the programmed rate for a CPU clock of fcpu Hz.
func (u *UART) Baud(fcpu uint32) uint32 {
	ubrr := uint32(u.UBRRH.Get()&0x0F)<<8 | uint32(u.UBRRL.Get())
	div := uint32(16)
	if u.UCSRA.Get()&atmega328p.UCSR0A_U2X != 0 {
		div = 8
	}
	return fcpu / (div * (ubrr + 1))
}

// Frame decodes UCSR0C into parity (0 none, 2 even, 3 odd) and stop bits.
func (u *UART) Frame() (upm uint8, stopBits int) {
	c := u.UCSRC.Get()
	stopBits = 1
	if c&atmega328p.UCSR0C_USBS != 0 {
		stopBits = 2
	}
	return (c & atmega328p.UCSR0C_UPM) >> 4, stopBits
}
