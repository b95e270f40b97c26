//go:build avr && atmega328p

package setups

import "mcuhal-go/hal/atmega328p"

// Device returns the on-chip register set.
func Device() Hardware {
	return Hardware{
		Masks: atmega328p.Masks,
		PortB: atmega328p.PortB,
		PortC: atmega328p.PortC,
		PortD: atmega328p.PortD,
		SPI:   atmega328p.SPI,
		UART:  atmega328p.USART0,
	}
}
