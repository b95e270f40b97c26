//go:build avr && atmega328p

package atmega328p

import "device/avr"

// Device register bindings.
var (
	Masks = MaskRegisters{
		RegSREG:   avr.SREG,
		RegEIMSK:  avr.EIMSK,
		RegPCICR:  avr.PCICR,
		RegPCMSK0: avr.PCMSK0,
		RegPCMSK1: avr.PCMSK1,
		RegPCMSK2: avr.PCMSK2,
		RegWDTCSR: avr.WDTCSR,
		RegTIMSK0: avr.TIMSK0,
		RegTIMSK1: avr.TIMSK1,
		RegTIMSK2: avr.TIMSK2,
		RegUCSR0B: avr.UCSR0B,
		RegSPCR:   avr.SPCR,
		RegTWCR:   avr.TWCR,
		RegEECR:   avr.EECR,
		RegSPMCSR: avr.SPMCSR,
		RegACSR:   avr.ACSR,
		RegADCSRA: avr.ADCSRA,
	}

	PortB = NewPort('B', avr.DDRB, avr.PORTB, avr.PINB)
	PortC = NewPort('C', avr.DDRC, avr.PORTC, avr.PINC)
	PortD = NewPort('D', avr.DDRD, avr.PORTD, avr.PIND)

	SPI = SpiRegisters{SPCR: avr.SPCR, SPSR: avr.SPSR, SPDR: avr.SPDR}

	USART0 = UART0Registers{
		UDR:   avr.UDR0,
		UCSRA: avr.UCSR0A,
		UCSRB: avr.UCSR0B,
		UCSRC: avr.UCSR0C,
		UBRRH: avr.UBRR0H,
		UBRRL: avr.UBRR0L,
	}
)

// CPUFrequency is the Uno crystal.
const CPUFrequency = 16_000_000
