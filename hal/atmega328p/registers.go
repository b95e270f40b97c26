// Package atmega328p implements the HAL contracts over the ATmega328P
// register file. Register references are injected at construction so the
// same code runs against device registers (TinyGo, avr) and against the host
// simulator in package sim.
package atmega328p

// Bit positions reproduce the ATmega328P datasheet.
const (
	// SREG
	sregI = 7

	// SPCR
	bitSPIE = 7
	bitSPE  = 6
	bitDORD = 5
	bitMSTR = 4
	bitCPOL = 3
	bitCPHA = 2
	bitSPR1 = 1
	bitSPR0 = 0

	// SPSR
	bitSPIF  = 7
	bitWCOL  = 6
	bitSPI2X = 0

	// UCSR0A
	bitRXC0  = 7
	bitTXC0  = 6
	bitUDRE0 = 5
	bitFE0   = 4
	bitDOR0  = 3
	bitUPE0  = 2
	bitU2X0  = 1
	bitMPCM0 = 0

	// UCSR0B
	bitRXCIE0 = 7
	bitTXCIE0 = 6
	bitUDRIE0 = 5
	bitRXEN0  = 4
	bitTXEN0  = 3
	bitUCSZ02 = 2

	// UCSR0C
	bitUPM00  = 4 // UPM0[1:0] at 5:4
	bitUSBS0  = 3
	bitUCSZ00 = 1 // UCSZ0[1:0] at 2:1
)

// Exported masks for simulators and diagnostics.
const (
	SREG_I = 1 << sregI

	SPCR_SPIE = 1 << bitSPIE
	SPCR_SPE  = 1 << bitSPE
	SPCR_DORD = 1 << bitDORD
	SPCR_MSTR = 1 << bitMSTR
	SPCR_CPOL = 1 << bitCPOL
	SPCR_CPHA = 1 << bitCPHA
	SPSR_SPIF = 1 << bitSPIF
	SPSR_2X   = 1 << bitSPI2X

	UCSR0A_RXC  = 1 << bitRXC0
	UCSR0A_TXC  = 1 << bitTXC0
	UCSR0A_UDRE = 1 << bitUDRE0
	UCSR0A_U2X  = 1 << bitU2X0

	UCSR0B_RXCIE = 1 << bitRXCIE0
	UCSR0B_TXCIE = 1 << bitTXCIE0
	UCSR0B_UDRIE = 1 << bitUDRIE0
	UCSR0B_RXEN  = 1 << bitRXEN0
	UCSR0B_TXEN  = 1 << bitTXEN0

	UCSR0C_UPM  = 0b11 << bitUPM00
	UCSR0C_USBS = 1 << bitUSBS0
	UCSR0C_8BIT = 0b11 << bitUCSZ00
)
