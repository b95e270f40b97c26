package setups

import "mcuhal-go/hal/atmega328p/sim"

// Simulated returns the register set of a simulated board.
func Simulated(b *sim.Board) Hardware {
	return Hardware{
		Masks:  b.Masks(),
		PortB:  b.PortB.NewPort('B'),
		PortC:  b.PortC.NewPort('C'),
		PortD:  b.PortD.NewPort('D'),
		SPI:    b.SPI.Registers(),
		UART:   b.UART.Registers(),
		Attach: b.Attach,
	}
}
