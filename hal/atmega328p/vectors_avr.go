//go:build avr && atmega328p

package atmega328p

import (
	"device/avr"
	"runtime/interrupt"
)

var vectorTarget *InterruptController

func (c *InterruptController) routeVectors() { vectorTarget = c }

func dispatchVector(id Interrupt) {
	if c := vectorTarget; c != nil {
		c.Dispatch(id)
	}
}

func init() {
	interrupt.New(avr.IRQ_INT0, func(interrupt.Interrupt) { dispatchVector(ExternalInt0) })
	interrupt.New(avr.IRQ_INT1, func(interrupt.Interrupt) { dispatchVector(ExternalInt1) })
	interrupt.New(avr.IRQ_SPI_STC, func(interrupt.Interrupt) { dispatchVector(SpiTransferComplete) })
	interrupt.New(avr.IRQ_USART_RX, func(interrupt.Interrupt) { dispatchVector(UsartRxComplete) })
	interrupt.New(avr.IRQ_USART_UDRE, func(interrupt.Interrupt) { dispatchVector(UsartDataRegisterEmpty) })
	interrupt.New(avr.IRQ_USART_TX, func(interrupt.Interrupt) { dispatchVector(UsartTxComplete) })
}
