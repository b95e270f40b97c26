//go:build !(avr && atmega328p)

package atmega328p

// Off-device, vectors are delivered by whoever owns the registers
// (see package sim), through Dispatch.
func (c *InterruptController) routeVectors() {}
