//go:build avr && atmega328p

// serial-echo returns every byte received on UART0.
package main

import (
	"time"

	"mcuhal-go/setups"
)

func main() {
	st, err := setups.Bringup(setups.UnoSerialEcho, setups.Device())
	if err != nil {
		for {
			time.Sleep(time.Second)
		}
	}
	s := st.Serial
	var buf [16]byte
	for {
		n, _ := s.Read(buf[:])
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		// Blocking write: the echo never outruns the line.
		_, _ = s.Write(buf[:n])
	}
}
