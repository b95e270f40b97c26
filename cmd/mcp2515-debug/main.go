//go:build avr && atmega328p

// mcp2515-debug resets the MCP2515 on a CAN shield and dumps its register
// file to the serial console once a second.
package main

import (
	"time"

	"mcuhal-go/drivers/mcp2515"
	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/setups"
)

func main() {
	st, err := setups.Bringup(setups.UnoCANShield, setups.Device())
	if err != nil {
		// No console yet.
		for {
			time.Sleep(time.Second)
		}
	}
	tr := st.Trace

	tr.Info("mcp2515 reset")
	if err := st.CAN.Reset(); err != nil {
		tr.Error("reset failed")
	}
	for {
		if err := mcp2515.DumpAllRegs(tr, atmega328p.Flash{}, st.CAN); err != nil {
			tr.Warning("dump incomplete")
		}
		st.Serial.Flush()
		time.Sleep(time.Second)
	}
}
