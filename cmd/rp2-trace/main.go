//go:build rp2040

// rp2-trace prints a leveled heartbeat on a Pico's UART0.
package main

import (
	"machine"
	"time"

	"mcuhal-go/hal/rp2"
	"mcuhal-go/trace"
	"mcuhal-go/types"
	"mcuhal-go/x/conv"
)

func main() {
	// Allow the host to open the port.
	time.Sleep(2 * time.Second)

	con, err := rp2.OpenConsole("uart0", machine.UART0_TX_PIN, machine.UART0_RX_PIN, types.UARTConfig{
		Baud:     types.B115200,
		Parity:   types.ParityNone,
		StopBits: types.StopBits1,
	})
	if err != nil {
		println("console:", err.Error())
		return
	}
	tr := con.Trace(trace.Info)
	tr.Info("boot")

	var line [24]byte
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for n := uint32(1); ; n++ {
		<-tick.C
		msg := append(line[:0], "heartbeat "...)
		msg = conv.AppendUint(msg, n)
		tr.Emit(trace.Info, msg)
	}
}
