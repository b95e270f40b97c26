// mcp2515-sim brings up the CAN shield plan on a simulated ATmega328P with a
// simulated MCP2515 and dumps the controller's registers.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"mcuhal-go/drivers/mcp2515"
	"mcuhal-go/drivers/mcp2515/simdev"
	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/atmega328p/sim"
	"mcuhal-go/setups"
	"mcuhal-go/trace"
)

func main() {
	app := &cli.App{
		Name:  "mcp2515-sim",
		Usage: "dump a simulated MCP2515 through the simulated board",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "console", Usage: "print the board's serial console instead of logging"},
			&cli.StringFlag{Name: "mode", Value: "config", Usage: "operating mode requested before the dump"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseMode(s string) (mcp2515.Mode, error) {
	for m := mcp2515.ModeNormal; m <= mcp2515.ModeConfig; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown mode %q", s)
}

func run(c *cli.Context) error {
	mode, err := parseMode(c.String("mode"))
	if err != nil {
		return err
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	b := sim.New()
	dev := simdev.New()
	b.SPI.AttachDevice(dev, b.PortB, 2)

	st, err := setups.Bringup(setups.UnoCANShield, setups.Simulated(b))
	if err != nil {
		return errors.Wrap(err, "bring-up")
	}
	tr := st.Trace
	if !c.Bool("console") {
		tr = trace.New(trace.NewZapOutput(log), trace.Debug)
	}

	if err := st.CAN.Reset(); err != nil {
		return errors.Wrap(err, "reset")
	}
	if err := st.CAN.SetMode(mode); err != nil {
		return errors.Wrap(err, "set mode")
	}
	got, err := st.CAN.Mode()
	if err != nil {
		return errors.Wrap(err, "read mode")
	}
	tr.Info("mode " + got.String())

	err = mcp2515.DumpAllRegs(tr, atmega328p.Flash{}, st.CAN)
	if c.Bool("console") {
		st.Serial.Flush()
		_, _ = os.Stdout.Write(b.UART.Sent)
	}
	log.Debug("dump done",
		zap.Int("spi_transactions", dev.Transactions),
		zap.Int("uart_bytes", len(b.UART.Sent)))
	return errors.Wrap(err, "dump")
}
