// mcp2515-linux dumps the registers of an MCP2515 wired to a Linux SPI port,
// such as a Raspberry Pi CAN hat, with chip-select on a GPIO.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mcuhal-go/drivers/mcp2515"
	"mcuhal-go/hal"
	"mcuhal-go/hal/periph"
	"mcuhal-go/hal/spibus"
	"mcuhal-go/trace"
	"mcuhal-go/types"
)

func main() {
	app := &cli.App{
		Name:  "mcp2515-linux",
		Usage: "dump MCP2515 registers over spidev",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "spi", Value: "SPI0.0", Usage: "spidev port name"},
			&cli.UintFlag{Name: "hz", Value: 1_000_000, Usage: "SCK frequency"},
			&cli.StringFlag{Name: "cs", Value: "GPIO8", Usage: "chip-select gpio (active low)"},
			&cli.StringFlag{Name: "int", Value: "GPIO25", Usage: "interrupt gpio (active low), empty to skip"},
			&cli.BoolFlag{Name: "reset", Usage: "reset the controller before dumping"},
			&cli.StringFlag{Name: "init", Usage: "register writes applied before dumping, e.g. 'CNF1=0x00 CNF2=0x90'"},
			&cli.DurationFlag{Name: "every", Usage: "repeat the dump at this interval"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"v"}, Usage: "log register records"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) (err error) {
	writes, err := parseWrites(periph.Flash{}, c.String("init"))
	if err != nil {
		return err
	}
	cfg := zap.NewDevelopmentConfig()
	if !c.Bool("debug") {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := periph.Init(log); err != nil {
		return err
	}
	port, err := periph.OpenSPI(c.String("spi"), uint32(c.Uint("hz")),
		types.SpiConfig{Mode: types.SpiMode0, BitOrder: types.MSBFirst}, log)
	if err != nil {
		return err
	}
	cs, err := periph.Out(c.String("cs"), true, log)
	if err != nil {
		return multierr.Append(err, port.Close())
	}
	defer func() { err = multierr.Append(err, periph.CloseAll(cs, port)) }()

	if name := c.String("int"); name != "" {
		irq, err := periph.In(name, hal.PullUp, log)
		if err != nil {
			return err
		}
		log.Info("interrupt line", zap.String("pin", name), zap.Bool("asserted", !irq.IsSet()))
	}

	can := mcp2515.NewIoSpi(spibus.New(port), cs)
	if c.Bool("reset") {
		if err := can.Reset(); err != nil {
			return errors.Wrap(err, "reset")
		}
	}
	for _, w := range writes {
		if err := can.WriteRegister(w.r, w.v); err != nil {
			return errors.Wrap(err, "init")
		}
	}
	tr := trace.New(trace.NewZapOutput(log), trace.Debug)

	for {
		if err := mcp2515.DumpAllRegs(tr, periph.Flash{}, can); err != nil {
			return errors.Wrap(err, "dump")
		}
		mode, err := can.Mode()
		if err != nil {
			return errors.Wrap(err, "read mode")
		}
		log.Info("dump complete", zap.Stringer("mode", mode))

		every := c.Duration("every")
		if every <= 0 {
			return nil
		}
		select {
		case <-c.Context.Done():
			return nil
		case <-time.After(every):
		}
	}
}
