//go:build !tinygo

// Package periph backs the HAL contracts with periph.io on Linux hosts, so
// the MCP2515 driver can run on a Raspberry Pi CAN hat through spidev with
// chip-select driven as a plain GPIO.
package periph

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/types"
)

// Init loads the periph host drivers. Call once before opening anything.
func Init(log *zap.Logger) error {
	state, err := host.Init()
	if err != nil {
		return errors.Wrap(err, "periph host init")
	}
	for _, f := range state.Failed {
		log.Debug("periph driver failed", zap.String("driver", f.String()))
	}
	return nil
}

// ---- SPI ----

type txer interface {
	Tx(w, r []byte) error
}

// SPI is a spidev port opened without kernel chip-select.
type SPI struct {
	name string
	conn txer
	port io.Closer
	log  *zap.Logger
}

var _ drivers.SPI = (*SPI)(nil)

// OpenSPI opens a spireg port such as "SPI0.0" at hz.
func OpenSPI(name string, hz uint32, cfg types.SpiConfig, log *zap.Logger) (*SPI, error) {
	if !cfg.Mode.Valid() {
		return nil, errcode.Wrap(errcode.InvalidParams, "periph.OpenSPI", "mode")
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open spi port %q", name)
	}
	mode := spi.Mode(cfg.Mode) | spi.NoCS
	if cfg.BitOrder == types.LSBFirst {
		mode |= spi.LSBFirst
	}
	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, mode, 8)
	if err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "connect spi port %q", name), port.Close())
	}
	return newSPI(name, conn, port, log), nil
}

func newSPI(name string, conn txer, port io.Closer, log *zap.Logger) *SPI {
	return &SPI{name: name, conn: conn, port: port, log: log.With(zap.String("spi", name))}
}

// Tx implements drivers.SPI. spidev wants equal-length buffers, so a nil
// side is padded.
func (s *SPI) Tx(w, r []byte) error {
	switch {
	case w == nil:
		w = make([]byte, len(r))
	case r != nil && len(r) != len(w):
		return errcode.Wrap(errcode.InvalidParams, "periph.Tx", "buffer length mismatch")
	}
	if err := s.conn.Tx(w, r); err != nil {
		s.log.Debug("spi tx failed", zap.Int("len", len(w)), zap.Error(err))
		return errors.Wrap(err, s.name)
	}
	return nil
}

func (s *SPI) Transfer(b byte) (byte, error) {
	var w, r [1]byte
	w[0] = b
	err := s.Tx(w[:], r[:])
	return r[0], err
}

func (s *SPI) Close() error {
	return errors.Wrapf(s.port.Close(), "close spi port %q", s.name)
}

// ---- GPIO ----

// line is the part of gpio.PinIO used here.
type line interface {
	Name() string
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
}

func lookup(name string) (line, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("no gpio named %q", name)
	}
	return p, nil
}

// OutPin is a push-pull output. hal.DigitalOutPin has no error path, so
// failures are logged.
type OutPin struct {
	p   line
	log *zap.Logger
}

var _ hal.DigitalOutPin = (*OutPin)(nil)

func Out(name string, initial bool, log *zap.Logger) (*OutPin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return newOut(p, initial, log)
}

func newOut(p line, initial bool, log *zap.Logger) (*OutPin, error) {
	if err := p.Out(gpio.Level(initial)); err != nil {
		return nil, errors.Wrapf(err, "configure %s as output", p.Name())
	}
	return &OutPin{p: p, log: log.With(zap.String("pin", p.Name()))}, nil
}

func (o *OutPin) Set() { o.out(gpio.High) }
func (o *OutPin) Clr() { o.out(gpio.Low) }

func (o *OutPin) out(l gpio.Level) {
	if err := o.p.Out(l); err != nil {
		o.log.Error("gpio write failed", zap.Stringer("level", l), zap.Error(err))
	}
}

// Close floats the line.
func (o *OutPin) Close() error {
	return errors.Wrapf(o.p.In(gpio.Float, gpio.NoEdge), "release %s", o.p.Name())
}

type InPin struct {
	p   line
	log *zap.Logger
}

var _ hal.DigitalInPin = (*InPin)(nil)

func In(name string, mode hal.PullUpMode, log *zap.Logger) (*InPin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return newIn(p, mode, log)
}

func newIn(p line, mode hal.PullUpMode, log *zap.Logger) (*InPin, error) {
	i := &InPin{p: p, log: log.With(zap.String("pin", p.Name()))}
	if err := p.In(pull(mode), gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "configure %s as input", p.Name())
	}
	return i, nil
}

func pull(mode hal.PullUpMode) gpio.Pull {
	if mode == hal.PullUp {
		return gpio.PullUp
	}
	return gpio.Float
}

func (i *InPin) IsSet() bool { return i.p.Read() == gpio.High }

func (i *InPin) SetPullUpMode(mode hal.PullUpMode) {
	if err := i.p.In(pull(mode), gpio.NoEdge); err != nil {
		i.log.Error("gpio pull change failed", zap.Stringer("mode", mode), zap.Error(err))
	}
}

// CloseAll closes every c and reports all failures.
func CloseAll(cs ...io.Closer) error {
	var err error
	for _, c := range cs {
		if c != nil {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}

// ---- Flash ----

// Flash serves ROM tables on hosts, where they are ordinary data.
type Flash struct{}

var _ hal.Flash = Flash{}

func (Flash) Read(dst []byte, src hal.ROM, off int) int {
	if off < 0 || off >= len(src) {
		return 0
	}
	return copy(dst, src[off:])
}
