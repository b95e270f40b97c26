//go:build !tinygo

package periph

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"periph.io/x/conn/v3/gpio"

	"mcuhal-go/errcode"
	"mcuhal-go/hal"
)

type fakeConn struct {
	w   [][]byte
	err error
}

func (f *fakeConn) Tx(w, r []byte) error {
	f.w = append(f.w, append([]byte(nil), w...))
	for i := range r {
		r[i] = w[i] + 1
	}
	return f.err
}

type fakeCloser struct {
	closed int
	err    error
}

func (c *fakeCloser) Close() error {
	c.closed++
	return c.err
}

func TestSPITxPadsNilWrite(t *testing.T) {
	c := &fakeConn{}
	s := newSPI("SPI0.0", c, &fakeCloser{}, zap.NewNop())
	r := make([]byte, 3)
	if err := s.Tx(nil, r); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{1, 1, 1}, r); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if v, err := s.Transfer(0x41); err != nil || v != 0x42 {
		t.Fatalf("Transfer = %#x, %v", v, err)
	}
	if err := s.Tx([]byte{1, 2}, r); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("mismatch: %v", err)
	}
	if len(c.w) != 2 {
		t.Fatalf("%d transfers", len(c.w))
	}
}

func TestSPIErrorsAreWrapped(t *testing.T) {
	boom := errors.New("ioctl")
	s := newSPI("SPI0.1", &fakeConn{err: boom}, &fakeCloser{}, zap.NewNop())
	err := s.Tx([]byte{1}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("cause lost: %v", err)
	}
	if err.Error() != "SPI0.1: ioctl" {
		t.Fatalf("got %q", err)
	}
}

type fakeLine struct {
	name  string
	level gpio.Level
	pull  gpio.Pull
	isOut bool
	err   error
}

func (l *fakeLine) Name() string { return l.name }
func (l *fakeLine) Out(v gpio.Level) error {
	if l.err != nil {
		return l.err
	}
	l.isOut, l.level = true, v
	return nil
}
func (l *fakeLine) In(p gpio.Pull, _ gpio.Edge) error {
	if l.err != nil {
		return l.err
	}
	l.isOut, l.pull = false, p
	if p == gpio.PullUp {
		l.level = gpio.High
	}
	return nil
}
func (l *fakeLine) Read() gpio.Level { return l.level }

func TestOutPin(t *testing.T) {
	l := &fakeLine{name: "GPIO8"}
	o, err := newOut(l, true, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if !l.isOut || l.level != gpio.High {
		t.Fatal("initial level not applied")
	}
	o.Clr()
	if l.level != gpio.Low {
		t.Fatal("Clr")
	}
	if err := o.Close(); err != nil || l.isOut || l.pull != gpio.Float {
		t.Fatalf("Close: %v", err)
	}
}

func TestOutPinLogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	l := &fakeLine{name: "GPIO8"}
	o, err := newOut(l, false, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	l.err = errors.New("busy")
	o.Set()
	entries := logs.FilterMessage("gpio write failed").All()
	if len(entries) != 1 {
		t.Fatalf("%d log entries", len(entries))
	}
	if got := entries[0].ContextMap()["pin"]; got != "GPIO8" {
		t.Fatalf("pin field %v", got)
	}
}

func TestInPinPullUp(t *testing.T) {
	l := &fakeLine{name: "GPIO25"}
	i, err := newIn(l, hal.PullUp, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if l.pull != gpio.PullUp || !i.IsSet() {
		t.Fatal("pull-up not applied")
	}
	i.SetPullUpMode(hal.PullNone)
	if l.pull != gpio.Float {
		t.Fatal("pull not released")
	}
	if _, err := newIn(&fakeLine{name: "x", err: errors.New("no")}, hal.PullNone, zap.NewNop()); err == nil {
		t.Fatal("configure error swallowed")
	}
}

func TestCloseAllCombines(t *testing.T) {
	a, b := &fakeCloser{err: errors.New("a")}, &fakeCloser{err: errors.New("b")}
	var none io.Closer
	err := CloseAll(a, none, b)
	if err == nil || err.Error() != "a; b" {
		t.Fatalf("got %v", err)
	}
	if a.closed != 1 || b.closed != 1 {
		t.Fatal("not every closer ran")
	}
}

func TestFlashBounds(t *testing.T) {
	var f Flash
	buf := make([]byte, 4)
	if n := f.Read(buf, "CANSTAT", 3); n != 4 || string(buf) != "STAT" {
		t.Fatalf("got %d %q", n, buf)
	}
	if n := f.Read(buf, "ab", 2); n != 0 {
		t.Fatalf("read past end: %d", n)
	}
	if n := f.Read(buf, "ab", -1); n != 0 {
		t.Fatalf("negative offset: %d", n)
	}
}
