package mcp2515_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"tinygo.org/x/drivers"

	"mcuhal-go/drivers/mcp2515"
	"mcuhal-go/drivers/mcp2515/simdev"
	"mcuhal-go/errcode"
	"mcuhal-go/hal/spibus"
)

// tap wraps the device transport, checks chip-select on every transfer
// and can fail one chosen call.
type tap struct {
	drivers.SPI
	cs     *simdev.ChipSelect
	calls  int
	failAt int
	err    error
	csHigh int
}

func (p *tap) Tx(w, r []byte) error {
	p.calls++
	if p.cs.IsSet() {
		p.csHigh++
	}
	if p.calls == p.failAt {
		return p.err
	}
	return p.SPI.Tx(w, r)
}

func newIo(t *testing.T) (*simdev.Device, *tap, *mcp2515.IoSpi) {
	t.Helper()
	dev := simdev.New()
	cs := dev.ChipSelect()
	p := &tap{SPI: dev, cs: cs}
	return dev, p, mcp2515.NewIoSpi(spibus.New(p), cs)
}

func TestWriteThenReadEveryWritableRegister(t *testing.T) {
	_, p, io := newIo(t)
	n := 0
	for a := 0; a < mcp2515.NumRegisters; a++ {
		r := mcp2515.Register(a)
		if !mcp2515.Writable(r) {
			continue
		}
		n++
		v := byte(a*37+11) & simdev.WritableBits(r)
		if err := io.WriteRegister(r, v); err != nil {
			t.Fatalf("write %#x: %v", a, err)
		}
		got, err := io.ReadRegister(r)
		if err != nil {
			t.Fatalf("read %#x: %v", a, err)
		}
		if got != v {
			t.Fatalf("register %#x: read %#x after writing %#x", a, got, v)
		}
	}
	if n < 90 {
		t.Fatalf("only %d writable registers", n)
	}
	if p.csHigh != 0 {
		t.Fatalf("%d transfers ran with chip-select released", p.csHigh)
	}
	if !p.cs.IsSet() {
		t.Fatal("chip-select left asserted")
	}
}

func TestReadOnlyRegistersIgnoreWrites(t *testing.T) {
	dev, _, io := newIo(t)
	dev.Poke(mcp2515.TEC, 0x12)
	if err := io.WriteRegister(mcp2515.TEC, 0x99); err != nil {
		t.Fatal(err)
	}
	if v, _ := io.ReadRegister(mcp2515.TEC); v != 0x12 {
		t.Fatalf("TEC=%#x", v)
	}
	if v, _ := io.ReadRegister(mcp2515.CANSTAT); v != mcp2515.ResetCANSTAT {
		t.Fatalf("CANSTAT=%#x", v)
	}
}

func TestResetRestoresConfigMode(t *testing.T) {
	dev, _, io := newIo(t)
	if err := io.WriteRegister(mcp2515.CNF1, 0x03); err != nil {
		t.Fatal(err)
	}
	if err := io.SetMode(mcp2515.ModeNormal); err != nil {
		t.Fatal(err)
	}
	if err := io.Reset(); err != nil {
		t.Fatal(err)
	}
	if dev.Peek(mcp2515.CNF1) != 0 || dev.Peek(mcp2515.CANCTRL) != mcp2515.ResetCANCTRL {
		t.Fatal("reset left configuration behind")
	}
	m, err := io.Mode()
	if err != nil || m != mcp2515.ModeConfig {
		t.Fatalf("mode %v, %v", m, err)
	}
}

func TestModifyRegisterTouchesMaskedBits(t *testing.T) {
	dev, _, io := newIo(t)
	dev.Poke(mcp2515.CNF2, 0xF0)
	if err := io.ModifyRegister(mcp2515.CNF2, 0x0F, 0xFF); err != nil {
		t.Fatal(err)
	}
	if v := dev.Peek(mcp2515.CNF2); v != 0xFF {
		t.Fatalf("CNF2=%#x", v)
	}
	if err := io.ModifyRegister(mcp2515.CNF2, 0xF0, 0x00); err != nil {
		t.Fatal(err)
	}
	if v := dev.Peek(mcp2515.CNF2); v != 0x0F {
		t.Fatalf("CNF2=%#x", v)
	}
	if diff := cmp.Diff([]byte{0x05, 0x05}, dev.Opcodes); diff != "" {
		t.Fatalf("opcodes (-want +got):\n%s", diff)
	}
}

func TestSetModeKeepsOtherControlBits(t *testing.T) {
	dev, _, io := newIo(t)
	if err := io.SetMode(mcp2515.ModeLoopback); err != nil {
		t.Fatal(err)
	}
	if v := dev.Peek(mcp2515.CANCTRL); v != 0x47 {
		t.Fatalf("CANCTRL=%#x", v)
	}
	if m, _ := io.Mode(); m != mcp2515.ModeLoopback {
		t.Fatalf("mode %v", m)
	}
	if err := io.SetMode(7); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("got %v", err)
	}
}

func TestSequentialAccess(t *testing.T) {
	_, _, io := newIo(t)
	in := []byte{0x11, 0x22, 0x33, 0x44}
	if err := io.WriteRegisters(mcp2515.RXF(1), in); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 4)
	if err := io.ReadRegisters(mcp2515.RXF(1), out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if mcp2515.RXF(3) != 0x10 || mcp2515.RXM(1) != 0x24 {
		t.Fatal("filter/mask addresses")
	}
}

func TestStatusInstructions(t *testing.T) {
	dev, _, io := newIo(t)
	dev.Poke(mcp2515.CANINTF, 0x01|0x04) // RX0IF, TX0IF
	if err := io.RequestToSend(0x01); err != nil {
		t.Fatal(err)
	}
	s, err := io.ReadStatus()
	if err != nil {
		t.Fatal(err)
	}
	if !s.RX0IF() || s.RX1IF() || !s.TXREQ(0) || !s.TXIF(0) || s.TXREQ(1) {
		t.Fatalf("status %08b", s)
	}

	dev.Poke(mcp2515.CANINTF, 0x02)
	rs, err := io.ReadRxStatus()
	if err != nil {
		t.Fatal(err)
	}
	if rs.MsgInRXB0() || !rs.MsgInRXB1() {
		t.Fatalf("rx status %08b", rs)
	}
	if err := io.RequestToSend(0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("empty RTS mask: %v", err)
	}
}

func TestBufferInstructions(t *testing.T) {
	dev, _, io := newIo(t)
	frame := []byte{0x24, 0x60, 0, 0, 2, 0xAB, 0xCD}
	if err := io.LoadTxBuffer(1, frame); err != nil {
		t.Fatal(err)
	}
	for i, b := range frame {
		if v := dev.Peek(mcp2515.TXB1CTRL + 1 + mcp2515.Register(i)); v != b {
			t.Fatalf("TXB1 byte %d = %#x", i, v)
		}
	}

	for i, b := range frame {
		dev.Poke(mcp2515.RXB0CTRL+1+mcp2515.Register(i), b)
	}
	dev.Poke(mcp2515.CANINTF, 0x01)
	got := make([]byte, len(frame))
	if err := io.ReadRxBuffer(0, got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(frame, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if dev.Peek(mcp2515.CANINTF)&0x01 != 0 {
		t.Fatal("RX0IF not cleared by READ RX BUFFER")
	}
	if err := io.LoadTxBuffer(3, nil); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("got %v", err)
	}
}

func TestTransportErrorReleasesChipSelect(t *testing.T) {
	_, p, io := newIo(t)
	boom := errors.New("spi fault")
	p.failAt, p.err = 1, boom
	if _, err := io.ReadRegister(mcp2515.CNF1); err != boom {
		t.Fatalf("got %v", err)
	}
	if !p.cs.IsSet() {
		t.Fatal("chip-select left asserted after error")
	}
	if _, err := io.ReadRegister(mcp2515.CNF1); err != nil {
		t.Fatalf("bus not released after error: %v", err)
	}
}

func TestEachOperationIsOneTransaction(t *testing.T) {
	dev, _, io := newIo(t)
	_ = io.Reset()
	_, _ = io.ReadRegister(mcp2515.CNF1)
	_ = io.WriteRegister(mcp2515.CNF1, 1)
	_ = io.ModifyRegister(mcp2515.CNF1, 1, 0)
	_, _ = io.ReadStatus()
	if dev.Transactions != 5 {
		t.Fatalf("transactions=%d", dev.Transactions)
	}
	if diff := cmp.Diff([]byte{0xC0, 0x03, 0x02, 0x05, 0xA0}, dev.Opcodes); diff != "" {
		t.Fatalf("opcodes (-want +got):\n%s", diff)
	}
}

func TestConcurrentReadsKeepTheirOwnResult(t *testing.T) {
	dev, _, io := newIo(t)
	dev.Poke(mcp2515.CNF1, 0x11)
	dev.Poke(mcp2515.CNF2, 0x22)

	var wg sync.WaitGroup
	bad := make(chan string, 2)
	for _, c := range []struct {
		name string
		r    mcp2515.Register
		want byte
	}{{"CNF1", mcp2515.CNF1, 0x11}, {"CNF2", mcp2515.CNF2, 0x22}} {
		wg.Add(1)
		go func(name string, r mcp2515.Register, want byte) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v, err := io.ReadRegister(r)
				if err != nil || v != want {
					bad <- name
					return
				}
				if _, err := io.ReadStatus(); err != nil {
					bad <- "status"
					return
				}
			}
		}(c.name, c.r, c.want)
	}
	wg.Wait()
	close(bad)
	for name := range bad {
		t.Fatalf("%s read returned another operation's byte", name)
	}
}
