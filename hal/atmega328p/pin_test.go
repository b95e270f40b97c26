package atmega328p_test

import (
	"testing"

	"mcuhal-go/errcode"
	"mcuhal-go/hal"
	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/atmega328p/sim"
)

func TestOutPinTouchesOnlyItsBit(t *testing.T) {
	for bit := uint8(0); bit < 8; bit++ {
		b := sim.New()
		const ddr0, port0 = 0x5A, 0xA5
		b.PortD.DDR.Set(ddr0)
		b.PortD.PORT.Set(port0)
		port := b.PortD.NewPort('D')

		o, err := port.OutPin(bit)
		if err != nil {
			t.Fatalf("bit %d: %v", bit, err)
		}
		m := uint8(1) << bit
		if got := b.PortD.DDR.Get(); got != ddr0|m {
			t.Fatalf("bit %d: DDR=%#x want %#x", bit, got, ddr0|m)
		}
		o.Set()
		if got := b.PortD.PORT.Get(); got != port0|m {
			t.Fatalf("bit %d: PORT after Set=%#x", bit, got)
		}
		if !o.IsSet() {
			t.Fatalf("bit %d: IsSet false after Set", bit)
		}
		o.Clr()
		if got := b.PortD.PORT.Get(); got != port0&^m {
			t.Fatalf("bit %d: PORT after Clr=%#x", bit, got)
		}
		o.Toggle()
		if got := b.PortD.PORT.Get(); got != port0|m {
			t.Fatalf("bit %d: PORT after Toggle=%#x", bit, got)
		}
	}
}

func TestInPinReadsLineAndPullUp(t *testing.T) {
	for bit := uint8(0); bit < 8; bit++ {
		b := sim.New()
		b.PortB.PORT.Set(0xFF &^ (1 << bit))
		port := b.PortB.NewPort('B')
		in, err := port.InPin(bit)
		if err != nil {
			t.Fatalf("bit %d: %v", bit, err)
		}
		if b.PortB.IsOutput(bit) {
			t.Fatalf("bit %d: still an output", bit)
		}

		b.PortB.Drive(bit, true)
		if !in.IsSet() {
			t.Fatalf("bit %d: driven high reads low", bit)
		}
		b.PortB.Drive(bit, false)
		if in.IsSet() {
			t.Fatalf("bit %d: driven low reads high", bit)
		}

		b.PortB.Float(bit)
		if in.IsSet() {
			t.Fatalf("bit %d: floating without pull-up reads high", bit)
		}
		in.SetPullUpMode(hal.PullUp)
		if !in.IsSet() {
			t.Fatalf("bit %d: pull-up did not pull high", bit)
		}
		if got := b.PortB.PORT.Get(); got != 0xFF {
			t.Fatalf("bit %d: pull-up disturbed PORT: %#x", bit, got)
		}
		in.SetPullUpMode(hal.PullNone)
		if got := b.PortB.PORT.Get(); got != 0xFF&^(1<<bit) {
			t.Fatalf("bit %d: PullNone PORT=%#x", bit, got)
		}
	}
}

func TestPinClaims(t *testing.T) {
	b := sim.New()
	port := b.PortC.NewPort('C')

	if _, err := port.OutPin(8); errcode.Of(err) != errcode.InvalidPin {
		t.Fatalf("bit 8: got %v", err)
	}
	o, err := port.OutPin(3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := port.InPin(3); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("second claim: got %v", err)
	}
	if o.String() != "PC3" {
		t.Fatalf("String() = %q", o.String())
	}
	o.Set()
	o.Release()
	if port.Claimed() != 0 || b.PortC.IsOutput(3) || b.PortC.PORT.Get() != 0 {
		t.Fatal("release did not return the bit to hi-Z input")
	}
	if _, err := port.InPin(3); err != nil {
		t.Fatalf("reclaim after release: %v", err)
	}
}

func TestInPinNeedsInputRegister(t *testing.T) {
	b := sim.New()
	port := atmega328p.NewPort('B', &b.PortB.DDR, &b.PortB.PORT, nil)
	if _, err := port.InPin(0); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("got %v", err)
	}
	o, err := port.OutPin(0)
	if err != nil {
		t.Fatal(err)
	}
	o.Toggle()
	if !o.IsSet() {
		t.Fatal("toggle without PIN register did not flip the latch")
	}
}

func TestOutPinInitPresetsLatch(t *testing.T) {
	b := sim.New()
	port := b.PortB.NewPort('B')
	var levels []bool
	b.PortB.DDR.Write = func(_, v uint8) { levels = append(levels, b.PortB.Level(2)) }
	o, err := port.OutPinInit(2, true)
	if err != nil {
		t.Fatal(err)
	}
	if !o.IsSet() || !b.PortB.IsOutput(2) {
		t.Fatal("pin not a high output")
	}
	if len(levels) != 1 || !levels[0] {
		t.Fatalf("line levels at direction change: %v", levels)
	}
	if _, err := port.OutPinInit(2, false); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("got %v", err)
	}
}
