package atmega328p_test

import (
	"testing"

	"mcuhal-go/hal/atmega328p"
	"mcuhal-go/hal/atmega328p/sim"
)

func TestEnableDisableTouchOnlyOneBit(t *testing.T) {
	ids := []atmega328p.Interrupt{}
	for id := atmega328p.ExternalInt0; id <= atmega328p.SpmReady; id++ {
		ids = append(ids, id)
	}
	for n := uint8(0); n < 24; n++ {
		if n != 15 {
			ids = append(ids, atmega328p.PinChange(n))
		}
	}

	for _, id := range ids {
		b := sim.New()
		masks := b.Masks()
		ic := atmega328p.NewInterruptController(masks)
		r, bit, ok := atmega328p.MaskOf(id)
		if !ok {
			t.Fatalf("interrupt %d has no mask", id)
		}
		const pattern = 0x24
		masks[r].Set(pattern)
		b.SREG().Set(0x03)

		ic.EnableInterrupt(id)
		want := uint8(pattern) | 1<<bit
		if got := masks[r].Get(); got != want {
			t.Fatalf("interrupt %d enable: reg=%#x want %#x", id, got, want)
		}
		if !ic.IsEnabled(id) {
			t.Fatalf("interrupt %d: IsEnabled false", id)
		}
		ic.DisableInterrupt(id)
		want = uint8(pattern) &^ (1 << bit)
		if got := masks[r].Get(); got != want {
			t.Fatalf("interrupt %d disable: reg=%#x want %#x", id, got, want)
		}
		if got := b.SREG().Get(); got != 0x03 {
			t.Fatalf("interrupt %d: SREG=%#x after update", id, got)
		}
	}
}

func TestGlobalIsTheIFlag(t *testing.T) {
	b := sim.New()
	ic := b.NewInterruptController()
	b.SREG().Set(0x01)
	ic.EnableInterrupt(atmega328p.Global)
	if b.SREG().Get() != 0x81 {
		t.Fatalf("SREG=%#x", b.SREG().Get())
	}
	ic.EnableInterrupt(atmega328p.ExternalInt0)
	if b.SREG().Get() != 0x81 {
		t.Fatal("source enable did not restore SREG")
	}
	ic.DisableInterrupt(atmega328p.Global)
	if b.SREG().Get() != 0x01 {
		t.Fatalf("SREG=%#x", b.SREG().Get())
	}
}

func TestDeliveryIsGatedByMaskAndGlobal(t *testing.T) {
	b := sim.New()
	ic := b.NewInterruptController()
	n := 0
	ic.Handle(atmega328p.ExternalInt0, func() { n++ })

	b.Raise(atmega328p.ExternalInt0)
	ic.EnableInterrupt(atmega328p.ExternalInt0)
	if n != 0 {
		t.Fatal("delivered with global interrupts off")
	}
	ic.EnableInterrupt(atmega328p.Global)
	if n != 1 || b.Pending(atmega328p.ExternalInt0) {
		t.Fatalf("n=%d pending=%v", n, b.Pending(atmega328p.ExternalInt0))
	}

	ic.DisableInterrupt(atmega328p.ExternalInt0)
	b.Raise(atmega328p.ExternalInt0)
	if n != 1 {
		t.Fatal("delivered while masked")
	}
	ic.EnableInterrupt(atmega328p.ExternalInt0)
	if n != 2 || b.Delivered(atmega328p.ExternalInt0) != 2 {
		t.Fatalf("n=%d delivered=%d", n, b.Delivered(atmega328p.ExternalInt0))
	}
}

func TestHandlerRunsWithInterruptsOff(t *testing.T) {
	b := sim.New()
	ic := b.NewInterruptController()
	var sreg uint8
	ic.Handle(atmega328p.PinChangeGroup1, func() { sreg = b.SREG().Get() })
	ic.EnableInterrupt(atmega328p.PinChangeGroup1)
	ic.EnableInterrupt(atmega328p.Global)
	b.Raise(atmega328p.PinChangeGroup1)
	if sreg&atmega328p.SREG_I != 0 {
		t.Fatal("handler ran with I set")
	}
	if b.SREG().Get()&atmega328p.SREG_I == 0 {
		t.Fatal("I not restored after handler")
	}
}

func TestHandleTwicePanics(t *testing.T) {
	b := sim.New()
	ic := b.NewInterruptController()
	ic.Handle(atmega328p.Timer0Overflow, func() {})

	mustPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Fatalf("%s: no panic", name)
			}
		}()
		fn()
	}
	mustPanic("duplicate", func() { ic.Handle(atmega328p.Timer0Overflow, func() {}) })
	mustPanic("global", func() { ic.Handle(atmega328p.Global, func() {}) })
	mustPanic("nil register", func() { atmega328p.NewInterruptController(atmega328p.MaskRegisters{}) })
}

func TestMissingPinChange15(t *testing.T) {
	if _, _, ok := atmega328p.MaskOf(atmega328p.PinChange(15)); ok {
		t.Fatal("PCINT15 has a mask bit")
	}
	if _, _, ok := atmega328p.MaskOf(atmega328p.PinChange(16)); !ok {
		t.Fatal("PCINT16 has no mask bit")
	}
}
