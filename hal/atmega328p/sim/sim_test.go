package sim

import (
	"testing"

	"mcuhal-go/hal/atmega328p"
)

func TestPinReadModel(t *testing.T) {
	b := New()
	p := b.PortB
	p.DDR.Set(0x0F)
	p.PORT.Set(0x3C)
	p.Drive(7, true)
	p.Drive(0, false) // outputs ignore the external line
	if got := p.PIN.Get(); got != 0xBC {
		t.Fatalf("PIN=%#x want 0xBC", got)
	}
	p.PIN.Set(0x81)
	if got := p.PORT.Get(); got != 0xBD {
		t.Fatalf("PIN write did not toggle PORT: %#x", got)
	}
}

func TestStormPanics(t *testing.T) {
	b := New()
	ic := b.NewInterruptController()
	ic.Handle(atmega328p.UsartDataRegisterEmpty, func() {}) // never clears UDRE
	ic.EnableInterrupt(atmega328p.Global)
	defer func() {
		if recover() == nil {
			t.Fatal("no panic on a handler that never clears its flag")
		}
	}()
	ic.EnableInterrupt(atmega328p.UsartDataRegisterEmpty)
}

func TestPriorityFollowsVectorOrder(t *testing.T) {
	b := New()
	ic := b.NewInterruptController()
	var order []atmega328p.Interrupt
	for _, id := range []atmega328p.Interrupt{atmega328p.Timer0Overflow, atmega328p.ExternalInt1} {
		id := id
		ic.Handle(id, func() { order = append(order, id) })
		ic.EnableInterrupt(id)
	}
	b.Raise(atmega328p.Timer0Overflow)
	b.Raise(atmega328p.ExternalInt1)
	ic.EnableInterrupt(atmega328p.Global)
	if len(order) != 2 || order[0] != atmega328p.ExternalInt1 {
		t.Fatalf("order=%v", order)
	}
}

func TestManualShift(t *testing.T) {
	b := New()
	b.UART.UCSRB.Set(atmega328p.UCSR0B_TXEN)
	b.UART.SetManualShift(true)
	b.UART.UDR.Set('x')
	if b.UART.UCSRA.Get()&atmega328p.UCSR0A_UDRE != 0 {
		t.Fatal("UDRE set while byte pending")
	}
	b.UART.UDR.Set('y') // lost: register full
	if !b.UART.Shift() || b.UART.Shift() {
		t.Fatal("Shift should complete exactly one byte")
	}
	if string(b.UART.Sent) != "x" {
		t.Fatalf("Sent=%q", b.UART.Sent)
	}
	a := b.UART.UCSRA.Get()
	if a&atmega328p.UCSR0A_UDRE == 0 || a&atmega328p.UCSR0A_TXC == 0 {
		t.Fatalf("UCSR0A=%#x", a)
	}
	b.UART.UCSRA.Set(atmega328p.UCSR0A_TXC)
	if b.UART.UCSRA.Get()&atmega328p.UCSR0A_TXC != 0 {
		t.Fatal("writing one did not clear TXC")
	}
}
