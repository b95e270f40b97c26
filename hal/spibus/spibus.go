// Package spibus shares one SPI master between drivers. A driver opens a
// Handle for the duration of a chip-select framed transaction and must close
// it to release the bus.
package spibus

import (
	"sync"
	"sync/atomic"

	"tinygo.org/x/drivers"

	"mcuhal-go/errcode"
)

type Bus struct {
	spi drivers.SPI

	lease  sync.Mutex // held by the open handle
	mu     sync.Mutex
	owner  string
	closed bool
}

func New(spi drivers.SPI) *Bus { return &Bus{spi: spi} }

// Open waits for the bus and returns a handle that MUST be closed.
func (b *Bus) Open(owner string) (*Handle, error) {
	b.lease.Lock()
	return b.acquire(owner)
}

// TryOpen is Open without waiting; a held bus is errcode.BusInUse.
func (b *Bus) TryOpen(owner string) (*Handle, error) {
	if !b.lease.TryLock() {
		return nil, errcode.Wrap(errcode.BusInUse, "spibus.TryOpen", b.Owner())
	}
	return b.acquire(owner)
}

func (b *Bus) acquire(owner string) (*Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.lease.Unlock()
		return nil, errcode.Closed
	}
	b.owner = owner
	return &Handle{b: b}, nil
}

// Owner names the current lease holder, or "" when free.
func (b *Bus) Owner() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

// Close waits for the current lease and refuses further ones.
func (b *Bus) Close() error {
	b.lease.Lock()
	defer b.lease.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errcode.Closed
	}
	b.closed = true
	return nil
}

// Handle is a lease on the bus. It implements drivers.SPI.
type Handle struct {
	b    *Bus
	done atomic.Bool
}

var _ drivers.SPI = (*Handle)(nil)

func (h *Handle) Tx(w, r []byte) error {
	if h.done.Load() {
		return errcode.Closed
	}
	return h.b.spi.Tx(w, r)
}

func (h *Handle) Transfer(b byte) (byte, error) {
	if h.done.Load() {
		return 0, errcode.Closed
	}
	return h.b.spi.Transfer(b)
}

// Close releases the bus. Closing twice is errcode.Closed.
func (h *Handle) Close() error {
	if !h.done.CompareAndSwap(false, true) {
		return errcode.Closed
	}
	h.b.mu.Lock()
	h.b.owner = ""
	h.b.mu.Unlock()
	h.b.lease.Unlock()
	return nil
}
