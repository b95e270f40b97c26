// Package ring provides a fixed-capacity single-producer single-consumer
// byte ring for ISR/foreground hand-off.
//
// The producer only advances wr and the consumer only advances rd, so one
// side may run in an interrupt handler while the other runs in the main loop
// without a lock. Storage has one slot more than the capacity to tell full
// from empty, which makes capacity 0 legal: such a ring is always empty and
// always full.
package ring

import "sync/atomic"

type Ring struct {
	buf []byte
	rd  atomic.Uint32 // consumer index, 0..len(buf)-1
	wr  atomic.Uint32 // producer index, 0..len(buf)-1
}

// New returns a ring holding up to capacity bytes. Negative capacities are
// treated as zero.
func New(capacity int) *Ring {
	if capacity < 0 {
		capacity = 0
	}
	return &Ring{buf: make([]byte, capacity+1)}
}

func (r *Ring) next(i uint32) uint32 {
	i++
	if i == uint32(len(r.buf)) {
		return 0
	}
	return i
}

// Cap is the number of bytes the ring can hold.
func (r *Ring) Cap() int { return len(r.buf) - 1 }

// Len is the number of queued bytes.
func (r *Ring) Len() int {
	rd, wr := r.rd.Load(), r.wr.Load()
	if wr >= rd {
		return int(wr - rd)
	}
	return len(r.buf) - int(rd-wr)
}

// Space is the number of free slots.
func (r *Ring) Space() int { return r.Cap() - r.Len() }

func (r *Ring) IsEmpty() bool { return r.rd.Load() == r.wr.Load() }

func (r *Ring) IsFull() bool { return r.next(r.wr.Load()) == r.rd.Load() }

// ---- producer ----

// Push appends b, reporting false when the ring is full.
func (r *Ring) Push(b byte) bool {
	wr := r.wr.Load()
	n := r.next(wr)
	if n == r.rd.Load() {
		return false
	}
	r.buf[wr] = b
	r.wr.Store(n) // publish
	return true
}

// WriteFrom pushes as much of src as fits and returns the count.
func (r *Ring) WriteFrom(src []byte) (n int) {
	for _, b := range src {
		if !r.Push(b) {
			break
		}
		n++
	}
	return n
}

// ---- consumer ----

// Pop removes the oldest byte.
func (r *Ring) Pop() (byte, bool) {
	rd := r.rd.Load()
	if rd == r.wr.Load() {
		return 0, false
	}
	b := r.buf[rd]
	r.rd.Store(r.next(rd)) // release slot
	return b, true
}

// Peek returns the oldest byte without removing it.
func (r *Ring) Peek() (byte, bool) {
	rd := r.rd.Load()
	if rd == r.wr.Load() {
		return 0, false
	}
	return r.buf[rd], true
}

// ReadInto pops up to len(dst) bytes into dst.
func (r *Ring) ReadInto(dst []byte) (n int) {
	for n < len(dst) {
		b, ok := r.Pop()
		if !ok {
			break
		}
		dst[n] = b
		n++
	}
	return n
}

// Discard drops everything queued. Consumer side only.
func (r *Ring) Discard() { r.rd.Store(r.wr.Load()) }
