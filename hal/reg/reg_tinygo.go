//go:build tinygo

package reg

import "runtime/volatile"

// Device register pointers are usable as-is.
var _ Reg8 = (*volatile.Register8)(nil)
