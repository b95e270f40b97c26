// Package conv formats numbers into caller-owned buffers without fmt or
// strconv, for trace records built on the MCU.
package conv

const hexd = "0123456789ABCDEF"

// AppendHex8 appends "0xNN" (uppercase, zero-padded) to dst.
func AppendHex8(dst []byte, b byte) []byte {
	return append(dst, '0', 'x', hexd[b>>4], hexd[b&0xF])
}

// AppendUint appends the decimal form of n to dst.
func AppendUint(dst []byte, n uint32) []byte {
	var d [10]byte
	i := len(d)
	for {
		i--
		d[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, d[i:]...)
}
