package types

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

func (p Parity) Valid() bool { return p <= ParityOdd }

type StopBits uint8

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

func (s StopBits) Valid() bool { return s == StopBits1 || s == StopBits2 }

// BaudRate is one of the supported line rates. The zero value is invalid.
type BaudRate uint8

const (
	B1200 BaudRate = iota + 1
	B2400
	B4800
	B9600
	B19200
	B38400
	B57600
	B115200
	B230400
	B460800
	B500000
	B1000000
)

var baudHz = [...]uint32{
	B1200:    1200,
	B2400:    2400,
	B4800:    4800,
	B9600:    9600,
	B19200:   19200,
	B38400:   38400,
	B57600:   57600,
	B115200:  115200,
	B230400:  230400,
	B460800:  460800,
	B500000:  500000,
	B1000000: 1000000,
}

// Hz returns the nominal bit rate, or 0 for an unknown value.
func (b BaudRate) Hz() uint32 {
	if int(b) >= len(baudHz) {
		return 0
	}
	return baudHz[b]
}

func (b BaudRate) Valid() bool { return b.Hz() != 0 }

// UARTConfig is fixed for a driver's lifetime. Eight data bits are implied.
type UARTConfig struct {
	Baud     BaudRate
	Parity   Parity
	StopBits StopBits
}
