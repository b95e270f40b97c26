// Package trace is a small leveled logger for targets without a logging
// stack. Records are handed synchronously to one Output; nothing is queued
// beyond what the output's transport buffers.
package trace

type Level uint8

const (
	Debug Level = iota
	Info
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "Debug"
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	}
	return "Unknown"
}

// Output renders one record. msg is only valid for the duration of the call.
type Output interface {
	Emit(l Level, msg []byte)
}

type Trace struct {
	out       Output
	threshold Level
}

// New returns a Trace that drops records below threshold.
func New(out Output, threshold Level) *Trace {
	return &Trace{out: out, threshold: threshold}
}

func (t *Trace) Enabled(l Level) bool { return l >= t.threshold }

func (t *Trace) SetThreshold(l Level) { t.threshold = l }

// Emit writes msg at level l.
func (t *Trace) Emit(l Level, msg []byte) {
	if !t.Enabled(l) {
		return
	}
	t.out.Emit(l, msg)
}

func (t *Trace) Print(l Level, msg string) {
	if !t.Enabled(l) {
		return
	}
	t.out.Emit(l, []byte(msg))
}

func (t *Trace) Debug(msg string)   { t.Print(Debug, msg) }
func (t *Trace) Info(msg string)    { t.Print(Info, msg) }
func (t *Trace) Warning(msg string) { t.Print(Warning, msg) }
func (t *Trace) Error(msg string)   { t.Print(Error, msg) }
