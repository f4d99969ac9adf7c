package debug

import (
	"fmt"
	"io"
	"sync"

	"gochip8/internal/cpu"

	"github.com/retroenv/retrogolib/log"
)

// DefaultHistorySize is the number of recent instructions kept by a Tracer
const DefaultHistorySize = 32

// Tracer records executed instructions. It keeps a ring buffer of the
// most recent instructions for post-mortem output and can additionally
// log every instruction or write it to a stream.
type Tracer struct {
	mu      sync.Mutex
	history []traceEntry
	next    int
	full    bool
	count   uint64

	logger *log.Logger // logs every instruction at debug level when set
	out    io.Writer   // receives every instruction when set
}

// traceEntry is a recorded instruction, disassembled on demand
type traceEntry struct {
	pc     uint16
	opcode uint16
}

// NewTracer creates a tracer keeping the last size instructions
func NewTracer(size int) *Tracer {
	if size < 1 {
		size = DefaultHistorySize
	}
	return &Tracer{history: make([]traceEntry, size)}
}

// SetLogger enables logging of every traced instruction
func (t *Tracer) SetLogger(logger *log.Logger) {
	t.logger = logger
}

// SetOutput enables writing of every traced instruction to w
func (t *Tracer) SetOutput(w io.Writer) {
	t.out = w
}

// Trace records an instruction. Its signature matches cpu.WithTracer.
func (t *Tracer) Trace(pc uint16, ins cpu.Instruction) {
	t.mu.Lock()
	t.history[t.next] = traceEntry{pc: pc, opcode: ins.Raw}
	t.next = (t.next + 1) % len(t.history)
	if t.next == 0 {
		t.full = true
	}
	t.count++
	t.mu.Unlock()

	if t.logger == nil && t.out == nil {
		return
	}
	line := DisassembleWord(pc, ins.Raw)
	if t.logger != nil {
		t.logger.Debug("Execute",
			log.Hex("pc", pc),
			log.Hex("opcode", ins.Raw),
			log.String("instruction", line.Text()))
	}
	if t.out != nil {
		_, _ = fmt.Fprintln(t.out, line.String())
	}
}

// Count returns the number of traced instructions
func (t *Tracer) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Recent returns the recorded instructions, oldest first
func (t *Tracer) Recent() []Line {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.history[:t.next]
	if t.full {
		entries = append(append([]traceEntry(nil), t.history[t.next:]...), t.history[:t.next]...)
	}

	lines := make([]Line, len(entries))
	for i, e := range entries {
		lines[i] = DisassembleWord(e.pc, e.opcode)
	}
	return lines
}

// Reset forgets all recorded instructions
func (t *Tracer) Reset() {
	t.mu.Lock()
	t.next = 0
	t.full = false
	t.count = 0
	t.mu.Unlock()
}
