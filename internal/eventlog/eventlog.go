// Package eventlog is the persistent flight event log: an append-only
// file of compact msgpack records for errors, events, and executed
// mission commands, parsed offline after a flight. Writes never fail
// upward; a sick filesystem must not take the control loop with it.
package eventlog

import (
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
)

type RecordType uint8

const (
	RecordError RecordType = iota + 1
	RecordEvent
	RecordCommand
)

// Record is one log entry. Command records carry the command fields,
// error records the subsystem/code pair, event records just the code.
type Record struct {
	TimeMs uint32     `msgpack:"t"`
	Type   RecordType `msgpack:"y"`

	Subsystem uint8 `msgpack:"s,omitempty"`
	Code      uint8 `msgpack:"c,omitempty"`

	CmdKind  uint8   `msgpack:"k,omitempty"`
	CmdIndex int     `msgpack:"i,omitempty"`
	Param1   float32 `msgpack:"p,omitempty"`
	Lat      float64 `msgpack:"la,omitempty"`
	Lng      float64 `msgpack:"lo,omitempty"`
	AltCm    int32   `msgpack:"a,omitempty"`
}

// Writer appends records to a file. It implements core.EventLog.
type Writer struct {
	f     *os.File
	enc   *msgpack.Encoder
	clock core.Clock
	log   *flightlog.Logger
}

func NewWriter(path string, clock core.Clock, log *flightlog.Logger) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, enc: msgpack.NewEncoder(f), clock: clock, log: log}, nil
}

func (w *Writer) Close() error { return w.f.Close() }

func (w *Writer) LogError(sub core.Subsystem, code core.ErrorCode) {
	w.append(Record{
		Type:      RecordError,
		Subsystem: uint8(sub),
		Code:      uint8(code),
	})
}

func (w *Writer) LogEvent(code core.EventCode) {
	w.append(Record{
		Type: RecordEvent,
		Code: uint8(code),
	})
}

func (w *Writer) LogCommand(cmd core.MissionCommand) {
	w.append(Record{
		Type:     RecordCommand,
		CmdKind:  uint8(cmd.Kind),
		CmdIndex: cmd.Index,
		Param1:   cmd.Param1,
		Lat:      cmd.Location.Lat,
		Lng:      cmd.Location.Lng,
		AltCm:    cmd.Location.AltCm,
	})
}

func (w *Writer) append(rec Record) {
	rec.TimeMs = w.clock.Millis()
	if err := w.enc.Encode(rec); err != nil {
		w.log.Errorf("eventlog: write failed: %v", err)
	}
}

// ReadAll decodes every record in the stream, for post-flight analysis
// and tests.
func ReadAll(r io.Reader) ([]Record, error) {
	dec := msgpack.NewDecoder(r)
	var out []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, rec)
	}
}
