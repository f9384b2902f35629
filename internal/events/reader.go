// Package events reads recorded collision events for offline filter runs.
//
// The on-disk format is JSON lines: one event object per line, carrying the
// event coordinates and the reconstructed jets of one collection.
package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/jetfilter/internal/jets"
)

// maxLineBytes bounds one encoded event. High-multiplicity events with a few
// hundred jets stay well below it.
const maxLineBytes = 4 * 1024 * 1024

// Event is one collision event.
type Event struct {
	Run   uint32     `json:"run"`
	Lumi  uint32     `json:"lumi"`
	Event uint64     `json:"event"`
	Tag   string     `json:"tag,omitempty"`
	Jets  []jets.Jet `json:"jets"`
}

// ID returns the run:lumi:event coordinate string.
func (e Event) ID() string {
	return fmt.Sprintf("%d:%d:%d", e.Run, e.Lumi, e.Event)
}

// Collection returns the event's jets as a collection. defaultTag is used
// when the event does not name its own input tag.
func (e Event) Collection(defaultTag string) jets.Collection {
	tag := e.Tag
	if tag == "" {
		tag = defaultTag
	}
	return jets.Collection{Tag: tag, Jets: e.Jets}
}

// Reader decodes events from a JSON-lines stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scanner: s}
}

// Next returns the next event. It returns io.EOF once the stream is
// exhausted. Blank lines are skipped.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return Event{}, fmt.Errorf("line %d: failed to parse event: %w", r.line, err)
		}
		return ev, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return Event{}, io.EOF
}

// ReadAll decodes every remaining event.
func (r *Reader) ReadAll() ([]Event, error) {
	var out []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}

// ReadFile decodes every event in the file at path.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

// Write encodes events as JSON lines.
func Write(w io.Writer, evs []Event) error {
	enc := json.NewEncoder(w)
	for _, ev := range evs {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode event %s: %w", ev.ID(), err)
		}
	}
	return nil
}
