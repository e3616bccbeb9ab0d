package usi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type EventType int

const (
	EventUnknown EventType = iota
	EventID
	EventUSIOK
	EventReadyOK
	EventInfo
	EventBestMove
)

// Event is one parsed line of engine output.
type Event struct {
	Type   EventType
	Key    string
	Value  string
	Move   string
	Ponder string
	Raw    string
}

// ParseLine converts a raw engine line into an Event.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, errors.New("empty line")
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "id":
		if len(fields) < 3 {
			return Event{}, fmt.Errorf("invalid id: %q", line)
		}
		return Event{Type: EventID, Key: fields[1], Value: strings.Join(fields[2:], " "), Raw: line}, nil
	case "usiok":
		return Event{Type: EventUSIOK, Raw: line}, nil
	case "readyok":
		return Event{Type: EventReadyOK, Raw: line}, nil
	case "bestmove":
		if len(fields) < 2 {
			return Event{}, fmt.Errorf("invalid bestmove: %q", line)
		}
		e := Event{Type: EventBestMove, Move: fields[1], Raw: line}
		if len(fields) >= 4 && fields[2] == "ponder" {
			e.Ponder = fields[3]
		}
		return e, nil
	case "info":
		return Event{Type: EventInfo, Raw: line}, nil
	default:
		return Event{Type: EventUnknown, Raw: line}, nil
	}
}

// Reader yields Events from engine stdout, skipping blank lines.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next blocks until an event is available or the stream ends with io.EOF.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		if strings.TrimSpace(r.scanner.Text()) == "" {
			continue
		}
		return ParseLine(r.scanner.Text())
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Score is an engine evaluation from the side to move.
type Score struct {
	Kind  string
	Value int
}

func (s Score) String() string {
	switch s.Kind {
	case "cp":
		return fmt.Sprintf("cp %d", s.Value)
	case "mate":
		return fmt.Sprintf("mate %d", s.Value)
	default:
		return "unknown"
	}
}

func parseInfoScore(line string) (Score, bool) {
	fields := strings.Fields(line)
	for i := 0; i+2 < len(fields); i++ {
		if fields[i] != "score" {
			continue
		}
		kind := fields[i+1]
		if kind != "cp" && kind != "mate" {
			return Score{}, false
		}
		value, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return Score{}, false
		}
		return Score{Kind: kind, Value: value}, true
	}
	return Score{}, false
}
