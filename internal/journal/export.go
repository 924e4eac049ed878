package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region write-jsonl
// WriteJSONL writes events one JSON object per line:
// {type, session_id, event_id, ts (unix millis), payload}.
func WriteJSONL(w io.Writer, events []Event) error {
	for _, ev := range events {
		line, err := encodeLine(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
	}
	return nil
}

func encodeLine(ev Event) ([]byte, error) {
	payload := structpb.NewNullValue()
	if len(ev.Payload) > 0 {
		var v any
		if err := json.Unmarshal(ev.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode event %d payload: %w", ev.Seq, err)
		}
		pv, err := structpb.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("convert event %d payload: %w", ev.Seq, err)
		}
		payload = pv
	}

	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":       structpb.NewStringValue(ev.Type),
		"session_id": structpb.NewStringValue(ev.SessionID),
		"event_id":   structpb.NewNumberValue(float64(ev.Seq)),
		"ts":         structpb.NewNumberValue(float64(ev.At.UnixMilli())),
		"payload":    payload,
	}}
	line, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal event %d: %w", ev.Seq, err)
	}
	return line, nil
}

// #endregion write-jsonl

// #region read-jsonl
// ReadJSONL parses what WriteJSONL wrote. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var events []Event
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var s structpb.Struct
		if err := protojson.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ev, err := decodeStruct(&s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return events, nil
}

func decodeStruct(s *structpb.Struct) (Event, error) {
	f := s.GetFields()
	ev := Event{
		Type:      f["type"].GetStringValue(),
		SessionID: f["session_id"].GetStringValue(),
		Seq:       int64(f["event_id"].GetNumberValue()),
		At:        time.UnixMilli(int64(f["ts"].GetNumberValue())).UTC(),
	}
	if ev.Type == "" {
		return Event{}, errors.New("event without type")
	}
	if p, ok := f["payload"]; ok {
		if _, isNull := p.GetKind().(*structpb.Value_NullValue); !isNull {
			raw, err := json.Marshal(p.AsInterface())
			if err != nil {
				return Event{}, fmt.Errorf("encode payload: %w", err)
			}
			ev.Payload = raw
		}
	}
	return ev, nil
}

// #endregion read-jsonl
