package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// ISO8601Format is the time format used for journal event timestamps.
const ISO8601Format = time.RFC3339Nano

// eventAlias drops Event's methods so the codecs below can reuse the struct tags.
type eventAlias Event

type eventWire struct {
	Timestamp string `json:"timestamp"`
	*eventAlias
}

// MarshalJSON writes the timestamp in UTC; empty optional fields are omitted.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventWire{
		Timestamp:  e.Timestamp.UTC().Format(ISO8601Format),
		eventAlias: (*eventAlias)(&e),
	})
}

// UnmarshalJSON implements json.Unmarshaler for Event.
func (e *Event) UnmarshalJSON(data []byte) error {
	wire := eventWire{eventAlias: (*eventAlias)(e)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	t, err := time.Parse(ISO8601Format, wire.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid event timestamp %q: %w", wire.Timestamp, err)
	}
	e.Timestamp = t
	return nil
}

// UnmarshalJSONLine decodes one journal line.
func UnmarshalJSONLine(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
