package jsontime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMilli_MarshalJSON(t *testing.T) {
	tm := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(Milli(tm))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var got int64
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal result error: %v", err)
	}
	if got != tm.UnixMilli() {
		t.Errorf("MarshalJSON = %d; want %d", got, tm.UnixMilli())
	}
}

func TestMilli_UnmarshalJSON(t *testing.T) {
	ms := int64(1748779200000)
	data, _ := json.Marshal(ms)

	var m Milli
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !m.Time().Equal(time.UnixMilli(ms)) {
		t.Errorf("UnmarshalJSON = %v; want %v", m.Time(), time.UnixMilli(ms))
	}
}

func TestMilli_UnmarshalNull(t *testing.T) {
	var m Milli
	if err := json.Unmarshal([]byte("null"), &m); err != nil {
		t.Fatalf("Unmarshal null error: %v", err)
	}
	if !m.IsZero() {
		t.Errorf("null should leave zero value, got %v", m.Time())
	}
}

func TestMilli_RoundTrip(t *testing.T) {
	orig := Now()
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var restored Milli
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	// Sub-millisecond precision is lost on the wire.
	if restored.Time().UnixMilli() != orig.Time().UnixMilli() {
		t.Errorf("round trip: got %v, want %v", restored, orig)
	}
}
