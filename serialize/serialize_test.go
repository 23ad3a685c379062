package serialize

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/tracectx"
)

func sampleRecord() record.Record {
	r := record.New(record.Error, "order-service", "Order created", map[string]any{
		"order_id": "ORD-123",
	})
	r.WallTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tc := tracectx.Root("corr-1", "", nil)
	r.Trace = &tc
	return r
}

func TestJSONSerializeProducesValidJSON(t *testing.T) {
	out := JSON{}.Serialize(sampleRecord())

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got error %v for %s", err, out)
	}
	if decoded["level"] != "ERROR" {
		t.Fatalf("expected level ERROR, got %v", decoded["level"])
	}
	if decoded["message"] != "Order created" {
		t.Fatalf("expected message to round-trip, got %v", decoded["message"])
	}
	if decoded["order_id"] != "ORD-123" {
		t.Fatalf("expected promoted field order_id, got %v", decoded["order_id"])
	}
	if decoded["trace_id"] == nil {
		t.Fatalf("expected trace_id to be present")
	}
}

func TestJSONSerializePreservesNonASCII(t *testing.T) {
	r := record.New(record.Info, "svc", "héllo wörld é", nil)
	s := string(JSON{}.Serialize(r))
	if !strings.Contains(s, "héllo wörld é") {
		t.Fatalf("expected non-ASCII message to be preserved literally, got %s", s)
	}
	if strings.Contains(s, "\\u00e9") {
		t.Fatalf("expected non-ASCII not to be unicode-escaped, got %s", s)
	}
}

func TestJSONSerializeNeverFailsOnUnsupportedFieldType(t *testing.T) {
	type weird struct{ Ch chan int }
	r := record.New(record.Info, "svc", "hi", map[string]any{"w": weird{Ch: make(chan int)}})

	out := JSON{}.Serialize(r)
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("expected degrade-to-string output to still be valid JSON: %v", err)
	}
}

func TestPrettySerializeIncludesFields(t *testing.T) {
	out := Pretty{UseColors: false}.Serialize(sampleRecord())
	s := string(out)
	if !strings.Contains(s, "order_id=ORD-123") {
		t.Fatalf("expected field rendered as key=value, got %s", s)
	}
	if !strings.Contains(s, "Order created") {
		t.Fatalf("expected message present, got %s", s)
	}
}

func TestCompactSerializeHasNoTimestamp(t *testing.T) {
	out := Compact{}.Serialize(sampleRecord())
	s := string(out)
	if strings.Contains(s, "2026-01-02") {
		t.Fatalf("expected compact output to omit timestamp, got %s", s)
	}
	if !strings.HasPrefix(s, "ERROR order-service Order created") {
		t.Fatalf("unexpected compact prefix: %s", s)
	}
}

func TestJSONSerializeExceptionObject(t *testing.T) {
	r := sampleRecord()
	r.Err = &record.Exception{Type: "*errors.errorString", Message: "boom", Stack: "goroutine 1 [running]:"}

	out := JSON{}.Serialize(r)
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	exc, ok := decoded["exception"].(map[string]any)
	if !ok {
		t.Fatalf("expected exception object, got %v", decoded["exception"])
	}
	if exc["message"] != "boom" {
		t.Fatalf("expected exception message boom, got %v", exc["message"])
	}
}
