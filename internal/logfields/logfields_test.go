package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "123", BuildID("123")},
		{"DocumentID", KeyDocumentID, "DOC-1", DocumentID("DOC-1")},
		{"Stage", KeyStage, "compile", Stage("compile")},
		{"Format", KeyFormat, "latex", Format("latex")},
		{"ScheduleName", KeySchedule, "nightly", ScheduleName("nightly")},
		{"Section", KeySection, "Introducción", Section("Introducción")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Kind", KeyKind, "UnresolvedReference", Kind("UnresolvedReference")},
		{"Status", KeyStatus, "success", Status("success")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"URL", KeyURL, "nats://localhost:4222", URL("nats://localhost:4222")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if a := Diagnostics(3); a.Key != KeyDiagnostics || a.Value.Int64() != 3 {
		t.Fatalf("unexpected diagnostics attr: %v", a)
	}
	if a := DurationMS(1.5); a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should render empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", a)
	}
}
