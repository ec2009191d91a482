package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyDocumentID  = "document_id"
	KeyStage       = "stage"
	KeyFormat      = "format"
	KeyDurationMS  = "duration_ms"
	KeySchedule    = "schedule_name"
	KeySection     = "section"
	KeyPath        = "path"
	KeyDiagnostics = "diagnostics"
	KeyKind        = "kind"
	KeyStatus      = "status"
	KeyMethod      = "method"
	KeyRemoteAddr  = "remote_addr"
	KeyURL         = "url"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func DocumentID(id string) slog.Attr   { return slog.String(KeyDocumentID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Format(f string) slog.Attr        { return slog.String(KeyFormat, f) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr  { return slog.String(KeySchedule, n) }
func Section(s string) slog.Attr       { return slog.String(KeySection, s) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Diagnostics(n int) slog.Attr      { return slog.Int(KeyDiagnostics, n) }
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
