package models

// -----------------------------------------------------------------------------
// Log Events for the telemetry ring
// -----------------------------------------------------------------------------

type Severity string

const (
	SevInfo Severity = "INFO"
	SevReq  Severity = "REQ"
	SevOK   Severity = "OK"
	SevFail Severity = "FAIL"
	SevWarn Severity = "WARN"
	SevErr  Severity = "ERR"
)

type MLogEvent struct {
	Timestamp int64    `json:"timestamp"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}
