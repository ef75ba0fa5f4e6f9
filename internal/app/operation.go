package app

import (
	"encoding/json"
	"time"

	"merovingian/internal/contract"
)

// Operation is the audit record of one CLI invocation. It starts out
// successful with an empty summary; app methods fill in the outcome and
// Close writes it to the audit log.
type Operation struct {
	Tool    string
	Params  map[string]any
	Summary string
	Status  string // "success" or "error"
}

// NewOperation creates an in-memory operation record for tool.
func NewOperation(tool string, params map[string]any) *Operation {
	return &Operation{
		Tool:   tool,
		Params: params,
		Status: "success",
	}
}

// Succeed records the result summary of a successful operation.
func (op *Operation) Succeed(summary string) {
	op.Status = "success"
	op.Summary = summary
}

// Fail marks the operation as failed with err as its summary.
func (op *Operation) Fail(err error) {
	op.Status = "error"
	op.Summary = err.Error()
}

// Entry converts the operation into an audit log entry stamped with now.
func (op *Operation) Entry(now time.Time) contract.AuditEntry {
	params := "{}"
	if len(op.Params) > 0 {
		if data, err := json.Marshal(op.Params); err == nil {
			params = string(data)
		}
	}

	summary := op.Summary
	if op.Status == "error" {
		summary = "error: " + summary
	}

	return contract.AuditEntry{
		ToolName:      op.Tool,
		Parameters:    params,
		ResultSummary: summary,
		CreatedAt:     now,
	}
}
