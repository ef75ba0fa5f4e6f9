package contract

import (
	"encoding/json"
	"fmt"
	"time"
)

// MethodSchema is the method used for endpoints derived from source-level model
// definitions rather than HTTP operations.
const MethodSchema = "SCHEMA"

// ContractType identifies how a repository exposes its contract.
// The zero value means "unknown": both extractors are tried.
type ContractType string

const (
	ContractTypeAuto     ContractType = ""
	ContractTypeOpenAPI  ContractType = "openapi"
	ContractTypePydantic ContractType = "pydantic"
)

// ParseContractType validates a user-supplied contract type.
// An empty string yields ContractTypeAuto.
func ParseContractType(s string) (ContractType, error) {
	switch ContractType(s) {
	case ContractTypeAuto, ContractTypeOpenAPI, ContractTypePydantic:
		return ContractType(s), nil
	default:
		return "", fmt.Errorf("unknown contract type %q (want openapi or pydantic)", s)
	}
}

// String returns "auto" for the zero value.
func (t ContractType) String() string {
	if t == ContractTypeAuto {
		return "auto"
	}
	return string(t)
}

// ChangeKind is the type of change detected in a contract diff.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
	ChangeRenamed  ChangeKind = "renamed"
)

// Severity is the impact level of a detected change.
type Severity string

const (
	SeverityBreaking Severity = "breaking"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// RepoInfo is a registered repository.
type RepoInfo struct {
	Name         string
	Path         string
	ContractType ContractType
	RegisteredAt time.Time
}

// FieldDescriptor describes one field of a flattened schema.
// Type is a free-form tag: JSON schema types ("integer") and Python
// annotations ("list[str]") share the same field.
type FieldDescriptor struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  any    `json:"default"`
}

// FieldTable maps field names to their descriptors.
type FieldTable map[string]FieldDescriptor

// Encode serializes the table as JSON. encoding/json sorts map keys, so the
// output is deterministic. An empty table encodes to "".
func (t FieldTable) Encode() string {
	if len(t) == 0 {
		return ""
	}
	data, err := json.Marshal(t)
	if err != nil {
		// Extractors only store JSON-safe defaults.
		return ""
	}
	return string(data)
}

// DecodeFieldTable parses a serialized field table. Empty or malformed input
// yields an empty table.
func DecodeFieldTable(s string) FieldTable {
	if s == "" {
		return FieldTable{}
	}
	var t FieldTable
	if err := json.Unmarshal([]byte(s), &t); err != nil || t == nil {
		return FieldTable{}
	}
	return t
}

// Endpoint is a normalized contract unit: an HTTP operation or a model definition.
// RequestSchema and ResponseSchema hold encoded FieldTables; "" means absent.
type Endpoint struct {
	RepoName       string `json:"repo_name"`
	Method         string `json:"method"`
	Path           string `json:"path"`
	Summary        string `json:"summary,omitempty"`
	RequestSchema  string `json:"request_schema,omitempty"`
	ResponseSchema string `json:"response_schema,omitempty"`
}

// EndpointKey identifies an endpoint within one repository.
type EndpointKey struct {
	Method string
	Path   string
}

func (k EndpointKey) String() string {
	return k.Method + " " + k.Path
}

// Key returns the (method, path) identity of the endpoint.
func (e Endpoint) Key() EndpointKey {
	return EndpointKey{Method: e.Method, Path: e.Path}
}

// Consumer is a registered dependency of one repository on a specific
// endpoint of another.
type Consumer struct {
	ConsumerRepo   string
	ProducerRepo   string
	EndpointMethod string
	EndpointPath   string
	RegisteredAt   time.Time
}

// ContractVersion is an immutable snapshot of a repository's endpoint set.
type ContractVersion struct {
	RepoName   string     `json:"repo_name"`
	VersionID  string     `json:"version_id"`
	SpecHash   string     `json:"spec_hash"`
	Endpoints  []Endpoint `json:"endpoints"`
	CapturedAt time.Time  `json:"captured_at"`
}

// ContractChange is one detected delta between two endpoint sets.
// AffectedConsumers is filled in after diffing, from registered Consumer edges.
type ContractChange struct {
	RepoName          string     `json:"repo_name"`
	EndpointMethod    string     `json:"endpoint_method"`
	EndpointPath      string     `json:"endpoint_path"`
	Kind              ChangeKind `json:"change_kind"`
	Severity          Severity   `json:"severity"`
	Description       string     `json:"description"`
	AffectedConsumers []string   `json:"affected_consumers"`
}

// ImpactReport aggregates the result of one impact assessment.
type ImpactReport struct {
	ReportID           string
	RepoName           string
	BreakingChanges    []ContractChange
	NonBreakingChanges []ContractChange
	ConsumerCount      int
	CreatedAt          time.Time
}

// TargetType says what a piece of feedback refers to.
type TargetType string

const (
	TargetReport TargetType = "report"
	TargetChange TargetType = "change"
)

// FeedbackOutcome records how a reviewer judged a report or change.
type FeedbackOutcome string

const (
	OutcomeAccepted FeedbackOutcome = "accepted"
	OutcomeRejected FeedbackOutcome = "rejected"
	OutcomeModified FeedbackOutcome = "modified"
)

// ParseFeedback validates target type and outcome strings.
func ParseFeedback(target, outcome string) (TargetType, FeedbackOutcome, error) {
	tt := TargetType(target)
	if tt != TargetReport && tt != TargetChange {
		return "", "", fmt.Errorf("unknown feedback target %q (want report or change)", target)
	}
	fo := FeedbackOutcome(outcome)
	if fo != OutcomeAccepted && fo != OutcomeRejected && fo != OutcomeModified {
		return "", "", fmt.Errorf("unknown feedback outcome %q (want accepted, rejected or modified)", outcome)
	}
	return tt, fo, nil
}

// Feedback is a reviewer's verdict on a report or change.
type Feedback struct {
	TargetID   string
	TargetType TargetType
	Outcome    FeedbackOutcome
	Context    string
	CreatedAt  time.Time
}

// AuditEntry records one invocation of a user-facing operation.
type AuditEntry struct {
	ToolName      string
	Parameters    string // JSON object
	ResultSummary string
	CreatedAt     time.Time
}

// ConsumerFilter narrows ListConsumers. Empty fields match everything.
type ConsumerFilter struct {
	ProducerRepo string
	Method       string
	Path         string
}

// GraphNode holds the edges of one repository in the dependency graph.
type GraphNode struct {
	DependsOn  []string
	DependedBy []string
}
