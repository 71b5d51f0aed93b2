package domain

import "time"

// AuditKind categorises security audit events.
type AuditKind string

const (
	AuditPartitionAccess   AuditKind = "partition_access"
	AuditSecurityViolation AuditKind = "security_violation"
	AuditQueryExecution    AuditKind = "query_execution"
)

// AuditEvent records one access decision or security-relevant observation.
// Denials and owner mismatches are always recorded; they never surface to the
// caller as retrieved data.
type AuditEvent struct {
	Kind      AuditKind         `json:"kind"`
	UserID    string            `json:"user_id"`
	Partition string            `json:"partition,omitempty"`
	Action    string            `json:"action"`
	Allowed   bool              `json:"allowed"`
	Details   map[string]string `json:"details,omitempty"`
	At        time.Time         `json:"at"`
}
