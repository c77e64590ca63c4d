package model

import "fmt"

type MemberStateKind uint

const (
	_                                       = 0
	MemberStateUnknown      MemberStateKind = iota
	MemberStatePrimary
	MemberStateSecondary
	MemberStateStarting
	MemberStateRollback
	MemberStateRecovering
	MemberStateRemoved
)

// MemberState is the state a replica set member reports about itself.
// Raw holds the string reported by the server, also for unknown states.
type MemberState struct {
	Kind MemberStateKind
	Raw  string
}

func ParseMemberState(raw string) MemberState {
	var kind MemberStateKind
	switch raw {
	case "PRIMARY":
		kind = MemberStatePrimary
	case "SECONDARY":
		kind = MemberStateSecondary
	case "STARTUP", "STARTUP2":
		kind = MemberStateStarting
	case "ROLLBACK":
		kind = MemberStateRollback
	case "RECOVERING":
		kind = MemberStateRecovering
	case "REMOVED":
		kind = MemberStateRemoved
	default:
		kind = MemberStateUnknown
	}
	return MemberState{Kind: kind, Raw: raw}
}

func (s MemberState) String() string {
	return s.Raw
}

type UnitStatusKind string

const (
	UnitStatusActive      UnitStatusKind = "active"
	UnitStatusWaiting     UnitStatusKind = "waiting"
	UnitStatusBlocked     UnitStatusKind = "blocked"
	UnitStatusMaintenance UnitStatusKind = "maintenance"
)

var UnitStatusKinds = []UnitStatusKind{UnitStatusActive, UnitStatusWaiting, UnitStatusBlocked, UnitStatusMaintenance}

func (k UnitStatusKind) Valid() bool {
	switch k {
	case UnitStatusActive, UnitStatusWaiting, UnitStatusBlocked, UnitStatusMaintenance:
		return true
	default:
		return false
	}
}

// UnitStatus is the single status vocabulary reported for a node.
type UnitStatus struct {
	Kind    UnitStatusKind `json:"status"`
	Message string         `json:"message"`
}

func Active(message string) UnitStatus {
	return UnitStatus{Kind: UnitStatusActive, Message: message}
}

func Waiting(reason string) UnitStatus {
	return UnitStatus{Kind: UnitStatusWaiting, Message: reason}
}

func Blocked(reason string) UnitStatus {
	return UnitStatus{Kind: UnitStatusBlocked, Message: reason}
}

func Maintenance(message string) UnitStatus {
	return UnitStatus{Kind: UnitStatusMaintenance, Message: message}
}

func (s UnitStatus) String() string {
	if s.Message == "" {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}

type BackupOperationKind string

const (
	BackupOperationNone    BackupOperationKind = ""
	BackupOperationBackup  BackupOperationKind = "backup"
	BackupOperationRestore BackupOperationKind = "restore"
	BackupOperationResync  BackupOperationKind = "resync"
)

// BackupOperation is the operation the backup tool is currently running.
// Kind holds the raw type reported by the tool when it is none of the known kinds.
type BackupOperation struct {
	Kind BackupOperationKind
	ID   string
}

func (o BackupOperation) Running() bool {
	return o.Kind != BackupOperationNone
}
