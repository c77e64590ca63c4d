package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gatici/mongodb-operator/model"
)

var ErrMalformedPayload = errors.New("malformed backup status payload")

const MessageWaitingForResync = "waiting to sync remote-storage configuration"

type BackupStatusResolver struct{}

// ParseBackupOperation returns the operation listed in the `running` field of the
// backup tool status payload.
//
// An absent, null or empty `running` field means no operation is running.
// A non-empty `running` field without a `type` is malformed.
func ParseBackupOperation(payload string) (model.BackupOperation, error) {

	var status map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		return model.BackupOperation{}, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}

	running, exists := status["running"]
	if !exists || string(running) == "null" {
		return model.BackupOperation{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(running, &fields); err != nil {
		return model.BackupOperation{}, fmt.Errorf("%w: `running` is not an object: %s", ErrMalformedPayload, err)
	}
	if len(fields) == 0 {
		return model.BackupOperation{}, nil
	}

	var operation struct {
		Type *string `json:"type"`
		Name string  `json:"name"`
	}
	if err := json.Unmarshal(running, &operation); err != nil {
		return model.BackupOperation{}, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}
	if operation.Type == nil || *operation.Type == "" {
		return model.BackupOperation{}, fmt.Errorf("%w: running operation has no `type`", ErrMalformedPayload)
	}

	return model.BackupOperation{
		Kind: model.BackupOperationKind(*operation.Type),
		ID:   operation.Name,
	}, nil
}

// Resolve returns the unit status for the backup tool status payload.
// A malformed payload is an error, the status is never guessed.
func (r BackupStatusResolver) Resolve(payload string) (model.UnitStatus, error) {
	operation, err := ParseBackupOperation(payload)
	if err != nil {
		return model.UnitStatus{}, err
	}
	return OperationStatus(operation), nil
}

func OperationStatus(operation model.BackupOperation) model.UnitStatus {
	if !operation.Running() {
		return model.Active("")
	}
	switch operation.Kind {
	case model.BackupOperationBackup:
		return model.Maintenance(fmt.Sprintf("backup started/running, backup id:'%s'", operation.ID))
	case model.BackupOperationRestore:
		return model.Maintenance(fmt.Sprintf("restore started/running, backup id:'%s'", operation.ID))
	case model.BackupOperationResync:
		return model.Waiting(MessageWaitingForResync)
	default:
		return model.Active("")
	}
}
