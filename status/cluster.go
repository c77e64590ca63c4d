package status

import (
	"context"
	"errors"
	"github.com/gatici/mongodb-operator/model"
)

const (
	MessagePrimary              = "primary"
	MessageMemberBeingAdded     = "member being added"
	MessageMemberSyncing        = "member is syncing"
	MessageMemberRemoving       = "member is removing"
	MessageWaitingForReelection = "waiting for primary re-election"
	MessageWaitingToReconnect   = "waiting to reconnect to unit"
)

type ClusterStatusResolver struct {
	Dialer Dialer
}

// Resolve returns the status of the member at selfAddress.
//
// Elections and reconnects are expected and result in a waiting status.
// Every other connection or query failure is returned as error.
func (r *ClusterStatusResolver) Resolve(ctx context.Context, selfAddress string) (model.UnitStatus, error) {

	members, err := r.replicaSetStatus(ctx)
	switch {
	case errors.Is(err, ErrNoPrimary):
		statusLog.WithError(err).Debug("no primary while checking replica set status")
		return model.Waiting(MessageWaitingForReelection), nil
	case errors.Is(err, ErrReconnecting):
		statusLog.WithError(err).Debug("connection lost while checking replica set status")
		return model.Waiting(MessageWaitingToReconnect), nil
	case err != nil:
		return model.UnitStatus{}, err
	}

	state, exists := members[selfAddress]
	if !exists {
		return model.Waiting(MessageMemberBeingAdded), nil
	}
	return MemberStatus(state), nil
}

func (r *ClusterStatusResolver) replicaSetStatus(ctx context.Context) (map[string]model.MemberState, error) {
	conn, err := r.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.ReplicaSetStatus(ctx)
}

// MemberStatus maps the state of a member to a unit status.
// States this package does not know block the unit with the raw state as reason.
func MemberStatus(state model.MemberState) model.UnitStatus {
	switch state.Kind {
	case model.MemberStatePrimary:
		return model.Active(MessagePrimary)
	case model.MemberStateSecondary:
		return model.Active("")
	case model.MemberStateStarting, model.MemberStateRollback, model.MemberStateRecovering:
		return model.Waiting(MessageMemberSyncing)
	case model.MemberStateRemoved:
		return model.Waiting(MessageMemberRemoving)
	default:
		return model.Blocked(state.Raw)
	}
}
