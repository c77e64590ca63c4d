// Package status reduces the state observed from the replica set and the backup tool
// into a model.UnitStatus.
package status

import (
	"context"
	"errors"
	"github.com/gatici/mongodb-operator/model"
	"github.com/sirupsen/logrus"
)

var statusLog = logrus.WithField("module", "status")

// Recognised connection failures. Connection implementations wrap them.
var (
	// no reachable server or server selection timed out, usually while the replica set elects a primary
	ErrNoPrimary = errors.New("no primary available")
	// the connection was lost and the driver will reconnect
	ErrReconnecting = errors.New("connection lost, reconnect pending")
)

// Connection to the replica set a node is a member of.
type Connection interface {
	// ReplicaSetStatus maps the address of every member to the state it reports.
	ReplicaSetStatus(ctx context.Context) (map[string]model.MemberState, error)
	Close()
}

type Dialer interface {
	Dial(ctx context.Context) (Connection, error)
}
