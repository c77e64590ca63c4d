package status

import (
	"context"
	"errors"
	"fmt"
	"github.com/gatici/mongodb-operator/model"
	"gopkg.in/mgo.v2"
	"io"
	"net"
	"strings"
	"time"
)

const mongodbAdminDatabase string = "admin"

const defaultConnectTimeout = 4 * time.Second

// server error codes after which the driver reconnects to the new primary
var reconnectErrorCodes = map[int]bool{
	91:    true, // ShutdownInProgress
	189:   true, // PrimarySteppedDown
	10107: true, // NotWritablePrimary
	11600: true, // InterruptedAtShutdown
	11602: true, // InterruptedDueToReplStateChange
	13435: true, // NotPrimaryNoSecondaryOk
	13436: true, // NotPrimaryOrSecondary
}

// MgoDialer connects to a replica set with mgo.
type MgoDialer struct {
	Addrs          []string
	ReplicaSetName string
	// connect to Addrs only instead of discovering the replica set
	Direct   bool
	Username string
	Password string
	Timeout  time.Duration
}

type mgoConnection struct {
	session *mgo.Session
	// socket timeout set by Dial
	timeout time.Duration
}

type replSetStatusMember struct {
	Name     string `bson:"name"`
	StateStr string `bson:"stateStr"`
}

type replSetStatus struct {
	Set     string                `bson:"set"`
	Members []replSetStatusMember `bson:"members"`
}

func (d *MgoDialer) Dial(ctx context.Context) (Connection, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	mgo.SetDebug(false)

	info := &mgo.DialInfo{
		Addrs:          d.Addrs,
		Direct:         d.Direct,
		ReplicaSetName: d.ReplicaSetName,
		Timeout:        timeout,
		Database:       mongodbAdminDatabase,
		Username:       d.Username,
		Password:       d.Password,
	}
	if d.Username != "" {
		info.Source = mongodbAdminDatabase
	}

	sess, err := mgo.DialWithInfo(info)
	if err != nil {
		return nil, fmt.Errorf("connecting to `%s` failed: %w", strings.Join(d.Addrs, ","), classifyMgoError(err))
	}

	// replSetGetStatus may be answered by any member
	sess.SetMode(mgo.Monotonic, true)
	sess.SetSyncTimeout(timeout)
	sess.SetSocketTimeout(timeout)

	return &mgoConnection{session: sess, timeout: timeout}, nil
}

func (c *mgoConnection) Close() {
	c.session.Close()
}

func (c *mgoConnection) ReplicaSetStatus(ctx context.Context) (map[string]model.MemberState, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// mgo treats a timeout <= 0 as no timeout, the socket timeout is only ever shortened
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, context.DeadlineExceeded
		}
		if remaining < c.timeout {
			c.session.SetSocketTimeout(remaining)
		}
	}

	var status replSetStatus
	if err := c.session.Run("replSetGetStatus", &status); err != nil {
		return nil, fmt.Errorf("mgo/Session.Run(\"replSetGetStatus\") failed: %w", classifyMgoError(err))
	}

	return memberStates(status), nil
}

// memberStates maps the host of every member, without port, to its state.
func memberStates(status replSetStatus) map[string]model.MemberState {
	states := make(map[string]model.MemberState, len(status.Members))
	for _, member := range status.Members {
		states[memberHost(member.Name)] = model.ParseMemberState(member.StateStr)
	}
	return states
}

func memberHost(name string) string {
	host, _, err := net.SplitHostPort(name)
	if err != nil {
		return name
	}
	return host
}

// classifyMgoError wraps the failures mgo reports during elections and reconnects
// into ErrNoPrimary and ErrReconnecting.
func classifyMgoError(err error) error {

	if err == io.EOF || err.Error() == "Closed explicitly" {
		return fmt.Errorf("%w: %s", ErrReconnecting, err)
	}
	if err.Error() == "no reachable servers" {
		return fmt.Errorf("%w: %s", ErrNoPrimary, err)
	}

	var queryErr *mgo.QueryError
	if errors.As(err, &queryErr) && reconnectErrorCodes[queryErr.Code] {
		return fmt.Errorf("%w: %s", ErrReconnecting, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %s", ErrNoPrimary, err)
		}
		return fmt.Errorf("%w: %s", ErrReconnecting, err)
	}

	return err
}
