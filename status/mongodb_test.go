package status

import (
	"context"
	"errors"
	"github.com/gatici/mongodb-operator/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
	"io"
	"net"
	"testing"
	"time"
)

func TestMemberStates(t *testing.T) {
	states := memberStates(replSetStatus{
		Set: "mongodb",
		Members: []replSetStatusMember{
			{Name: "10.0.0.1:27017", StateStr: "PRIMARY"},
			{Name: "10.0.0.2:27017", StateStr: "SECONDARY"},
			{Name: "[fd00::3]:27017", StateStr: "STARTUP2"},
			{Name: "mongodb-3", StateStr: "(not reachable/healthy)"},
		},
	})

	assert.Equal(t, map[string]model.MemberState{
		"10.0.0.1":  {Kind: model.MemberStatePrimary, Raw: "PRIMARY"},
		"10.0.0.2":  {Kind: model.MemberStateSecondary, Raw: "SECONDARY"},
		"fd00::3":   {Kind: model.MemberStateStarting, Raw: "STARTUP2"},
		"mongodb-3": {Kind: model.MemberStateUnknown, Raw: "(not reachable/healthy)"},
	}, states)
}

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyMgoError(t *testing.T) {
	assert.ErrorIs(t, classifyMgoError(errors.New("no reachable servers")), ErrNoPrimary)
	assert.ErrorIs(t, classifyMgoError(timeoutError{}), ErrNoPrimary)

	assert.ErrorIs(t, classifyMgoError(io.EOF), ErrReconnecting)
	assert.ErrorIs(t, classifyMgoError(errors.New("Closed explicitly")), ErrReconnecting)
	assert.ErrorIs(t, classifyMgoError(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}), ErrReconnecting)
	assert.ErrorIs(t, classifyMgoError(&mgo.QueryError{Code: 10107, Message: "not master"}), ErrReconnecting)

	notInitialized := &mgo.QueryError{Code: 94, Message: "no replset config has been received"}
	classified := classifyMgoError(notInitialized)
	assert.Equal(t, notInitialized, classified)
	assert.False(t, errors.Is(classified, ErrNoPrimary))
	assert.False(t, errors.Is(classified, ErrReconnecting))
}

func TestMgoDialer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &MgoDialer{Addrs: []string{"127.0.0.1:1"}, Timeout: time.Second}
	_, err := d.Dial(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func replSetGetStatusFixture() bson.M {
	return bson.M{
		"set": "mongodb",
		"members": []bson.M{
			{"_id": 0, "name": "127.0.0.1:27017", "stateStr": "PRIMARY"},
			{"_id": 1, "name": "10.0.0.2:27017", "stateStr": "RECOVERING"},
		},
		"ok": 1.0,
	}
}

func dialFakeMongod(t *testing.T, ctx context.Context, m *fakeMongod, timeout time.Duration) Connection {
	d := &MgoDialer{Addrs: []string{m.Addr()}, Direct: true, Timeout: timeout}
	conn, err := d.Dial(ctx)
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

func TestMgoConnection_ReplicaSetStatus(t *testing.T) {
	m := startFakeMongod(t, answerReplSetGetStatus, replSetGetStatusFixture())
	conn := dialFakeMongod(t, context.Background(), m, 2*time.Second)

	states, err := conn.ReplicaSetStatus(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, map[string]model.MemberState{
		"127.0.0.1": {Kind: model.MemberStatePrimary, Raw: "PRIMARY"},
		"10.0.0.2":  {Kind: model.MemberStateRecovering, Raw: "RECOVERING"},
	}, states)
}

func TestMgoConnection_ReadTimeoutIsNoPrimary(t *testing.T) {
	m := startFakeMongod(t, ignoreReplSetGetStatus, nil)
	conn := dialFakeMongod(t, context.Background(), m, 300*time.Millisecond)

	start := time.Now()
	_, err := conn.ReplicaSetStatus(context.Background())
	assert.ErrorIs(t, err, ErrNoPrimary)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestMgoConnection_ClosedConnectionIsReconnecting(t *testing.T) {
	m := startFakeMongod(t, closeOnReplSetGetStatus, nil)
	conn := dialFakeMongod(t, context.Background(), m, 2*time.Second)

	_, err := conn.ReplicaSetStatus(context.Background())
	assert.ErrorIs(t, err, ErrReconnecting)
}

func TestMgoConnection_ExpiredContextDoesNotBlock(t *testing.T) {
	m := startFakeMongod(t, ignoreReplSetGetStatus, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	conn := dialFakeMongod(t, ctx, m, 5*time.Second)
	<-ctx.Done()

	errChan := make(chan error, 1)
	go func() {
		_, err := conn.ReplicaSetStatus(ctx)
		errChan <- err
	}()

	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("ReplicaSetStatus blocked after the context deadline expired")
	}
}

func TestMgoConnection_ContextDeadlineBoundsQuery(t *testing.T) {
	m := startFakeMongod(t, ignoreReplSetGetStatus, nil)
	conn := dialFakeMongod(t, context.Background(), m, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := conn.ReplicaSetStatus(ctx)
	assert.ErrorIs(t, err, ErrNoPrimary)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestMgoDialer_ExpiredDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	d := &MgoDialer{Addrs: []string{"127.0.0.1:1"}, Timeout: time.Second}
	_, err := d.Dial(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
