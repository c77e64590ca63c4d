package status

import (
	"bytes"
	"encoding/binary"
	"errors"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
)

const (
	opReply = 1
	opQuery = 2004
)

type replSetGetStatusBehaviour int

const (
	answerReplSetGetStatus replSetGetStatusBehaviour = iota
	ignoreReplSetGetStatus
	closeOnReplSetGetStatus
)

// fakeMongod speaks enough of the legacy OP_QUERY/OP_REPLY wire protocol for mgo to
// dial it and run replSetGetStatus.
type fakeMongod struct {
	listener  net.Listener
	behaviour replSetGetStatusBehaviour
	status    bson.M

	mutex sync.Mutex
	conns []net.Conn
}

func startFakeMongod(t *testing.T, behaviour replSetGetStatusBehaviour, status bson.M) *fakeMongod {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	m := &fakeMongod{listener: listener, behaviour: behaviour, status: status}
	t.Cleanup(m.Close)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			m.mutex.Lock()
			m.conns = append(m.conns, conn)
			m.mutex.Unlock()
			go m.serve(conn)
		}
	}()
	return m
}

func (m *fakeMongod) Addr() string {
	return m.listener.Addr().String()
}

func (m *fakeMongod) Close() {
	m.listener.Close()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, conn := range m.conns {
		conn.Close()
	}
}

func (m *fakeMongod) serve(conn net.Conn) {
	defer conn.Close()
	for {
		var header [16]byte
		if _, err := io.ReadFull(conn, header[:]); err != nil {
			return
		}
		length := binary.LittleEndian.Uint32(header[0:])
		requestID := binary.LittleEndian.Uint32(header[4:])
		opCode := binary.LittleEndian.Uint32(header[12:])
		if length < 16 {
			return
		}
		body := make([]byte, length-16)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		if opCode != opQuery {
			continue
		}

		command, err := queryCommand(body)
		if err != nil {
			return
		}

		var reply bson.M
		switch strings.ToLower(command) {
		case "ismaster":
			reply = bson.M{"ismaster": true, "maxWireVersion": 2, "ok": 1.0}
		case "getnonce":
			reply = bson.M{"nonce": "2375531c32080ae8", "ok": 1.0}
		case "replsetgetstatus":
			switch m.behaviour {
			case ignoreReplSetGetStatus:
				continue
			case closeOnReplSetGetStatus:
				return
			}
			reply = m.status
		default:
			reply = bson.M{"ok": 1.0}
		}

		if err := writeReply(conn, requestID, reply); err != nil {
			return
		}
	}
}

// queryCommand returns the first key of the query document of an OP_QUERY body.
func queryCommand(body []byte) (string, error) {
	// flags, then the full collection name
	if len(body) < 4 {
		return "", errors.New("short OP_QUERY")
	}
	nameEnd := bytes.IndexByte(body[4:], 0)
	if nameEnd < 0 {
		return "", errors.New("unterminated collection name")
	}
	// numberToSkip, numberToReturn
	offset := 4 + nameEnd + 1 + 8
	if len(body) < offset+4 {
		return "", errors.New("short OP_QUERY")
	}
	docLength := int(binary.LittleEndian.Uint32(body[offset:]))
	if len(body) < offset+docLength {
		return "", errors.New("short query document")
	}

	var query bson.D
	if err := bson.Unmarshal(body[offset:offset+docLength], &query); err != nil {
		return "", err
	}
	if len(query) == 0 {
		return "", errors.New("empty query document")
	}
	return query[0].Name, nil
}

func writeReply(conn net.Conn, responseTo uint32, doc bson.M) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	// header, responseFlags, cursorID, startingFrom, numberReturned
	msg := make([]byte, 36, 36+len(data))
	binary.LittleEndian.PutUint32(msg[0:], uint32(36+len(data)))
	binary.LittleEndian.PutUint32(msg[8:], responseTo)
	binary.LittleEndian.PutUint32(msg[12:], opReply)
	binary.LittleEndian.PutUint32(msg[32:], 1)
	msg = append(msg, data...)
	_, err = conn.Write(msg)
	return err
}
