package topology

import (
	"fmt"
	"github.com/gatici/mongodb-operator/model"
)

type MongosParams struct {
	ReplicaSetName string
	MongodPort     int // Config.MongodPort if 0
	MongosPort     int // Config.MongosPort if 0
	// ConfigServerDB is the `<replset>/<host:port>,...` address of the config servers.
	// Set only for a subordinate mongos running next to an application.
	ConfigServerDB string
	Variant        model.PathVariant
}

// BuildMongosArgs returns the arguments of the mongos process of a node.
//
// A mongos on the config server side listens on all interfaces so the other units of
// the sharded cluster reach it and talks to its own config server via localhost.
// A subordinate mongos given its ConfigServerDB only binds to a unix domain socket.
//
// mongos always authenticates with the key file, TLS is not supported for mongos yet.
func BuildMongosArgs(c Config, p MongosParams) Arguments {

	mongodPort := p.MongodPort
	if mongodPort == 0 {
		mongodPort = c.MongodPort
	}
	mongosPort := p.MongosPort
	if mongosPort == 0 {
		mongosPort = c.MongosPort
	}

	var args Arguments
	configServerDB := p.ConfigServerDB
	if configServerDB != "" {
		args = Arguments{"--bind_ip", c.MongosSocketPath()}
	} else {
		args = Arguments{"--bind_ip_all"}
		configServerDB = fmt.Sprintf("%s/localhost:%d", p.ReplicaSetName, mongodPort)
	}

	return append(args,
		"--configdb", configServerDB,
		"--port", fmt.Sprintf("%d", mongosPort),
		fmt.Sprintf("%s=%s", FlagKeyFile, c.KeyFilePath(p.Variant)),
	)
}
