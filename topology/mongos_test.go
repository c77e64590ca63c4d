package topology

import (
	"github.com/gatici/mongodb-operator/model"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestBuildMongosArgs_ConfigServer(t *testing.T) {
	args := BuildMongosArgs(DefaultConfig(), MongosParams{
		ReplicaSetName: "config-server-one",
		Variant:        model.PathVariantPackaged,
	})

	assert.Equal(t, Arguments{
		"--bind_ip_all",
		"--configdb", "config-server-one/localhost:27017",
		"--port", "27018",
		"--keyFile=/var/snap/charmed-mongodb/current/etc/mongod/keyFile",
	}, args)
	assert.Equal(t,
		"--bind_ip_all --configdb config-server-one/localhost:27017 --port 27018 --keyFile=/var/snap/charmed-mongodb/current/etc/mongod/keyFile \n",
		args.String())
}

func TestBuildMongosArgs_Subordinate(t *testing.T) {
	args := BuildMongosArgs(DefaultConfig(), MongosParams{
		ReplicaSetName: "app",
		ConfigServerDB: "cfg/10.0.0.1:27017,10.0.0.2:27017",
		MongosPort:     27020,
		Variant:        model.PathVariantBare,
	})

	assert.Equal(t, Arguments{
		"--bind_ip", "/var/snap/charmed-mongodb/common/var/mongodb-27018.sock",
		"--configdb", "cfg/10.0.0.1:27017,10.0.0.2:27017",
		"--port", "27020",
		"--keyFile=/etc/mongod/keyFile",
	}, args)
	assert.False(t, args.Contains("--bind_ip_all"))
}

func TestBuildMongosArgs_CustomMongodPort(t *testing.T) {
	args := BuildMongosArgs(DefaultConfig(), MongosParams{ReplicaSetName: "cfg", MongodPort: 30000})
	assert.True(t, args.Contains("cfg/localhost:30000"))
}
