package topology

import (
	"fmt"
	"github.com/gatici/mongodb-operator/model"
)

const (
	FlagConfigServer = "--configsvr"
	FlagShardServer  = "--shardsvr"

	FlagAuth               = "--auth"
	FlagClusterAuthKeyFile = "--clusterAuthMode=keyFile"
	FlagClusterAuthX509    = "--clusterAuthMode=x509"
	FlagKeyFile            = "--keyFile"
)

type MongodParams struct {
	Role model.Role
	// Security must satisfy model.SecurityPosture.Validate, see BuildMongodArgs
	Security       model.SecurityPosture
	Variant        model.PathVariant
	ReplicaSetName string
	Port           int // Config.MongodPort if 0
}

// BuildMongodArgs returns the arguments of the mongod process of a node.
//
// Shards, config servers and plain replica set members all run mongod on the same port.
// The caller must reject a posture with internal but without external TLS
// (model.SecurityPosture.Validate) before calling BuildMongodArgs: such a posture
// would get neither key file nor certificate cluster authentication.
func BuildMongodArgs(c Config, p MongodParams) Arguments {

	port := p.Port
	if port == 0 {
		port = c.MongodPort
	}

	args := Arguments{
		"--bind_ip_all",
		fmt.Sprintf("--replSet=%s", p.ReplicaSetName),
		fmt.Sprintf("--dbpath=%s", c.DataPath(p.Variant)),
		fmt.Sprintf("--port=%d", port),
		// audit log goes to syslog, there is no file based audit log
		"--auditDestination=syslog",
		fmt.Sprintf("--auditFormat=%s", c.AuditFormat),
	}

	if !c.LogToSyslog && p.Variant == model.PathVariantPackaged {
		args = append(args, fmt.Sprintf("--logpath=%s", c.LogFilePath()))
	}

	if p.Security.AuthEnabled {
		args = append(args, FlagAuth)
	}

	// a key file needs auth and cannot be combined with internal TLS
	if p.Security.UsesKeyFile() {
		args = append(args,
			FlagClusterAuthKeyFile,
			fmt.Sprintf("%s=%s", FlagKeyFile, c.KeyFilePath(p.Variant)),
		)
	}

	if p.Security.ExternalTLS {
		args = append(args,
			fmt.Sprintf("--tlsCAFile=%s", c.confFile(p.Variant, c.TLSExternalCAFile)),
			fmt.Sprintf("--tlsCertificateKeyFile=%s", c.confFile(p.Variant, c.TLSExternalPEMFile)),
			// clients may still connect without TLS
			"--tlsMode=preferTLS",
			"--tlsDisabledProtocols=TLS1_0,TLS1_1",
		)
	}

	if p.Security.UsesX509ClusterAuth() {
		args = append(args,
			FlagClusterAuthX509,
			// members trust each other through the internal CA, not through host names
			"--tlsAllowInvalidCertificates",
			fmt.Sprintf("--tlsClusterCAFile=%s", c.confFile(p.Variant, c.TLSInternalCAFile)),
			fmt.Sprintf("--tlsClusterFile=%s", c.confFile(p.Variant, c.TLSInternalPEMFile)),
		)
	}

	switch p.Role {
	case model.RoleConfigServer:
		args = append(args, FlagConfigServer)
	case model.RoleShard:
		args = append(args, FlagShardServer)
	}

	return args
}
