package topology

import (
	"github.com/gatici/mongodb-operator/model"
	"path/filepath"
)

// Config holds the file names, directories and ports the process arguments are built from.
type Config struct {
	MongodPort int
	MongosPort int

	// roots prepended for model.PathVariantPackaged
	CommonDir   string // data
	SnapDataDir string // configuration

	DataDir string
	LogDir  string
	ConfDir string

	LogFileName string
	// audit and server logs go to syslog until there is a dedicated log volume
	LogToSyslog bool
	AuditFormat string

	KeyFileName        string
	TLSExternalPEMFile string
	TLSExternalCAFile  string
	TLSInternalPEMFile string
	TLSInternalCAFile  string

	// unix domain socket a subordinate mongos binds to, relative to CommonDir
	MongosSocket string

	Shell string
}

func DefaultConfig() Config {
	return Config{
		MongodPort:         27017,
		MongosPort:         27018,
		CommonDir:          "/var/snap/charmed-mongodb/common",
		SnapDataDir:        "/var/snap/charmed-mongodb/current",
		DataDir:            "/var/lib/mongodb",
		LogDir:             "/var/log/mongodb",
		ConfDir:            "/etc/mongod",
		LogFileName:        "mongodb.log",
		LogToSyslog:        true,
		AuditFormat:        "JSON",
		KeyFileName:        "keyFile",
		TLSExternalPEMFile: "external-cert.pem",
		TLSExternalCAFile:  "external-ca.crt",
		TLSInternalPEMFile: "internal-cert.pem",
		TLSInternalCAFile:  "internal-ca.crt",
		MongosSocket:       "var/mongodb-27018.sock",
		Shell:              "charmed-mongodb.mongosh",
	}
}

func (c Config) DataPath(v model.PathVariant) string {
	if v == model.PathVariantPackaged {
		return c.CommonDir + c.DataDir
	}
	return c.DataDir
}

func (c Config) ConfPath(v model.PathVariant) string {
	if v == model.PathVariantPackaged {
		return c.SnapDataDir + c.ConfDir
	}
	return c.ConfDir
}

// LogFilePath is only meaningful for model.PathVariantPackaged, a bare runtime
// logs to the output of its container.
func (c Config) LogFilePath() string {
	return filepath.Join(c.LogDir, c.LogFileName)
}

func (c Config) KeyFilePath(v model.PathVariant) string {
	return filepath.Join(c.ConfPath(v), c.KeyFileName)
}

func (c Config) MongosSocketPath() string {
	return filepath.Join(c.CommonDir, c.MongosSocket)
}

func (c Config) confFile(v model.PathVariant, name string) string {
	return filepath.Join(c.ConfPath(v), name)
}
