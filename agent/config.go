package agent

import (
	"fmt"
	"github.com/gatici/mongodb-operator/model"
	"github.com/gatici/mongodb-operator/status"
	"github.com/gatici/mongodb-operator/topology"
	"github.com/vaughan0/go-ini"
	"os"
	"strconv"
	"strings"
	"time"
)

/*
	The agent is configured through an ini file:

		[unit]
		role = config-server
		replica-set = config-server-one
		address = 10.0.0.1
		path-variant = packaged

		[security]
		auth = true
		tls-external = true
		tls-internal = false

		[mongodb]
		port = 27017
		mongos-port = 27018
		hosts = 10.0.0.1:27017,10.0.0.2:27017
		config-server-db =
		username = operator
		password-file = /var/snap/charmed-mongodb/current/etc/mongod/operator-password
		connect-timeout = 4s

		[agent]
		env-file = /etc/environment
		mongod-env-var = MONGOD_ARGS
		mongos-env-var = MONGOS_ARGS
		poll-interval = 10s
		status-listen = :8089
		status-url =
		pbm-command = pbm status -o json

	Keys that are not set keep the value of DefaultConfig().
*/

type Config struct {
	Role           model.Role
	ReplicaSetName string
	// the address this unit has in the replica set status, without port
	Address  string
	Variant  model.PathVariant
	Security model.SecurityPosture

	MongodPort     int
	MongosPort     int
	Hosts          []string // 127.0.0.1:MongodPort if empty
	ConfigServerDB string
	Username       string
	PasswordFile   string
	ConnectTimeout time.Duration

	EnvFile      string
	MongodEnvVar string
	MongosEnvVar string
	PollInterval time.Duration
	StatusListen string // no status API if empty
	StatusURL    string // report to a remote status API instead of serving one
	PBMCommand   []string
}

func DefaultConfig() Config {
	t := topology.DefaultConfig()
	return Config{
		Role:           model.RoleReplication,
		ReplicaSetName: "mongodb",
		Variant:        model.PathVariantPackaged,
		Security:       model.SecurityPosture{AuthEnabled: true},
		MongodPort:     t.MongodPort,
		MongosPort:     t.MongosPort,
		ConnectTimeout: 4 * time.Second,
		EnvFile:        "/etc/environment",
		MongodEnvVar:   "MONGOD_ARGS",
		MongosEnvVar:   "MONGOS_ARGS",
		PollInterval:   10 * time.Second,
	}
}

func LoadConfig(path string) (Config, error) {
	file, err := ini.LoadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not load config file `%s`: %w", path, err)
	}
	c, err := parseConfig(file)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config file `%s`: %w", path, err)
	}
	return c, nil
}

type configParser struct {
	file ini.File
	err  error
}

func (p *configParser) get(section, key string) (string, bool) {
	value, ok := p.file.Get(section, key)
	return strings.TrimSpace(value), ok
}

func (p *configParser) str(section, key string, dst *string) {
	if value, ok := p.get(section, key); ok {
		*dst = value
	}
}

func (p *configParser) boolean(section, key string, dst *bool) {
	value, ok := p.get(section, key)
	if !ok || p.err != nil {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.err = fmt.Errorf("[%s] %s: `%s` is not a boolean", section, key, value)
		return
	}
	*dst = b
}

func (p *configParser) port(section, key string, dst *int) {
	value, ok := p.get(section, key)
	if !ok || p.err != nil {
		return
	}
	port, err := strconv.ParseUint(value, 10, 16)
	if err != nil || port == 0 {
		p.err = fmt.Errorf("[%s] %s: `%s` is not a port number", section, key, value)
		return
	}
	*dst = int(port)
}

func (p *configParser) duration(section, key string, dst *time.Duration) {
	value, ok := p.get(section, key)
	if !ok || p.err != nil {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		p.err = fmt.Errorf("[%s] %s: `%s` is not a positive duration", section, key, value)
		return
	}
	*dst = d
}

func parseConfig(file ini.File) (Config, error) {
	c := DefaultConfig()
	p := &configParser{file: file}

	if value, ok := p.get("unit", "role"); ok {
		role, err := model.ParseRole(value)
		if err != nil {
			return Config{}, err
		}
		c.Role = role
	}
	if value, ok := p.get("unit", "path-variant"); ok {
		variant, err := model.ParsePathVariant(value)
		if err != nil {
			return Config{}, err
		}
		c.Variant = variant
	}
	p.str("unit", "replica-set", &c.ReplicaSetName)
	p.str("unit", "address", &c.Address)

	p.boolean("security", "auth", &c.Security.AuthEnabled)
	p.boolean("security", "tls-external", &c.Security.ExternalTLS)
	p.boolean("security", "tls-internal", &c.Security.InternalTLS)

	p.port("mongodb", "port", &c.MongodPort)
	p.port("mongodb", "mongos-port", &c.MongosPort)
	if value, ok := p.get("mongodb", "hosts"); ok && value != "" {
		c.Hosts = nil
		for _, host := range strings.Split(value, ",") {
			if host = strings.TrimSpace(host); host != "" {
				c.Hosts = append(c.Hosts, host)
			}
		}
	}
	p.str("mongodb", "config-server-db", &c.ConfigServerDB)
	p.str("mongodb", "username", &c.Username)
	p.str("mongodb", "password-file", &c.PasswordFile)
	p.duration("mongodb", "connect-timeout", &c.ConnectTimeout)

	p.str("agent", "env-file", &c.EnvFile)
	p.str("agent", "mongod-env-var", &c.MongodEnvVar)
	p.str("agent", "mongos-env-var", &c.MongosEnvVar)
	p.duration("agent", "poll-interval", &c.PollInterval)
	p.str("agent", "status-listen", &c.StatusListen)
	p.str("agent", "status-url", &c.StatusURL)
	if value, ok := p.get("agent", "pbm-command"); ok {
		c.PBMCommand = strings.Fields(value)
	}

	if p.err != nil {
		return Config{}, p.err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if c.ReplicaSetName == "" {
		return fmt.Errorf("replica set name must not be empty")
	}
	if c.Address == "" {
		return fmt.Errorf("unit address must not be empty")
	}
	if c.EnvFile == "" || c.MongodEnvVar == "" || c.MongosEnvVar == "" {
		return fmt.Errorf("env file and env variable names must not be empty")
	}
	if c.Username != "" {
		if err := topology.ValidateUsername(c.Username); err != nil {
			return err
		}
	}
	// config servers run their own mongos, shards none
	if c.ConfigServerDB != "" && c.Role.IsSharded() {
		return fmt.Errorf("config-server-db is only valid for units outside the sharded cluster, not for role `%s`", c.Role)
	}
	if c.StatusListen != "" && c.StatusURL != "" {
		return fmt.Errorf("status-listen and status-url are mutually exclusive")
	}
	return nil
}

// Topology returns the topology configuration with the ports of c.
func (c Config) Topology() topology.Config {
	t := topology.DefaultConfig()
	t.MongodPort = c.MongodPort
	t.MongosPort = c.MongosPort
	return t
}

func (c Config) MgoDialer() (*status.MgoDialer, error) {
	d := &status.MgoDialer{
		Addrs:          c.Hosts,
		ReplicaSetName: c.ReplicaSetName,
		Username:       c.Username,
		Timeout:        c.ConnectTimeout,
	}
	if len(d.Addrs) == 0 {
		d.Addrs = []string{fmt.Sprintf("127.0.0.1:%d", c.MongodPort)}
	}
	if c.PasswordFile != "" {
		password, err := os.ReadFile(c.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("could not read password file: %w", err)
		}
		d.Password = strings.TrimSpace(string(password))
	}
	return d, nil
}
