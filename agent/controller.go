// Package agent keeps the launch environment of the mongod and mongos processes of a
// node in line with its configuration and reports the status of the node.
package agent

import (
	"context"
	"errors"
	"fmt"
	"github.com/gatici/mongodb-operator/envfile"
	"github.com/gatici/mongodb-operator/model"
	"github.com/gatici/mongodb-operator/status"
	"github.com/gatici/mongodb-operator/statusapi"
	"github.com/gatici/mongodb-operator/topology"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var agentLog = logrus.WithField("module", "agent")

type Controller struct {
	Config   Config
	Topology topology.Config

	Cluster *status.ClusterStatusResolver
	// optional, the backup status is not observed if nil
	Backup status.BackupStatusSource
	Sink   statusapi.Sink
}

func NewController(config Config, dialer status.Dialer, backup status.BackupStatusSource, sink statusapi.Sink) *Controller {
	return &Controller{
		Config:   config,
		Topology: config.Topology(),
		Cluster:  &status.ClusterStatusResolver{Dialer: dialer},
		Backup:   backup,
		Sink:     sink,
	}
}

func (c *Controller) MongodArgs() topology.Arguments {
	return topology.BuildMongodArgs(c.Topology, topology.MongodParams{
		Role:           c.Config.Role,
		Security:       c.Config.Security,
		Variant:        c.Config.Variant,
		ReplicaSetName: c.Config.ReplicaSetName,
		Port:           c.Config.MongodPort,
	})
}

// MongosArgs returns false if the node does not run mongos.
func (c *Controller) MongosArgs() (topology.Arguments, bool) {
	if c.Config.Role != model.RoleConfigServer && c.Config.ConfigServerDB == "" {
		return nil, false
	}
	return topology.BuildMongosArgs(c.Topology, topology.MongosParams{
		ReplicaSetName: c.Config.ReplicaSetName,
		MongodPort:     c.Config.MongodPort,
		MongosPort:     c.Config.MongosPort,
		ConfigServerDB: c.Config.ConfigServerDB,
		Variant:        c.Config.Variant,
	}), true
}

// Configure writes the process arguments into the env file.
func (c *Controller) Configure(ctx context.Context) error {

	if err := c.Config.Security.Validate(); err != nil {
		return err
	}
	if err := CheckWritableDir(filepath.Dir(c.Config.EnvFile)); err != nil {
		return err
	}

	if err := c.upsert(c.Config.MongodEnvVar, c.MongodArgs()); err != nil {
		return err
	}

	if args, runsMongos := c.MongosArgs(); runsMongos {
		if err := c.upsert(c.Config.MongosEnvVar, args); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func (c *Controller) upsert(key string, args topology.Arguments) error {
	if err := envfile.Upsert(c.Config.EnvFile, key, args.String()); err != nil {
		return fmt.Errorf("could not write `%s` to `%s`: %w", key, c.Config.EnvFile, err)
	}
	value, _, err := envfile.Lookup(c.Config.EnvFile, key)
	if err != nil {
		return err
	}
	agentLog.WithField("env", key).Infof("configured: %s", value)
	return nil
}

// CreateUser creates the admin user Config.Username through the localhost exception.
// The password is read from Config.PasswordFile and passed to the shell on stdin.
func (c *Controller) CreateUser(ctx context.Context) error {

	if c.Config.Username == "" || c.Config.PasswordFile == "" {
		return fmt.Errorf("username and password-file must be configured to create a user")
	}
	command, err := topology.CreateUserCommand(c.Topology, c.Config.Username)
	if err != nil {
		return err
	}
	password, err := os.ReadFile(c.Config.PasswordFile)
	if err != nil {
		return fmt.Errorf("could not read password file: %w", err)
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdin = strings.NewReader(strings.TrimSpace(string(password)) + "\n")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("creating user `%s` failed: %w: %s", c.Config.Username, err, strings.TrimSpace(string(out)))
	}
	agentLog.WithField("user", c.Config.Username).Info("created user")
	return nil
}

// Observe resolves the status of the replica set member and of the backup tool.
//
// An operation of the backup tool only shows while the member is active otherwise.
// A failing backup tool is ignored while the member is not active, a malformed
// payload never is.
func (c *Controller) Observe(ctx context.Context) (model.UnitStatus, error) {

	var (
		clusterStatus, backupStatus model.UnitStatus
		backupErr                   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clusterStatus, err = c.Cluster.Resolve(gctx, c.Config.Address)
		return
	})
	if c.Backup != nil {
		g.Go(func() error {
			payload, err := c.Backup.BackupStatus(gctx)
			if err != nil {
				backupErr = err
				return nil
			}
			backupStatus, backupErr = status.BackupStatusResolver{}.Resolve(payload)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.UnitStatus{}, fmt.Errorf("could not resolve replica set status: %w", err)
	}

	if errors.Is(backupErr, status.ErrMalformedPayload) {
		return model.UnitStatus{}, backupErr
	}
	if clusterStatus.Kind != model.UnitStatusActive {
		if backupErr != nil {
			agentLog.WithError(backupErr).Debugf("ignoring backup status while unit is %s", clusterStatus.Kind)
		}
		return clusterStatus, nil
	}
	if backupErr != nil {
		return model.UnitStatus{}, fmt.Errorf("could not resolve backup status: %w", backupErr)
	}
	if c.Backup != nil && backupStatus.Kind != model.UnitStatusActive {
		return backupStatus, nil
	}
	return clusterStatus, nil
}

func (c *Controller) Report(ctx context.Context) (model.UnitStatus, error) {
	unitStatus, err := c.Observe(ctx)
	if err != nil {
		return model.UnitStatus{}, err
	}
	if err := c.Sink.Report(ctx, unitStatus); err != nil {
		return unitStatus, fmt.Errorf("could not report unit status: %w", err)
	}
	return unitStatus, nil
}

// Run reports the unit status every Config.PollInterval until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.Config.PollInterval)
	defer ticker.Stop()

	for {
		agentLog.Debug("observing unit")
		observeCtx, cancel := context.WithTimeout(ctx, c.Config.PollInterval)
		if _, err := c.Report(observeCtx); err != nil {
			agentLog.WithError(err).Error("could not report unit status")
		}
		cancel()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
