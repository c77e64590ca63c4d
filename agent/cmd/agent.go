package main

import (
	"context"
	"fmt"
	"github.com/gatici/mongodb-operator/agent"
	"github.com/gatici/mongodb-operator/credentials"
	"github.com/gatici/mongodb-operator/status"
	"github.com/gatici/mongodb-operator/statusapi"
	"github.com/gatici/mongodb-operator/topology"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"os"
	"os/signal"
	"syscall"
)

var mainLog = logrus.WithField("module", "main")

var (
	configPath string
	logLevel   string
	keyFileOut string

	rootCmd = &cobra.Command{
		Use:           "mongodb-agent",
		Short:         "configures and observes the MongoDB processes of a node",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			return nil
		},
	}

	configureCmd = &cobra.Command{
		Use:   "configure",
		Short: "Write the mongod and mongos arguments into the env file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := newController()
			if err != nil {
				return err
			}
			return controller.Configure(cmd.Context())
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Resolve the unit status once and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := newController()
			if err != nil {
				return err
			}
			unitStatus, err := controller.Observe(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(unitStatus)
			return nil
		},
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Configure the node and report the unit status until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	createUserCmd = &cobra.Command{
		Use:   "create-user",
		Short: "Create the configured admin user through the localhost exception",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := newController()
			if err != nil {
				return err
			}
			return controller.CreateUser(cmd.Context())
		},
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate credentials",
	}

	generatePasswordCmd = &cobra.Command{
		Use:   "password",
		Short: "Print a random password",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(credentials.GeneratePassword())
		},
	}

	generateKeyFileCmd = &cobra.Command{
		Use:   "keyfile",
		Short: "Print a random key file or write it with --out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content := credentials.GenerateKeyFile()
			if keyFileOut == "" {
				fmt.Println(content)
				return nil
			}
			return credentials.WriteKeyFile(keyFileOut, content)
		},
	}

	versionCheckCmd = &cobra.Command{
		Use:   "version-check <mongod>",
		Short: "Check that the mongod binary supports the generated arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := agent.CheckMongodVersion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("`%s` does not satisfy version constraint `%s`", args[0], topology.MongodMinRequiredVersion)
			}
			fmt.Println("ok")
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/mongodb-agent.ini", "path to the agent config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log.level", "info", "possible values: debug, info, warning, error, fatal, panic")
	generateKeyFileCmd.Flags().StringVar(&keyFileOut, "out", "", "write the key file to this path with mode 0600")

	generateCmd.AddCommand(generatePasswordCmd, generateKeyFileCmd)
	rootCmd.AddCommand(configureCmd, statusCmd, runCmd, createUserCmd, generateCmd, versionCheckCmd)
}

func loadConfig() (agent.Config, error) {
	config, err := agent.LoadConfig(configPath)
	if err != nil {
		return agent.Config{}, err
	}
	mainLog.WithField("config", configPath).Debugf("loaded config: %+v", config)
	return config, nil
}

func newController() (*agent.Controller, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dialer, err := config.MgoDialer()
	if err != nil {
		return nil, err
	}
	var backup status.BackupStatusSource
	if len(config.PBMCommand) > 0 {
		backup = &status.PBMCommand{Command: config.PBMCommand}
	}
	return agent.NewController(config, dialer, backup, nil), nil
}

func run(ctx context.Context) error {

	controller, err := newController()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	switch {
	case controller.Config.StatusURL != "":
		controller.Sink = &statusapi.Client{BaseURL: controller.Config.StatusURL}
	default:
		metrics := statusapi.NewMetrics()
		recorder := statusapi.NewRecorder(metrics)
		controller.Sink = recorder
		if listen := controller.Config.StatusListen; listen != "" {
			server := statusapi.NewServer(recorder, metrics)
			g.Go(func() error {
				return server.ListenAndServe(gctx, listen)
			})
		}
	}

	if err := controller.Configure(gctx); err != nil {
		cancel()
		if waitErr := g.Wait(); waitErr != nil {
			mainLog.WithError(waitErr).Error("status API stopped with error")
		}
		return fmt.Errorf("could not configure node: %w", err)
	}

	g.Go(func() error {
		controller.Run(gctx)
		return nil
	})
	return g.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		mainLog.Fatal(err)
	}
}
