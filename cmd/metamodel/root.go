package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/syssam/metamodel/compiler/load"
	"github.com/syssam/metamodel/diagnostics"
	"github.com/syssam/metamodel/internal/config"
	"github.com/syssam/metamodel/metadata"
)

// app is the state shared by all commands. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	log        *zap.Logger
	// newLogger builds the logger from the loaded configuration.
	newLogger func(*config.Config) (*zap.Logger, error)
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&app{newLogger: newLogger})
}

func newRootCommandWith(a *app) *cobra.Command {
	a.v = config.New()
	rootCmd := &cobra.Command{
		Use:   "metamodel",
		Short: "Entity metadata model tooling",
		Long: `metamodel builds an entity metadata model from a YAML schema document and
validates every relationship in it: keys, foreign keys, indexes, inheritance
and owned entity types.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./metamodel.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("schema", "schema.yaml", "schema document")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("schema", flags.Lookup("schema"))

	rootCmd.AddCommand(
		newInspectCommand(a),
		newOrderCommand(a),
		newGenCommand(a),
		newSnapshotCommand(a),
		newWatchCommand(a),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.LoadWith(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	log, err := a.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.Log.ZapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// loadModel builds the model described by the configured schema document.
// The configured change tracking strategy applies unless the document sets
// its own.
func (a *app) loadModel() (*metadata.Model, error) {
	doc, err := load.LoadFile(a.cfg.Schema)
	if err != nil {
		return nil, err
	}
	return load.Build(doc,
		metadata.WithLogger(diagnostics.New(a.log)),
		metadata.WithChangeTrackingStrategy(a.cfg.Strategy()),
	)
}
