package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/metamodel/compiler/gen"
	"github.com/syssam/metamodel/diagnostics"
	"github.com/syssam/metamodel/graph"
	"github.com/syssam/metamodel/internal/watch"
	"github.com/syssam/metamodel/metadata"
	"github.com/syssam/metamodel/snapshot"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the entity types of the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel()
			if err != nil {
				return err
			}
			printModel(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func printModel(w io.Writer, m *metadata.Model) {
	fmt.Fprintf(w, "change tracking: %s\n", m.ChangeTrackingStrategy())
	for _, et := range m.EntityTypes() {
		fmt.Fprintln(w)
		fmt.Fprint(w, et.DisplayName())
		if base := et.BaseType(); base != nil {
			fmt.Fprintf(w, " : %s", base.DisplayName())
		}
		fmt.Fprintln(w)
		for _, p := range et.Properties() {
			nullable := ""
			if p.IsNullable() {
				nullable = " (nullable)"
			}
			fmt.Fprintf(w, "  property %s %s%s\n", p.Name(), p.Type(), nullable)
		}
		for _, k := range et.Keys() {
			kind := "key"
			if k.IsPrimaryKey() {
				kind = "primary key"
			}
			fmt.Fprintf(w, "  %s {%s}\n", kind, strings.Join(k.PropertyNames(), ", "))
		}
		for _, fk := range et.ForeignKeys() {
			fmt.Fprintf(w, "  foreign key %s\n", fk)
		}
		for _, ix := range et.Indexes() {
			fmt.Fprintf(w, "  index %s\n", ix)
		}
		for _, o := range et.OwnedTypes() {
			fmt.Fprintf(w, "  owns %s\n", o.DisplayName())
		}
	}
}

func newOrderCommand(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the entity types in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel()
			if err != nil {
				return err
			}
			an, err := graph.Analyze(m)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range an.Order {
				fmt.Fprintln(out, name)
			}
			for _, c := range an.Cycles {
				fmt.Fprintf(out, "cycle: %s\n", c)
			}
			if strict && len(an.Cycles) > 0 {
				return fmt.Errorf("schema has %d dependency cycle(s)", len(an.Cycles))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the dependencies contain cycles")
	return cmd
}

func newGenCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go entity structs from the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel()
			if err != nil {
				return err
			}
			return a.generate(cmd.Context(), m)
		},
	}
	cmd.Flags().String("target", "", "output directory")
	cmd.Flags().String("package", "", "generated package name")
	_ = a.v.BindPFlag("gen.target", cmd.Flags().Lookup("target"))
	_ = a.v.BindPFlag("gen.package", cmd.Flags().Lookup("package"))
	return cmd
}

func (a *app) generate(ctx context.Context, m *metadata.Model) error {
	opts := []gen.Option{
		gen.WithTarget(a.cfg.Gen.Target),
		gen.WithPackage(a.cfg.Gen.Package),
		gen.WithHeader(a.cfg.Gen.Header),
		gen.WithLogger(diagnostics.New(a.log)),
	}
	if len(a.cfg.Gen.Features) > 0 {
		opts = append(opts, gen.WithFeatures(a.cfg.Gen.Features...))
	}
	if a.cfg.Gen.Workers > 0 {
		opts = append(opts, gen.WithWorkers(a.cfg.Gen.Workers))
	}
	return gen.Generate(ctx, m, opts...)
}

// errSchemaChanged is returned by snapshot --check when the schema no longer
// matches the stored snapshot.
var errSchemaChanged = errors.New("schema changed since the last snapshot")

func newSnapshotCommand(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write or verify a snapshot of the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel()
			if err != nil {
				return err
			}
			s, err := snapshot.Take(m)
			if err != nil {
				return err
			}
			path := a.cfg.Snapshot.Path
			out := cmd.OutOrStdout()
			if check {
				stored, err := snapshot.Read(path)
				if err != nil {
					return err
				}
				if !s.Equal(stored) {
					return fmt.Errorf("%w: %s != %s", errSchemaChanged, s.Fingerprint, stored.Fingerprint)
				}
				fmt.Fprintf(out, "%s up to date (%s)\n", path, s.Fingerprint)
				return nil
			}
			if stored, err := snapshot.Read(path); err == nil {
				// Keep the model ID stable across snapshots of the same store.
				s.ModelID = stored.ModelID
			} else if !errors.Is(err, os.ErrNotExist) {
				a.log.Warn("ignoring unreadable snapshot", zap.String("path", path), zap.Error(err))
			}
			if err := s.Write(path, diagnostics.New(a.log)); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", path, s.Fingerprint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "fail if the schema differs from the stored snapshot")
	cmd.Flags().String("path", "", "snapshot file")
	_ = a.v.BindPFlag("snapshot.path", cmd.Flags().Lookup("path"))
	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	var generate bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the model whenever the schema changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rebuild := func(ctx context.Context, _ []string) error {
				m, err := a.loadModel()
				if err != nil {
					return err
				}
				a.log.Info("model rebuilt", zap.Int("entity_types", len(m.EntityTypes())))
				if generate {
					return a.generate(ctx, m)
				}
				return nil
			}
			if err := rebuild(cmd.Context(), nil); err != nil {
				a.log.Error("initial build failed", zap.Error(err))
			}
			w, err := watch.New([]string{a.cfg.Schema}, rebuild, watch.WithLogger(a.log))
			if err != nil {
				return err
			}
			a.log.Info("watching schema", zap.String("schema", a.cfg.Schema))
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&generate, "gen", false, "regenerate code after every successful rebuild")
	return cmd
}
