/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package commands implements the metadatactl sub-commands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/suparena/metadatastore"
	"github.com/suparena/metadatastore/config"
	"github.com/suparena/metadatastore/entities"
	"github.com/suparena/metadatastore/logging"
	"github.com/suparena/metadatastore/registry"
	"github.com/suparena/metadatastore/storagemodels"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// NewRootCommand builds the metadatactl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "metadatactl",
		Short: "Inspect and validate the portal metadata store",
		Long: `metadatactl loads the metadata store configuration, declares every entity type
and reports how each one maps onto the table, relational and memory backends.

Configuration is read from the --config yaml file, a .env file and METADATA_* variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to the yaml configuration file")

	root.AddCommand(newValidateCommand(), newDescribeCommand(), newVersionCommand())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func newRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := entities.RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and open every configured backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			initialize, err := cmd.Flags().GetBool("initialize")
			if err != nil {
				return err
			}
			return validate(cmd, cfg, initialize)
		},
	}
	cmd.Flags().Bool("initialize", false, "also verify or create the backing tables")
	return cmd
}

func validate(cmd *cobra.Command, cfg *config.Config, initialize bool) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	logger := logging.Component(logging.New(cfg.Logger, cmd.ErrOrStderr()), "metadatactl")

	store, err := metadatastore.Open(cmd.Context(), cfg, reg, metadatastore.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, err := entities.NewProviders(store); err != nil {
		return err
	}
	if initialize {
		if err := store.Initialize(cmd.Context()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, t := range reg.EntityTypes() {
		fmt.Fprintf(out, "%-26s %s\n", t, cfg.BackendFor(t))
	}
	fmt.Fprintln(out, "configuration is valid")
	return nil
}

func newDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [entity-type...]",
		Short: "Print the backend mappings of entity types",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			reg, err := newRegistry()
			if err != nil {
				return err
			}
			var descriptions []registry.Description
			if len(args) == 0 {
				if descriptions, err = reg.DescribeAll(); err != nil {
					return err
				}
			}
			for _, name := range args {
				d, err := reg.Describe(storagemodels.EntityType(name))
				if err != nil {
					return err
				}
				descriptions = append(descriptions, d)
			}
			return write(cmd.OutOrStdout(), format, descriptions)
		},
	}
	cmd.Flags().String("format", FormatYAML, "output format, yaml or json")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := metadatastore.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "metadatactl version %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Git commit: %s\n", info.GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", info.GoVersion)
			return nil
		},
	}
}

func write(out io.Writer, format string, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q", format)
}
