// Package commands implements the codesearch command line: the command
// table, argument parsing, request building and the run lifecycle.
package commands

import (
	"codesearch/internal/version"

	"github.com/spf13/cobra"
)

// flagConfig names the persistent configuration file flag.
const flagConfig = "config"

// NewRootCmd builds the command tree from the registry. Commands run
// against the given environment.
func NewRootCmd(env Environment) *cobra.Command {
	env = env.withDefaults()
	info := version.Get()

	var cfgFile string
	cmd := &cobra.Command{
		Use:           "codesearch",
		Short:         "Command line interface to Chromium Code Search",
		Long:          "Emits JSON formatted responses from the Chromium Code Search backend.",
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(info.FormatFull())
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.PersistentFlags().StringVar(&cfgFile, flagConfig, "",
		"config file (default: $HOME/.config/codesearch/config.yaml)")

	for _, spec := range Registry() {
		cmd.AddCommand(newSubcommand(spec, env, &cfgFile))
	}

	return cmd
}

func newSubcommand(spec CommandSpec, env Environment, cfgFile *string) *cobra.Command {
	inv := &Invocation{Command: spec.Name}

	cmd := &cobra.Command{
		Use:   usageLine(spec),
		Short: spec.Short,
		Args:  positionalArgs(spec),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case spec.HasGroup(GroupPath):
				inv.Path = args[0]
			case spec.HasGroup(GroupQuery):
				inv.Query = args[0]
			}
			return newLifecycle(env, *cfgFile).execute(cmd.Context(), spec, inv)
		},
	}
	fs := cmd.Flags()
	fs.SortFlags = false
	for _, group := range spec.Groups {
		bindGroup(fs, group, inv)
	}
	for _, flag := range spec.Flags {
		bindFlag(fs, flag, inv)
	}

	return cmd
}

func usageLine(spec CommandSpec) string {
	switch {
	case spec.HasGroup(GroupPath):
		return spec.Name + " PATH"
	case spec.HasGroup(GroupQuery):
		return spec.Name + " QUERY"
	default:
		return spec.Name
	}
}

// positionalArgs validates positional arguments, reporting problems as
// usage errors.
func positionalArgs(spec CommandSpec) cobra.PositionalArgs {
	validate := cobra.NoArgs
	if spec.HasGroup(GroupPath) || spec.HasGroup(GroupQuery) {
		validate = cobra.ExactArgs(1)
	}
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
