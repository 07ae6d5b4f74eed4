package commands

import (
	"errors"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/datamap/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// reportedError marks an error whose message was already written to the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

// report writes opts to stderr and returns err marked as reported
func report(cmd *cobra.Command, opts ui.ErrorOptions, err error) error {
	ui.WriteError(cmd.ErrOrStderr(), opts, noColor(cmd))
	return reported(err)
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithRuntime(LoadRuntime)
}

// NewRootCommandWithRuntime creates the root command with a custom runtime loader
func NewRootCommandWithRuntime(load RuntimeLoader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datamap",
		Short: "Declarative data models over pluggable persistence",
		Long: color.CyanString(`datamap - declarative data models

datamap loads model definitions from datamap.yml and maps them onto
memory, PostgreSQL, SQLite or Redis persistence.

Features:
  • Typed fields with normalization
  • Email validation with optional DNS checks
  • To-one references kept in sync by hooks
  • Dirty-field updates`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ./datamap.yml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewNormalizeCommand())
	rootCmd.AddCommand(NewModelsCommand(load))
	rootCmd.AddCommand(NewGetCommand(load))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the datamap version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "datamap version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var done *reportedError
		if !errors.As(err, &done) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}

func noColor(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-color")
	return v || color.NoColor
}
