package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/githubnext/yamlline/pkg/cli"
	"github.com/githubnext/yamlline/pkg/console"
	"github.com/githubnext/yamlline/pkg/constants"
)

// Build-time variables set by the release build
var (
	version = "dev"
)

var rootCmd = newRootCmd()

// newRootCmd builds the command tree. Every call returns fresh flag state.
func newRootCmd() *cobra.Command {
	cfg := cli.DefaultConfig()

	// runner applies environment defaults to the flags the user did not set.
	runner := func(cmd *cobra.Command) (*cli.Runner, error) {
		env, err := cli.LoadConfig(constants.EnvFile)
		if err != nil {
			return nil, err
		}
		flags := cmd.Flags()
		if !flags.Changed("backend") {
			cfg.Backend = env.Backend
		}
		if !flags.Changed("jobs") {
			cfg.Jobs = env.Jobs
		}
		if !flags.Changed("verbose") {
			cfg.Verbose = env.Verbose
		}

		r, err := cli.NewRunner(cfg)
		if err != nil {
			return nil, err
		}
		r.Out = cmd.OutOrStdout()
		r.Err = cmd.ErrOrStderr()
		return r, nil
	}

	root := &cobra.Command{
		Use:   constants.CLIName,
		Short: "Decode YAML with the source line of every value",
		Long: `Decode YAML documents into values annotated with the line each mapping,
sequence, scalar and key began on.

Only the first document of a stream is decoded. Lines are one-based.

Defaults for the global flags can be set with the ` + constants.EnvBackend + `,
` + constants.EnvJobs + ` and ` + constants.EnvVerbose + ` environment variables or in a ` + constants.EnvFile + ` file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	linesCmd := &cobra.Command{
		Use:   "lines <file>...",
		Short: "Print the line of every key and value",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runner(cmd)
			if err != nil {
				return err
			}
			return r.Lines(args)
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the annotated tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runner(cmd)
			if err != nil {
				return err
			}
			return r.Dump(args[0])
		},
	}

	locateCmd := &cobra.Command{
		Use:   "locate <file> <json-pointer>",
		Short: "Print file:line for the value at a JSON pointer",
		Long: `Print file:line for the value at an RFC 6901 JSON pointer.

Examples:
  ` + constants.CLIName + ` locate service.yaml /spec/containers/0/image
  ` + constants.CLIName + ` locate service.yaml /metadata/name --key`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetBool("key")
			r, err := runner(cmd)
			if err != nil {
				return err
			}
			return r.Locate(args[0], args[1], key)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate files against a JSON schema and report the offending lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			r, err := runner(cmd)
			if err != nil {
				return err
			}
			return r.Check(schema, args)
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <file>...",
		Short: "Check that every value has a line and the content matches a plain decode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runner(cmd)
			if err != nil {
				return err
			}
			return r.Verify(args)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch <file-or-directory>",
		Short: "Print lines again whenever the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runner(cmd)
			if err != nil {
				return err
			}
			return r.Watch(cmd.Context(), args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), console.FormatInfoMessage(fmt.Sprintf("%s version %s", constants.CLIName, version)))
		},
	}

	root.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output showing detailed information")
	root.PersistentFlags().StringVarP(&cfg.Backend, "backend", "b", "", "YAML library to parse with (yamlv3, goccy)")
	root.PersistentFlags().IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Number of files decoded at once")

	locateCmd.Flags().BoolP("key", "k", false, "Report the line of the mapping key instead of its value")

	checkCmd.Flags().StringP("schema", "s", "", "JSON schema file to validate against")
	_ = checkCmd.MarkFlagRequired("schema")

	root.AddCommand(linesCmd)
	root.AddCommand(dumpCmd)
	root.AddCommand(locateCmd)
	root.AddCommand(checkCmd)
	root.AddCommand(verifyCmd)
	root.AddCommand(watchCmd)
	root.AddCommand(versionCmd)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		stop()
		os.Exit(1)
	}
}
