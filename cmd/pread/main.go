// pread reads files at an offset, either directly on the host or from a
// WebAssembly guest through the "io_pread" host module.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/peterbourgon/ff/v3/ffyaml"
	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero/experimental/logging"
)

// envVarPrefix prefixes environment variables that set flags, for example
// PREAD_MAX_BUFFER_SIZE for -max-buffer-size.
const envVarPrefix = "PREAD"

// exitError carries a process exit code out of a subcommand.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	os.Exit(doMain(os.Args[1:], os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(args []string, stdOut, stdErr logging.Writer) int {
	logger := logrus.New()
	logger.SetOutput(stdErr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	fs := flag.NewFlagSet("pread", flag.ContinueOnError)
	fs.SetOutput(stdErr)
	verbose := fs.Bool("v", false, "Enable debug logging.")
	configFlag(fs)

	root := &ffcli.Command{
		Name:       "pread",
		ShortUsage: "pread [-v] [-config file] <subcommand> [flags]",
		ShortHelp:  "Positioned reads on the host or from WebAssembly guests",
		FlagSet:    fs,
		Options:    ffOptions(),
		Subcommands: []*ffcli.Command{
			newCatCmd(stdOut, stdErr, logger),
			newRunCmd(stdOut, stdErr, logger),
		},
	}
	root.Exec = func(context.Context, []string) error {
		fmt.Fprintln(stdErr, ffcli.DefaultUsageFunc(root))
		return flag.ErrHelp
	}

	if err := root.Parse(args); err != nil {
		return exitCode(err, stdErr)
	}
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return exitCode(root.Run(context.Background()), stdErr)
}

func ffOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix(envVarPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
		ff.WithAllowMissingConfigFile(true),
		// The same config file serves every subcommand.
		ff.WithIgnoreUndefined(true),
	}
}

// configFlag defines -config on fs. Every flag set needs its own so ff can
// find the file whichever command is parsing.
func configFlag(fs *flag.FlagSet) {
	fs.String("config", "", "YAML file with flag values. Flags may also be set with "+envVarPrefix+"_ environment variables.")
}

func exitCode(err error, stdErr logging.Writer) int {
	var exitErr *exitError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &exitErr):
		return exitErr.code
	}
	fmt.Fprintln(stdErr, "error:", err)
	return 1
}
