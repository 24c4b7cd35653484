package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/experimental/logging"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/iopread/pread/imports/iopread"
)

type runConfig struct {
	wasmPath      string
	wasmArgs      []string
	files         []string
	allocator     string
	deallocator   string
	maxBufferSize uint
	hostlogging   bool
}

func newRunCmd(stdOut, stdErr logging.Writer, logger logrus.FieldLogger) *ffcli.Command {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stdErr)
	configFlag(fs)

	var files sliceFlag
	fs.Var(&files, "file",
		"Host file to expose to the guest's pread, in the form <fd>=<path>. "+
			"This may be specified multiple times.")
	allocator := fs.String("allocator", iopread.DefaultAllocatorName,
		"Guest export called to allocate read buffers.")
	deallocator := fs.String("deallocator", iopread.DefaultDeallocatorName,
		"Guest export called to free buffers of reads that return no data. Empty never frees.")
	maxBufferSize := fs.Uint("max-buffer-size", 0, "Fail reads larger than this many bytes. Zero is unlimited.")
	hostlogging := fs.Bool("hostlogging", false, "Log every function call to stderr.")

	return &ffcli.Command{
		Name:       "run",
		ShortUsage: "pread run [-file fd=path]... <wasm> [args...]",
		ShortHelp:  "Run a WebAssembly guest with WASI and io_pread",
		FlagSet:    fs,
		Options:    ffOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				fmt.Fprintln(stdErr, "missing path to wasm file")
				return &exitError{code: 1}
			}
			return doRun(ctx, runConfig{
				wasmPath:      args[0],
				wasmArgs:      args[1:],
				files:         files,
				allocator:     *allocator,
				deallocator:   *deallocator,
				maxBufferSize: *maxBufferSize,
				hostlogging:   *hostlogging,
			}, stdOut, stdErr, logger)
		},
	}
}

func doRun(ctx context.Context, c runConfig, stdOut, stdErr logging.Writer, logger logrus.FieldLogger) error {
	if c.maxBufferSize > math.MaxUint32 {
		return fmt.Errorf("invalid max-buffer-size %d: exceeds %d", c.maxBufferSize, uint64(math.MaxUint32))
	}

	wasm, err := os.ReadFile(c.wasmPath)
	if err != nil {
		return fmt.Errorf("error reading wasm binary: %w", err)
	}

	exporter := iopread.NewFunctionExporter().
		WithAllocator(c.allocator).
		WithDeallocator(c.deallocator).
		WithMaxBufferSize(uint32(c.maxBufferSize)).
		WithLogger(logger)
	for _, file := range c.files {
		fd, path, err := parseFileFlag(file)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("invalid file %q: %w", file, err)
		}
		defer f.Close()
		logger.WithFields(logrus.Fields{"fd": fd, "path": path}).Debug("exposing file")
		exporter = exporter.WithHandle(fd, f)
	}

	if c.hostlogging {
		ctx = experimental.WithFunctionListenerFactory(ctx, logging.NewLoggingListenerFactory(stdErr))
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	if _, err = exporter.Instantiate(ctx, rt); err != nil {
		return err
	}

	conf := wazero.NewModuleConfig().
		WithStdout(stdOut).
		WithStderr(stdErr).
		WithArgs(append([]string{c.wasmPath}, c.wasmArgs...)...)

	_, err = rt.InstantiateWithConfig(ctx, wasm, conf)
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code != 0 {
			return &exitError{code: int(code)}
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("error instantiating wasm binary: %w", err)
	}
	return nil
}

// parseFileFlag parses a -file value of the form <fd>=<path>.
func parseFileFlag(value string) (uint32, string, error) {
	fdText, path, ok := strings.Cut(value, "=")
	if !ok || path == "" {
		return 0, "", fmt.Errorf("invalid file %q: expected <fd>=<path>", value)
	}
	fd, err := strconv.ParseUint(fdText, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("invalid file %q: bad fd: %w", value, err)
	}
	return uint32(fd), path, nil
}

type sliceFlag []string

func (f *sliceFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *sliceFlag) Set(s string) error {
	*f = append(*f, s)
	return nil
}
