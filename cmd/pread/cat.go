package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero/experimental/logging"

	"github.com/iopread/pread"
)

// exitCodeAgain is returned by cat on end of file or when no data is
// available yet.
const exitCodeAgain = 2

func newCatCmd(stdOut, stdErr logging.Writer, logger logrus.FieldLogger) *ffcli.Command {
	fs := flag.NewFlagSet("cat", flag.ContinueOnError)
	fs.SetOutput(stdErr)
	configFlag(fs)

	length := fs.Int64("n", pread.RestOfFile, "Number of bytes to read. Negative reads to the end of the file.")
	offset := fs.Int64("o", pread.CurrentPosition, "Offset to read from. Negative reads from the current position.")
	maxBufferSize := fs.Int("max-buffer-size", pread.DefaultMaxBufferSize, "Fail reads larger than this many bytes.")

	return &ffcli.Command{
		Name:       "cat",
		ShortUsage: "pread cat [-n length] [-o offset] <file>",
		ShortHelp:  "Read a host file at an offset and write it to stdout",
		LongHelp: "Exits 0 after writing data, or when -n is zero.\n" +
			"Exits 2 at end of file, or when no data is available yet.\n" +
			"Exits 1 on error, printing the failed operation.",
		FlagSet: fs,
		Options: ffOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(stdErr, "missing path to file")
				return &exitError{code: 1}
			}
			return doCat(ctx, args[0], *length, *offset, *maxBufferSize, stdOut, stdErr, logger)
		},
	}
}

func doCat(ctx context.Context, path string, length, offset int64, maxBufferSize int, stdOut, stdErr logging.Writer, logger logrus.FieldLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := pread.NewReader(pread.WithLogger(logger.WithField("path", path)), pread.WithMaxBufferSize(maxBufferSize))

	o := r.Read(ctx, f, length, offset)
	switch o.Kind() {
	case pread.KindData:
		_, err = stdOut.Write(o.Data())
		return err
	case pread.KindAgain:
		fmt.Fprintln(stdErr, "end of file or no data available")
		return &exitError{code: exitCodeAgain}
	case pread.KindError:
		return o.Err()
	}
	return nil
}
