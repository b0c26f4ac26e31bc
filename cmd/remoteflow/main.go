package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	rferrors "github.com/odvcencio/remoteflow/pkg/errors"
)

// Version information - set via ldflags during build
var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type commandFunc func(ctx context.Context, args []string, stdout, stderr io.Writer) error

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	var handler commandFunc
	switch args[0] {
	case "chain":
		handler = runChainCommand
	case "release":
		handler = runReleaseCommand
	case "dev-engine":
		handler = runDevEngineCommand
	case "version", "--version", "-v":
		printVersion(stdout)
		return exitOK
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitOK
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(stderr, "Error: unknown flag: %s\n", args[0])
		} else {
			fmt.Fprintf(stderr, "Error: unknown command: %s\n", args[0])
		}
		fmt.Fprintln(stderr, "Run 'remoteflow help' for usage.")
		return exitUsage
	}

	return runCommand(ctx, handler, args[1:], stdout, stderr)
}

func runCommand(ctx context.Context, handler commandFunc, args []string, stdout, stderr io.Writer) int {
	if err := handler(ctx, args, stdout, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		for _, tip := range rferrors.Remediation(err) {
			fmt.Fprintf(stderr, "  hint: %s\n", tip)
		}
		return exitCodeForError(err)
	}
	return exitOK
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "remoteflow - client for the remote workflow service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  remoteflow <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  chain --wf TOKEN --with TOKEN [--output NAME --input NAME]")
	fmt.Fprintln(w, "                                   Splice one remote workflow into another")
	fmt.Fprintln(w, "  release --wf TOKEN [--wf TOKEN...]")
	fmt.Fprintln(w, "                                   Release remote workflow handles (best effort)")
	fmt.Fprintln(w, "  dev-engine [--listen ADDR] [--admin ADDR] [--seed N]")
	fmt.Fprintln(w, "                                   Run an in-memory workflow service for local testing")
	fmt.Fprintln(w, "  version                          Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "COMMON FLAGS:")
	fmt.Fprintln(w, "  --config PATH                    Load configuration from PATH")
	fmt.Fprintln(w, "  --target ADDR                    Override connection.target")
	fmt.Fprintln(w, "  --transport grpc|connect         Override connection.transport")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXIT CODES:")
	fmt.Fprintln(w, "  0 success, 1 error, 2 usage")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "remoteflow %s\n", version)
	if commit != "unknown" {
		fmt.Fprintf(w, "  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Fprintf(w, "  Built:      %s\n", buildDate)
	}
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}
