package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/internal/control"
)

// module defs - set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

var errNoCommand = errors.New("no command given")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "roversim:", err)
		stop()
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errNoCommand
	}

	switch strings.ToLower(args[0]) {
	case "run":
		configDir := "."
		if len(args) > 1 {
			configDir = args[1]
		}
		return run(ctx, configDir)
	case "levels":
		return listLevels(out)
	case "controllers":
		return listControllers(out)
	case "version":
		fmt.Fprintf(out, "roversim %s (built %s)\n", Version, BuildDate)
		return nil
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, `Usage: roversim <command> [arguments]

Commands:
  run [configDir]   run a simulation using roversim.cfg.json from configDir
  levels            list authenticity levels
  controllers       list built-in controllers
  version           print the version`)
}

func listLevels(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, l := range authenticity.Levels() {
		fmt.Fprintf(w, "%d\t%s\n", int(l), l)
	}
	return w.Flush()
}

func listControllers(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range control.Controllers() {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Description)
	}
	return w.Flush()
}
