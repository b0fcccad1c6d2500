package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/metcalfc/rak/internal/di"
	"github.com/metcalfc/rak/internal/di/providers"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(fs *flag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintf(w, "Rak - personal document library\n\n")
		fmt.Fprintf(w, "Usage:\n")
		fmt.Fprintf(w, "  rak [options]                 Open the library\n")
		fmt.Fprintf(w, "  rak [options] <command> ...   Run one command\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nCommands:\n")
		fmt.Fprintf(w, "  import [-c category] file...  Copy documents into the library\n")
		fmt.Fprintf(w, "  ls [-v view]                  List books (All, Recent or a category)\n")
		fmt.Fprintf(w, "  category ls|add|rename|rm     Manage categories\n")
		fmt.Fprintf(w, "  move <id> <category>          Put a book in a category\n")
		fmt.Fprintf(w, "  rm <id>                       Remove a book and its copy\n")
		fmt.Fprintf(w, "  progress <id> <page>          Record the page you are on\n")
		fmt.Fprintf(w, "  read <id> [page]              Print a page (default: last read)\n")
		fmt.Fprintf(w, "  translate <id> [page]         Translate a page (default: last read)\n")
		fmt.Fprintf(w, "  formats                       List supported formats\n")
		fmt.Fprintf(w, "  version                       Show version information\n")
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rak", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Config file (default: $XDG_CONFIG_HOME/rak/config.yaml)")
	ephemeral := fs.Bool("ephemeral", false, "Keep the library in memory for this run")
	showVersion := fs.Bool("v", false, "Show version information")
	showVersionLong := fs.Bool("version", false, "Show version information")
	fs.Usage = usage(fs, stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	if *showVersion || *showVersionLong || (len(rest) > 0 && rest[0] == "version") {
		fmt.Fprintf(stdout, "rak %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}
	if len(rest) > 0 && rest[0] == "formats" {
		printFormats(stdout)
		return 0
	}

	interactive := len(rest) == 0
	opts := providers.Options{
		ConfigPath: *configPath,
		Ephemeral:  *ephemeral,
		LogToFile:  interactive,
	}
	if !interactive {
		opts.LogWriter = stderr
	}

	injector := di.NewContainer(opts)
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			fmt.Fprintf(stderr, "Error: shutdown: %v\n", err)
		}
	}()

	a, err := di.App(injector)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if interactive {
		if err := runInteractive(a); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runCommand(ctx, a, rest, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, "Try: rak -h")
			return 2
		}
		return 1
	}
	return 0
}
