// Package main is the recset command line tool.
//
// recset converts record datasources between CSV and JSON, reports on their
// content and keeps a converted copy in sync with a source file. Records are
// handled schemaless: every column or key becomes an attribute.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/maruel/recset/internal/calendar"
	"github.com/maruel/recset/internal/recordset"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "recset: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "usage: recset [flags] <command> [args]\n\n")
	_, _ = fmt.Fprintf(out, "commands:\n")
	_, _ = fmt.Fprintf(out, "  convert <src> <dst>  rewrite src as dst; formats follow the extensions\n")
	_, _ = fmt.Fprintf(out, "  inspect <path>       print columns, counts and duplicated content\n")
	_, _ = fmt.Fprintf(out, "  watch <src> <dst>    convert, then convert again each time src changes\n\n")
	_, _ = fmt.Fprintf(out, "flags:\n")
	flag.PrintDefaults()
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	configPath := flag.String("config", "", "YAML configuration file")
	separator := flag.String("separator", "", "Compound CSV column separator (overrides the configuration)")
	noFlatten := flag.Bool("no-flatten", false, "Write nested values as JSON cells instead of compound columns")
	tz := flag.String("tz", "", "Display time standard: utc, cst or local (overrides the configuration)")
	schema := flag.Bool("schema", false, "inspect: print the JSON Schema of the record type")
	flag.Usage = usage
	flag.Parse()

	if *version {
		printVersion()
		return nil
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case time.Time:
				skip = t.IsZero()
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	cfg := recordset.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = recordset.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *separator != "" {
		cfg.Separator = *separator
	}
	if *noFlatten {
		cfg.Flatten = false
	}
	if *tz != "" {
		std, err := calendar.ParseStandard(*tz)
		if err != nil {
			return err
		}
		cfg.DisplayStandard = std
	}
	cfg.Logger = logger
	if err := cfg.Validate(); err != nil {
		return err
	}

	args := flag.Args()
	switch cmd := args[0]; cmd {
	case "convert":
		if len(args) != 3 {
			return errors.New("usage: recset convert <src> <dst>")
		}
		return convert(args[1], args[2], cfg)
	case "inspect":
		if len(args) != 2 {
			return errors.New("usage: recset inspect <path>")
		}
		return inspect(os.Stdout, args[1], cfg, *schema)
	case "watch":
		if len(args) != 3 {
			return errors.New("usage: recset watch <src> <dst>")
		}
		return watch(ctx, args[1], args[2], cfg)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("recset %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
