package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"fspider/config"
	"fspider/crawl"
	"fspider/misc"
	"fspider/spider"
	"fspider/state"
)

// initializeAppContext loads configuration and sets up logging and debug
// report once command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}

	var (
		err        error
		env        = state.EnvFromContext(ctx)
		configFile = cmd.String("config")
	)

	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug report: %w", err)
		}
		if len(configFile) > 0 {
			// secrets are masked by Dump
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData("config/"+filepath.Base(configFile), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()

	// log is synced, from now on errors go directly to stderr
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := env.Cfg.Logging.PanicLogName()
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// errWasHandled is set when error has been logged already, so it is not
// printed twice on exit.
var errWasHandled bool

// exitErrHandler runs before application context is destroyed while log is
// still available.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log == nil {
		return
	}
	fields := []zap.Field{zap.Error(err)}
	if chain := spider.FileChain(err); len(chain) > 0 {
		fields = append(fields, zap.Strings("import chain", chain))
	}
	env.Log.Error("Program ended with error", fields...)
	errWasHandled = true
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:         "resolve",
		Usage:        "Resolves @import graph of stylesheet(s) and reports declared and used fonts",
		OnUsageError: usageErrorHandler,
		Action:       crawl.Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to",
				Usage: "output `TYPE` (supported types: " + strings.Join(config.OutputFmtNames(), ", ") + "), overrides configuration"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write results to `DIRECTORY` instead of STDOUT"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "overwrite existing result files"},
			&cli.BoolFlag{Name: "summary", Usage: "add per family summary to the results"},
			&cli.BoolFlag{Name: "check-files", Usage: "check that local font files exist and match their extensions"},
			&cli.BoolFlag{Name: "no-cache", Usage: "do not reuse resolved stylesheets within a session"},
			&cli.IntFlag{Name: "max-imports", Value: spider.DefaultMaxImports,
				Usage: "maximum `NUMBER` of @import rules followed from a single entry stylesheet"},
			&cli.StringFlag{Name: "encoding",
				Usage: "decode stylesheets without BOM and @charset using `ENCODING` (IANA character set name)"},
		},
		ArgsUsage: "SOURCE [SOURCE...]",
		CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    entry stylesheet(s) to process, following forms are supported:
        path to a file: "[path_to_file]main.css"
        path to a directory: "[path_to_directory]directory" - every .css file under directory (symbolic links are not followed)
        remote stylesheet: "https://example.com/css/main.css" (requires spider.http.enable)

    Every entry is resolved in its own session: import ceiling and cache
    are not shared between entries.
`, cli.CommandHelpTemplate),
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "dumpconfig",
		Usage: "Dumps either default or actual configuration (YAML)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		OnUsageError: usageErrorHandler,
		Action:       outputConfiguration,
		ArgsUsage:    "DESTINATION",
		CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Actual configuration is composition of default values and values from
configuration file, secrets are masked. Use --default to see configuration
embedded into the program.
`, cli.CommandHelpTemplate),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "font usage resolver for CSS @import graphs",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log everything and produce report archive for troubleshooting"},
		},
		Commands: []*cli.Command{
			resolveCommand(),
			dumpConfigCommand(),
		},
	}

	var err error
	// os.Exit below skips deferred functions, keep this one last
	defer func() {
		stop()
		if err != nil {
			// log is either not ready yet or already closed
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data  []byte
		err   error
		kind  = "actual"
		fname = cmd.Args().Get(0)
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		env.Log.Debug("Writing configuration", zap.String("state", kind), zap.String("file", "STDOUT"))
		if _, err = os.Stdout.Write(data); err != nil {
			return fmt.Errorf("unable to write configuration: %w", err)
		}
		return nil
	}

	env.Log.Info("Writing configuration", zap.String("state", kind), zap.String("file", fname))
	if err := os.WriteFile(fname, data, 0644); err != nil {
		return fmt.Errorf("unable to write configuration to '%s': %w", fname, err)
	}
	return nil
}
