package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atinylittleshell/shell/internal/builtin"
	"github.com/atinylittleshell/shell/internal/config"
	"github.com/atinylittleshell/shell/internal/core"
	"github.com/atinylittleshell/shell/internal/driver"
	"github.com/atinylittleshell/shell/internal/journal"
	"github.com/atinylittleshell/shell/internal/styles"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var BUILD_VERSION = "dev"

type flags struct {
	command  string
	interact bool
	noRC     bool
	debug    bool
	version  bool
}

func main() {
	os.Exit(Main(os.Args[1:], os.Stdout, os.Stderr))
}

// Main runs the shell with args and returns the process exit status.
func Main(args []string, stdout, stderr io.Writer) int {
	exitCode := 0
	root := newRootCmd(&exitCode)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, styles.ERROR("shell: "+err.Error()))
		return 1
	}
	return exitCode
}

func newRootCmd(exitCode *int) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "shell [file]",
		Short: "An interactive shell driven by mvdan/sh",
		Long: `shell runs a script file, an inline command, or an interactive session.

  shell                 start an interactive session
  shell script.sh       run a script file
  shell -c "command"    run an inline command
  shell -i -c "..."     run a command, then stay interactive
  shell -d -c "..."     print the syntax tree without running anything`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.version {
				fmt.Fprintln(cmd.OutOrStdout(), BUILD_VERSION)
				return nil
			}

			opts := driver.Options{
				Command:    f.command,
				HasCommand: cmd.Flags().Changed("command"),
				Debug:      f.debug,
				Interact:   f.interact,
				NoRC:       f.noRC,
			}
			if len(args) == 1 {
				opts.File = args[0]
			}

			code, err := run(cmd.Context(), opts)
			*exitCode = code
			return err
		},
	}

	root.Flags().SetInterspersed(false)
	root.Flags().StringVarP(&f.command, "command", "c", "", "run the given command")
	root.Flags().BoolVarP(&f.interact, "interact", "i", false, "stay interactive after running a file or command")
	root.Flags().BoolVar(&f.noRC, "norc", false, "do not source ~/.shellrc")
	root.Flags().BoolVarP(&f.debug, "debug", "d", false, "print the syntax tree instead of executing")
	root.Flags().BoolVar(&f.version, "version", false, "print the build version")

	return root
}

func run(ctx context.Context, opts driver.Options) (int, error) {
	cfg, err := loadConfig()
	if err != nil {
		return 1, err
	}

	logger := initializeLogger(cfg)
	defer logger.Sync()
	logger.Info("-------- new shell session --------", zap.Any("args", os.Args))

	var jrnl builtin.Journal
	if cfg.Journal.Enabled && !opts.Debug {
		if j := initializeJournal(logger); j != nil {
			defer j.Close()
			jrnl = j
			opts.Journal = j
		}
	}

	opts.Config = cfg
	opts.Builtins = builtin.NewDefaultRegistry(jrnl)
	opts.Logger = logger

	code, err := driver.Run(ctx, opts)
	if err != nil {
		logger.Error("fatal error", zap.Error(err))
	}
	return code, err
}

func loadConfig() (*config.Config, error) {
	path, err := core.ConfigFile()
	if err != nil {
		// No home and no SHELL_DATA_DIR: nothing to read.
		return config.DefaultConfig(), nil
	}
	return config.NewLoader(nil).LoadFromFile(path)
}

// initializeLogger writes to the log file in the data directory. Without a
// usable data directory logging is disabled rather than fatal.
func initializeLogger(cfg *config.Config) *zap.Logger {
	if _, err := core.EnsureDataDir(); err != nil {
		return zap.NewNop()
	}
	logFile, err := core.LogFile()
	if err != nil {
		return zap.NewNop()
	}

	logLevel := cfg.Level()
	if BUILD_VERSION == "dev" && os.Getenv("SHELL_LOG_LEVEL") == "" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if config.ShouldCleanLogFile() {
		os.Remove(logFile)
	}

	// Logs only go to the file so they never interleave with the line editor.
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{logFile}
	loggerConfig.ErrorOutputPaths = []string{logFile}

	logger, err := loggerConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// initializeJournal opens the command journal. The shell works without it,
// so failures are only logged.
func initializeJournal(logger *zap.Logger) *journal.Journal {
	path, err := core.JournalFile()
	if err != nil {
		logger.Warn("no location for the command journal", zap.Error(err))
		return nil
	}
	j, err := journal.Open(path)
	if err != nil {
		logger.Warn("failed to open the command journal", zap.String("path", path), zap.Error(err))
		return nil
	}
	return j
}

