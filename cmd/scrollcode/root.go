// Package cmd is scrollcode's cobra CLI entry point: the host shell that
// turns file paths on the command line into tui.Source values and hands
// them to a running Bubble Tea program. Persistent flags are bound through
// viper, and a single RunE builds and runs the program — there is only one
// command since scrollcode has no daemon/registry/workflow surface to
// expose subcommands for.
package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/scrollcode/internal/config"
	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/log"
	"github.com/zjrosen/scrollcode/internal/telemetry"
	"github.com/zjrosen/scrollcode/internal/tui"
)

func init() {
	// Force lipgloss/termenv to query terminal background color before any
	// Bubble Tea program starts: otherwise the terminal's OSC 11 response
	// can race with Bubble Tea's input loop.
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	watchFlag bool
	diffFlag  bool
	patchFlag string
	styleFlag string
)

var rootCmd = &cobra.Command{
	Use:   "scrollcode [files...]",
	Short: "A virtualized, syntax-highlighted code and diff viewer",
	Long: `scrollcode renders source files and file-to-file diffs in a scroll
container without materializing the whole document at once.

Usage:
  scrollcode file.go                 # view one or more files
  scrollcode a.go b.go                # each argument becomes its own instance
  scrollcode --diff old.go new.go     # diff two files
  scrollcode --patch change.diff      # render a precomputed unified-diff patch`,
	Version: version,
	Args:    cobra.ArbitraryArgs,
	RunE:    runApp,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: $XDG_CONFIG_HOME/scrollcode/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging to debug.log (also: SCROLLCODE_DEBUG=1)")
	rootCmd.Flags().BoolVar(&watchFlag, "watch", false,
		"re-render when a watched file changes on disk")
	rootCmd.Flags().BoolVar(&diffFlag, "diff", false,
		"treat the two positional arguments as old/new sides of a diff")
	rootCmd.Flags().StringVar(&patchFlag, "patch", "",
		"render a precomputed unified-diff patch file instead of positional arguments")
	rootCmd.Flags().StringVar(&styleFlag, "style", "unified",
		`diff presentation: "unified" or "split"`)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string reported by --version, called from
// main with ldflags-injected build info.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func runApp(c *cobra.Command, args []string) error {
	debug := os.Getenv("SCROLLCODE_DEBUG") != "" || debugFlag
	if debug {
		logPath := os.Getenv("SCROLLCODE_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.InitWithTeaLog(logPath, "scrollcode")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "scrollcode starting", "version", version, "logPath", logPath)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	trace, err := telemetry.NewProvider(telemetry.Config(cfg.Tracing))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = trace.Shutdown(c.Context()) }()

	loader, err := newSourceLoader(args, diffFlag, patchFlag)
	if err != nil {
		return err
	}

	sources, err := loader.load()
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("nothing to render: pass one or more files, --diff old new, or --patch file")
	}

	var style diffiter.DiffStyle
	switch styleFlag {
	case "unified":
		style = diffiter.StyleUnified
	case "split":
		style = diffiter.StyleSplit
	default:
		return fmt.Errorf(`--style must be "unified" or "split", got %q`, styleFlag)
	}

	cfgPath := cfgFile
	if cfgPath == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			cfgPath = p
		}
	}

	model, err := tui.New(cfg, sources, trace, cfgPath)
	if err != nil {
		return fmt.Errorf("building program: %w", err)
	}
	model.SetStyle(style)

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(p)

	var stopWatch func()
	if watchFlag {
		stopWatch, err = watchSources(p, loader)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer stopWatch()
	}

	_, runErr := p.Run()

	if cerr := model.Close(); cerr != nil && runErr == nil {
		runErr = cerr
	}
	if debug {
		if runErr != nil {
			log.Error(log.CatConfig, "scrollcode shutting down with error", "error", runErr)
		} else {
			log.Info(log.CatConfig, "scrollcode shutting down")
		}
	}
	if runErr != nil {
		return fmt.Errorf("running program: %w", runErr)
	}
	return nil
}
