package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/lcopy/internal/config"
	"github.com/bamsammich/lcopy/internal/digest"
	"github.com/bamsammich/lcopy/internal/engine"
	"github.com/bamsammich/lcopy/internal/event"
	"github.com/bamsammich/lcopy/internal/manifest"
	"github.com/bamsammich/lcopy/internal/stats"
	"github.com/bamsammich/lcopy/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	digest      string
	bwLimitStr  string
	logFile     string
	recursive   bool
	verbose     bool
	quiet       bool
	rebuild     bool
	verify      bool
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{} // nil makes cobra fall back to os.Args
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "lcopy [-R|-r] [flags] <source>... <destination>",
		Short: "Incremental file copy driven by cached chunk digests",
		Long: `lcopy copies files and directory trees, rewriting only the 128 KiB chunks
whose digests differ. Digests are cached next to each file in a .digs
manifest and rebuilt whenever the file is newer than its manifest.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(stdout, "lcopy %s\n", version)
				return nil
			}
			if len(args) < 2 {
				return cmd.Usage()
			}
			return execute(cmd, &opts, args, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.Flags()
	flags.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "copy directories recursively")
	// Exists only to provide the -R shorthand; the --R long form it also
	// registers is hidden.
	flags.BoolVarP(&opts.recursive, "R", "R", false, "same as --recursive")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "report chunk and manifest activity")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "report failures only")
	flags.StringVar(&opts.digest, "digest", "", "chunk digest algorithm (md5 or blake3, default md5)")
	flags.BoolVar(&opts.rebuild, "rebuild", false, "rebuild every digest manifest regardless of mtime")
	flags.BoolVar(&opts.verify, "verify", false, "verify checksums after copy (BLAKE3)")
	flags.StringVar(&opts.bwLimitStr, "bwlimit", "", "bandwidth limit (e.g. 100M, 1G)")
	flags.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	if err := flags.MarkHidden("R"); err != nil {
		panic(fmt.Sprintf("hide flag: %v", err))
	}

	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

//nolint:revive // cognitive-complexity: CLI entry point wires every component
func execute(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	sources := args[:len(args)-1]
	dst := args[len(args)-1]

	// Configure logging.
	logLevel := slog.LevelInfo
	switch {
	case opts.verbose:
		logLevel = slog.LevelDebug
	case opts.quiet:
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})
	var logHandler slog.Handler = textHandler
	if opts.logFile != "" {
		lf, lfErr := os.Create(opts.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	prevLogger := slog.Default()
	slog.SetDefault(slog.New(logHandler))
	defer slog.SetDefault(prevLogger)

	// Load optional config file.
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}
	applyConfigDefaults(cmd.Flags(), cfg.Defaults, opts)

	// Parse bandwidth limit.
	var bwLimit int64
	if opts.bwLimitStr != "" {
		bwLimit, err = config.ParseSize(opts.bwLimitStr)
		if err != nil {
			return fmt.Errorf("invalid --bwlimit: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer manifest.CleanupTmpFiles()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	// When --log is set, tee events through a logging goroutine
	// that writes structured records before forwarding to the presenter.
	presenterEvents := (<-chan event.Event)(events)
	if opts.logFile != "" {
		teed := make(chan event.Event, 256)
		go func() {
			for ev := range events {
				logEvent(ev)
				teed <- ev
			}
			close(teed)
		}()
		presenterEvents = teed
	}

	presenter := ui.NewPresenter(ui.Config{
		Writer:    stdout,
		ErrWriter: stderr,
		Stats:     collector,
		IsTTY:     isTerminal(stderr),
		Quiet:     opts.quiet,
		Verbose:   opts.verbose,
	})

	engineCfg := engine.Config{
		Events:    events,
		Stats:     collector,
		Sources:   sources,
		Dst:       dst,
		Digest:    digest.Algorithm(opts.digest),
		BWLimit:   bwLimit,
		Recursive: opts.recursive,
		Rebuild:   opts.rebuild,
		Verify:    opts.verify,
	}

	slog.Debug("starting sync",
		"sources", sources,
		"dst", dst,
		"recursive", opts.recursive,
		"digest", opts.digest,
		"rebuild", opts.rebuild,
	)

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	result := engine.Run(ctx, engineCfg)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(stderr, "presenter: %v\n", presenterErr)
	}

	if opts.verbose {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(stderr, summary)
		}
	}

	if result.Err != nil {
		if !errors.Is(result.Err, engine.ErrDestinationNotDir) {
			slog.Error("sync failed", "error", result.Err)
		}
		return &exitError{code: 1}
	}
	if result.Verify != nil && result.Verify.Failed > 0 {
		slog.Error("verification failed", "mismatches", result.Verify.Failed)
		return &exitError{code: 1}
	}
	return nil
}

func logEvent(ev event.Event) {
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("src", ev.Src),
		slog.String("dst", ev.Dst),
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	if ev.Type == event.ChunkCopied {
		attrs = append(attrs, slog.Int64("offset", ev.Offset))
	}
	if ev.Size > 0 {
		attrs = append(attrs, slog.Int64("size", ev.Size))
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	slog.LogAttrs(context.Background(), slog.LevelDebug, "lcopy.event", attrs...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(flags *pflag.FlagSet, defaults config.DefaultsConfig, opts *options) {
	set := make(map[string]bool)
	flags.Visit(func(f *pflag.Flag) { set[f.Name] = true })

	if !set["recursive"] && !set["R"] && defaults.Recursive != nil {
		opts.recursive = *defaults.Recursive
	}
	if !set["verify"] && defaults.Verify != nil {
		opts.verify = *defaults.Verify
	}
	if !set["digest"] && defaults.Digest != nil {
		opts.digest = *defaults.Digest
	}
	if !set["bwlimit"] && defaults.BWLimit != nil {
		opts.bwLimitStr = *defaults.BWLimit
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
