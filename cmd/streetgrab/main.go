package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/handiism/streetgrab/internal/config"
	"github.com/handiism/streetgrab/internal/download"
	"github.com/handiism/streetgrab/internal/mapillary"
	"github.com/handiism/streetgrab/internal/metrics"
)

const version = "0.8.1"

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("streetgrab", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Float64("radius", 25, "Padding around the street in metres")
	flags.String("out", "./panos", "Output directory")
	flags.Int("threads", 4, "Number of concurrent downloads")
	flags.Bool("pano", false, "Only save 360-degree panoramas")
	flags.Bool("debug", false, "Verbose filtering + geocoder info")
	flags.Bool("geo-debug", false, "Always print geocoder pick regardless of --debug")
	flags.String("metrics-file", "", "Write run counters to this Prometheus textfile")
	flags.String("metrics-addr", "", "Serve /metrics on this address during the run (e.g. :9109)")
	configPath := flags.String("config", "", "Path to config file")
	showVersion := flags.BoolP("version", "V", false, "Show the version and exit")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: streetgrab [options] STREET...")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Download Mapillary street-level imagery around a named street.")
		fmt.Fprintln(stderr, "For interactive mode, use: streetgrab-tui")
		fmt.Fprintln(stderr)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		flags.Usage()
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "streetgrab, version %s\n", version)
		return 0
	}

	query := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if query == "" {
		flags.Usage()
		return 2
	}

	settings, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	if err := settings.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			fmt.Fprintln(stderr, "ERROR: set MAPILLARY_TOKEN")
			return 1
		}
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	logger := zap.NewNop()
	if settings.Debug {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return 1
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &console{w: stdout, debug: settings.Debug, bar: progress.New(progress.WithDefaultGradient())}

	manager, err := download.NewManager(settings, out.event,
		download.WithLogger(logger),
		download.WithAdvance(out.advance),
	)
	if err != nil {
		if errors.Is(err, mapillary.ErrMissingToken) {
			fmt.Fprintln(stderr, "ERROR: set MAPILLARY_TOKEN")
			return 1
		}
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	if settings.MetricsAddr != "" {
		srv := metrics.NewServer(settings.MetricsAddr, manager.Metrics(), logger)
		if err := srv.Start(); err != nil {
			fmt.Fprintf(stderr, "ERROR: metrics server: %v\n", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	code := 0
	if err := manager.Initialize(ctx, query); err != nil {
		code = exitCode(ctx, stderr, err)
	} else if _, err := manager.StartDownloads(ctx); err != nil {
		out.finish()
		code = exitCode(ctx, stderr, err)
	}

	if settings.MetricsFile != "" {
		if err := manager.Metrics().WriteTextfile(settings.MetricsFile); err != nil {
			logger.Warn("could not write metrics", zap.String("path", settings.MetricsFile), zap.Error(err))
		}
	}

	return code
}

func exitCode(ctx context.Context, stderr io.Writer, err error) int {
	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "\nInterrupted.")
		return 130
	}
	fmt.Fprintf(stderr, "ERROR: %v\n", err)
	return 1
}

// console prints progress events and keeps a progress bar on the last line
// while records are being processed.
type console struct {
	mu    sync.Mutex
	w     io.Writer
	debug bool
	bar   progress.Model

	done, total int
	drawn       bool
}

func (c *console) event(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !c.debug {
		return
	}

	line := event.Message
	switch event.Level {
	case download.LevelError:
		line = errorStyle.Render(line)
	case download.LevelWarning:
		line = warningStyle.Render(line)
	case download.LevelSuccess:
		line = successStyle.Render(line)
	case download.LevelVerbose:
		line = dimStyle.Render(line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clear()
	fmt.Fprintln(c.w, line)
	c.draw()
}

func (c *console) advance(done, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done, c.total = done, total
	c.clear()
	c.draw()
	if done >= total {
		fmt.Fprintln(c.w)
		c.drawn = false
		c.total = 0
	}
}

// finish moves past a bar left unfinished by a cancelled run.
func (c *console) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawn {
		fmt.Fprintln(c.w)
	}
	c.drawn = false
	c.total = 0
}

func (c *console) clear() {
	if c.drawn {
		fmt.Fprint(c.w, "\r\033[K")
		c.drawn = false
	}
}

func (c *console) draw() {
	if c.total == 0 {
		return
	}
	percent := float64(c.done) / float64(c.total)
	fmt.Fprintf(c.w, "%s %d/%d img", c.bar.ViewAs(percent), c.done, c.total)
	c.drawn = true
}
