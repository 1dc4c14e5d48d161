package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/tablestakes/internal/results"
	"github.com/lox/tablestakes/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"tablestakes.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	LogFile  string `short:"f" long:"log-file" help:"Log file path (overrides config)"`
	Database string `short:"d" long:"database" help:"Results database path (overrides config)"`
	Seed     int64  `short:"s" long:"seed" help:"Random seed for deterministic shuffles"`
}

// stripANSIWriter strips ANSI color codes before writing to the underlying
// file, so log files stay plain text
type stripANSIWriter struct {
	writer *os.File
}

func (s *stripANSIWriter) Write(p []byte) (n int, err error) {
	stripped := make([]byte, 0, len(p))
	inEscape := false
	for i := 0; i < len(p); i++ {
		if p[i] == '\x1b' && i+1 < len(p) && p[i+1] == '[' {
			inEscape = true
			i++
			continue
		}
		if inEscape {
			if (p[i] >= 'A' && p[i] <= 'Z') || (p[i] >= 'a' && p[i] <= 'z') {
				inEscape = false
			}
			continue
		}
		stripped = append(stripped, p[i])
	}
	if _, err := s.writer.Write(stripped); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// multiTargetWriter writes colored output to the terminal and stripped
// output to the log file
type multiTargetWriter struct {
	termWriter *os.File
	fileWriter *stripANSIWriter
}

func (m *multiTargetWriter) Write(p []byte) (n int, err error) {
	_, err1 := m.termWriter.Write(p)
	_, err2 := m.fileWriter.Write(p)
	if err1 != nil {
		return len(p), err1
	}
	if err2 != nil {
		return len(p), err2
	}
	return len(p), nil
}

func main() {
	kctx := kong.Parse(&CLI)

	if CLI.Seed == 0 {
		CLI.Seed = time.Now().UnixNano()
	}

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.LogFile != "" {
		cfg.Server.LogFile = CLI.LogFile
	}
	if CLI.Database != "" {
		cfg.Server.DatabasePath = CLI.Database
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	var logger *log.Logger
	if cfg.Server.LogFile != "" {
		logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			kctx.Exit(1)
		}
		defer func() { _ = logFile.Close() }()

		logger = log.New(&multiTargetWriter{
			termWriter: os.Stderr,
			fileWriter: &stripANSIWriter{writer: logFile},
		})
	} else {
		logger = log.New(os.Stderr)
	}
	logger.SetColorProfile(termenv.TrueColor)

	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	var store server.Store
	if cfg.Server.DatabasePath != "" {
		resultStore, err := results.Open(cfg.Server.DatabasePath)
		if err != nil {
			logger.Error("Failed to open results database", "error", err, "path", cfg.Server.DatabasePath)
			kctx.Exit(1)
		}
		defer func() { _ = resultStore.Close() }()
		store = resultStore
	} else {
		logger.Warn("No results database configured, standings will not be persisted")
	}

	rng := rand.New(rand.NewSource(CLI.Seed))
	srv := server.NewServer(cfg, logger, store, quartz.NewReal(), rng)

	logger.Info("Starting tablestakes server",
		"addr", cfg.GetServerAddress(),
		"blinds", fmt.Sprintf("%d/%d", cfg.Game.SmallBlind, cfg.Game.BigBlind),
		"hand_limit", cfg.Game.HandLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.Start(cfg.GetServerAddress()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
}
