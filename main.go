package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"coinmap.ai/config"
	"coinmap.ai/data"
	"coinmap.ai/game"
	"coinmap.ai/server"
	"coinmap.ai/tui"
)

func main() {
	mode := flag.String("mode", "tui", "client to run: tui or http")
	envFile := flag.String("env", ".env", "optional dotenv file")
	debug := flag.Bool("debug", false, "write logs to the log file in tui mode")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Debug = true
	}

	switch *mode {
	case "http":
		err = serveHTTP(cfg)
	case "tui":
		err = runTUI(cfg)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openGame(cfg config.Config) (*game.Session, io.Closer, error) {
	store, err := cfg.OpenStore()
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	open := closers{store}

	g := game.New(cfg.Game(), store)

	if cfg.Journal {
		path := cfg.JournalPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			open.Close()
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		if recent, err := data.ReadJournal(path, time.Now().Add(-24*time.Hour)); err == nil {
			log.Printf("[main] Journal has %d events from the last 24h", len(recent))
		}
		journal, err := data.OpenJournal(path)
		if err != nil {
			open.Close()
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		open = append(open, journal)
		g.Subscribe(func(ev game.Event) {
			journal.Log(string(ev.Type), ev)
		})
	}

	if g.Start() {
		log.Printf("[main] Resumed at (%s)", g.Player().Position)
	} else {
		log.Printf("[main] New game at (%s)", g.Player().Position)
	}
	return g, open, nil
}

func serveHTTP(cfg config.Config) error {
	g, resources, err := openGame(cfg)
	if err != nil {
		return err
	}
	defer resources.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(g, cfg.RequestTimeout)
	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()

	hs := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hs.Shutdown(shutdown)
	}()

	log.Printf("[main] Listening on %s", cfg.Addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// setupLogging keeps log output off the terminal the map is drawn on
func setupLogging(cfg config.Config) (io.Closer, error) {
	if !cfg.Debug {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

func runTUI(cfg config.Config) error {
	logs, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer logs.Close()

	g, resources, err := openGame(cfg)
	if err != nil {
		return err
	}
	defer resources.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	tui.New(screen, g).Run()

	if err := g.Save(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
