// Command prtdcd runs the PRT-7 decoding service. It reads framed lines
// from a serial port (or a capture file in sim mode), feeds them through
// the decoder, and serves the live session state over HTTP while recording
// every frame to sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/prt7.report/internal/api"
	"github.com/banshee-data/prt7.report/internal/config"
	"github.com/banshee-data/prt7.report/internal/db"
	"github.com/banshee-data/prt7.report/internal/prt7"
	"github.com/banshee-data/prt7.report/internal/serialmux"
	"github.com/banshee-data/prt7.report/internal/version"
)

var (
	simMode     = flag.Bool("sim", false, "Replay frames from the fixtures file instead of a serial port")
	replayFile  = flag.String("replay", "", "Replay frames from the given capture file")
	serialPort  = flag.String("serial", "", "Serial port to read frames from")
	baudRate    = flag.Int("baud", 0, "Serial baud rate (default 9600)")
	listen      = flag.String("listen", "", "HTTP listen address (default :8080)")
	dbPath      = flag.String("db", "", "Path to the sqlite database (default prt7.db)")
	configPath  = flag.String("config", "", "Path to a JSON config file")
	strictMap   = flag.Bool("strict-map", false, "Reject map frames whose argument is not a plain integer")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const fixturesFile = "fixtures.txt"

// renderEventLine formats a decoder event for the console narration.
// An empty return means the event is not narrated.
func renderEventLine(e prt7.Event) string {
	switch ev := e.(type) {
	case prt7.FrameReceived:
		return ""
	case prt7.FrameInvalid:
		return fmt.Sprintf("skipping line %q: %s", ev.RawLine, ev.Reason)
	case prt7.LoadProcessed:
		return fmt.Sprintf("loaded %q as %q, message so far: %s", ev.RawSymbol, ev.DecodedSymbol, ev.MessageSoFar)
	case prt7.RotationApplied:
		return fmt.Sprintf("rotor advanced by %d (effective shift %d), mapping now %s", ev.RawDelta, ev.EffectiveShift, ev.RotorTable)
	case prt7.SessionComplete:
		return fmt.Sprintf("session complete, hidden message: %s", ev.FinalMessage)
	}
	return ""
}

// consoleSink narrates decoder progress to the process log.
func consoleSink() prt7.Sink {
	return prt7.SinkFunc(func(e prt7.Event) {
		if line := renderEventLine(e); line != "" {
			log.Print(line)
		}
	})
}

// loadConfig merges the optional config file with command line flags.
// Flags take precedence over the file for any value set on both.
func loadConfig() (*config.DecoderConfig, error) {
	cfg := config.EmptyDecoderConfig()
	if *configPath != "" {
		loaded, err := config.LoadDecoderConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *serialPort != "" {
		cfg.SerialPort = serialPort
	}
	if *baudRate > 0 {
		cfg.BaudRate = baudRate
	}
	if *replayFile != "" {
		cfg.ReplayFile = replayFile
	}
	if *listen != "" {
		cfg.ListenAddr = listen
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	if *strictMap {
		cfg.StrictMapNumbers = strictMap
	}

	return cfg, nil
}

// openMux selects the frame source. Sim mode and --replay read a capture
// file; otherwise a real serial port is opened.
func openMux(cfg *config.DecoderConfig) (serialmux.SerialMuxInterface, string, error) {
	if *simMode {
		m, err := serialmux.NewReplaySerialMux(fixturesFile, cfg.GetReplayDelay())
		return m, "sim", err
	}
	if path := cfg.GetReplayFile(); path != "" {
		m, err := serialmux.NewReplaySerialMux(path, cfg.GetReplayDelay())
		return m, "replay:" + path, err
	}
	if port := cfg.GetSerialPort(); port != "" {
		m, err := serialmux.NewRealSerialMux(port, serialmux.PortOptions{BaudRate: cfg.GetBaudRate()})
		return m, "serial:" + port, err
	}
	return nil, "", fmt.Errorf("no frame source: pass --sim, --replay, or --serial")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("prtdcd %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mux, source, err := openMux(cfg)
	if err != nil {
		log.Fatalf("failed to open frame source: %v", err)
	}
	defer mux.Close()
	log.Printf("reading frames from %s", source)

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	recorder, err := db.NewRecorder(database, source)
	if err != nil {
		log.Fatalf("failed to start session: %v", err)
	}
	log.Printf("recording session %s", recorder.SessionID())

	hub := api.NewHub()
	sink := prt7.MultiSink{consoleSink(), recorder, hub}
	decoder := prt7.NewDecoder(prt7.ParseOptions{StrictMapNumbers: cfg.GetStrictMapNumbers()}, sink)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// subscribe before the monitor starts: Monitor fans lines out only to
	// subscribers that already exist, so a late subscription would lose
	// the head of a finite capture
	subID, lines := mux.Subscribe()

	// run the monitor routine to manage IO on the frame source; when the
	// source is exhausted, closing the mux closes the subscriber channels
	// so the decoder drains and the session completes
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor frame source: %v", err)
		}
		mux.Close()
		log.Print("monitor routine terminated")
	}()

	// feed the subscribed frame lines to the decoder; the session drains
	// when the source closes or the process is signalled
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer mux.Unsubscribe(subID)
		if err := decoder.Run(ctx, lines); err != nil && err != context.Canceled {
			log.Printf("decoder stopped: %v", err)
		}
		log.Print("decoder routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		handler := api.NewServer(mux, database, hub).ServeMux()

		mux.AttachAdminRoutes(handler)
		database.AttachAdminRoutes(handler)

		server := &http.Server{
			Addr:    cfg.GetListenAddr(),
			Handler: api.LoggingMiddleware(handler),
		}

		go func() {
			log.Printf("listening on %s", cfg.GetListenAddr())
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")

	if _, err := os.Stat(cfg.GetDBPath()); err == nil {
		log.Printf("session stored in %s", cfg.GetDBPath())
	}
}
