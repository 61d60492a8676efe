package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/doublespend/app/services/simulator/handlers"
	"github.com/ardanlabs/doublespend/business/core/attack"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/ardanlabs/doublespend/foundation/blockchain/node"
	"github.com/ardanlabs/doublespend/foundation/events"
	"github.com/ardanlabs/doublespend/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("SIMULATOR")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
		}
		Simulator struct {
			GenesisFile   string `conf:"help:optional genesis json file merged onto the defaults"`
			KeepScenarios int    `conf:"default:100"`
			ArchiveDir    string `conf:"help:folder archiving completed scenarios, empty disables it"`
		}
		Playground struct {
			Nodes       int    `conf:"default:3"`
			MaxAttempts uint64 `conf:"default:4194304"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "double spend attack simulator",
		},
	}

	const prefix = "SIM"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Simulator Support

	gen := genesis.Default()
	if cfg.Simulator.GenesisFile != "" {
		if gen, err = genesis.Load(cfg.Simulator.GenesisFile); err != nil {
			return fmt.Errorf("loading genesis: %w", err)
		}
	}
	log.Infow("startup", "status", "genesis", "difficulty", gen.Difficulty, "reward", gen.MiningReward, "currency", gen.Currency)

	// The core packages accept a function of this signature to allow the
	// application to log. The messages are also sent to any websocket
	// client connected through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	sim := attack.NewSimulator(ev, cfg.Simulator.KeepScenarios)

	// Completed scenarios are archived on disk so they can be queried after
	// they are dropped from memory.
	if cfg.Simulator.ArchiveDir != "" {
		archive, err := attack.NewArchive(cfg.Simulator.ArchiveDir)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		sim.UseArchive(archive)
	}

	// =========================================================================
	// Playground Support

	// The playground nodes are driven by hand over the api. They start with
	// no known peers, peers are added through the api.
	network := node.NewNetwork(ev)
	for i := 0; i < cfg.Playground.Nodes; i++ {
		name := fmt.Sprintf("node-%d", i)
		if _, err := node.New(node.Config{
			Name:        name,
			Genesis:     gen,
			HashShare:   1 / float64(cfg.Playground.Nodes),
			Network:     network,
			MaxAttempts: cfg.Playground.MaxAttempts,
			Beneficiary: name + "-miner",
			EvHandler:   ev,
		}); err != nil {
			return fmt.Errorf("starting playground node %s: %w", name, err)
		}
	}
	log.Infow("startup", "status", "playground", "nodes", network.Names())

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Sim:      sim,
		Genesis:  gen,
		Evts:     evts,
		Network:  network,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
