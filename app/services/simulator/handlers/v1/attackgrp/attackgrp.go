// Package attackgrp maintains the group of handlers for running and
// inspecting attack scenarios.
package attackgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/doublespend/business/core/attack"
	"github.com/ardanlabs/doublespend/business/sys/validate"
	"github.com/ardanlabs/doublespend/business/web/errs"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/ardanlabs/doublespend/foundation/events"
	"github.com/ardanlabs/doublespend/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of attack endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Sim     *attack.Simulator
	Genesis genesis.Genesis
	Evts    *events.Events
	WS      websocket.Upgrader
}

// QueryGenesis returns the default genesis of a run.
func (h Handlers) QueryGenesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Genesis, http.StatusOK)
}

// Race runs a race attack with the provided configuration.
func (h Handlers) Race(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.run(ctx, w, r, attack.KindRace)
}

// Majority runs a majority attack with the provided configuration.
func (h Handlers) Majority(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.run(ctx, w, r, attack.KindMajority)
}

// Query returns the recently recorded scenarios.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	scenarios := h.Sim.Query()

	list := make([]scenarioSummary, len(scenarios))
	for i, s := range scenarios {
		list[i] = toSummary(s)
	}

	return web.Respond(ctx, w, list, http.StatusOK)
}

// QueryByID returns the full record of a scenario.
func (h Handlers) QueryByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	scenario, err := h.Sim.QueryByID(web.Param(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrInvalidID):
			return errs.NewTrusted(err, http.StatusBadRequest)
		case errors.Is(err, attack.ErrNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		default:
			return fmt.Errorf("query: %w", err)
		}
	}

	return web.Respond(ctx, w, scenario, http.StatusOK)
}

// Events handles a web socket to stream viewer events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// run decodes the run configuration on top of the defaults of the service
// genesis and simulates the attack. The run is bound to the request context.
func (h Handlers) run(ctx context.Context, w http.ResponseWriter, r *http.Request, kind attack.Kind) error {
	cfg := attack.NewConfig(h.Genesis)
	if err := web.Decode(r, &cfg); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("attack", "traceid", web.GetTraceID(ctx), "kind", kind, "share", cfg.AttackerHashShare, "depth", cfg.ConfirmationDepth)

	scenario, err := h.Sim.Run(ctx, kind, cfg)
	if err != nil {
		if errors.Is(err, attack.ErrConfigRejected) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("run: %w", err)
	}

	return web.Respond(ctx, w, scenario, http.StatusOK)
}
