// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/doublespend/app/services/simulator/handlers/v1/attackgrp"
	"github.com/ardanlabs/doublespend/app/services/simulator/handlers/v1/nodegrp"
	"github.com/ardanlabs/doublespend/business/core/attack"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/ardanlabs/doublespend/foundation/blockchain/node"
	"github.com/ardanlabs/doublespend/foundation/events"
	"github.com/ardanlabs/doublespend/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Sim     *attack.Simulator
	Genesis genesis.Genesis
	Evts    *events.Events
	Network *node.Network
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	agh := attackgrp.Handlers{
		Log:     cfg.Log,
		Sim:     cfg.Sim,
		Genesis: cfg.Genesis,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis", agh.QueryGenesis)
	app.Handle(http.MethodPost, version, "/attack/race", agh.Race)
	app.Handle(http.MethodPost, version, "/attack/majority", agh.Majority)
	app.Handle(http.MethodGet, version, "/attack/list", agh.Query)
	app.Handle(http.MethodGet, version, "/attack/:id", agh.QueryByID)
	app.Handle(http.MethodGet, version, "/events", agh.Events)

	ngh := nodegrp.Handlers{
		Log:     cfg.Log,
		Network: cfg.Network,
	}

	app.Handle(http.MethodGet, version, "/node/list", ngh.Query)
	app.Handle(http.MethodPost, version, "/node/:name/tx", ngh.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/node/:name/mine", ngh.Mine)
	app.Handle(http.MethodGet, version, "/node/:name/chain", ngh.Chain)
	app.Handle(http.MethodPost, version, "/node/:name/peer", ngh.AddPeer)
}
