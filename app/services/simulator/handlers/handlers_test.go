package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/doublespend/app/services/simulator/handlers"
	"github.com/ardanlabs/doublespend/business/core/attack"
	"github.com/ardanlabs/doublespend/business/web/errs"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/ardanlabs/doublespend/foundation/blockchain/node"
	"github.com/ardanlabs/doublespend/foundation/blockchain/peer"
	"github.com/ardanlabs/doublespend/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Attack(t *testing.T) {
	log := zap.NewNop().Sugar()

	api := handlers.APIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		Sim:      attack.NewSimulator(nil, 10),
		Genesis:  genesis.Default(),
		Evts:     events.New(),
	})

	t.Log("Given the need to run attacks over the web api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen posting a race configuration.", testID)
		{
			body := `{"difficulty":1,"attacker_hash_share":1,"confirmation_depth":0,"max_rounds":5}`
			r := httptest.NewRequest(http.MethodPost, "/v1/attack/race", strings.NewReader(body))
			w := httptest.NewRecorder()
			api.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			var scenario attack.Scenario
			if err := json.Unmarshal(w.Body.Bytes(), &scenario); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould unmarshal the scenario: %v", failed, testID, err)
			}

			if scenario.Outcome != attack.OutcomeAttackerWon {
				t.Fatalf("\t%s\tTest %d:\tShould let the attacker win: %s", failed, testID, scenario.Outcome)
			}
			t.Logf("\t%s\tTest %d:\tShould let the attacker win.", success, testID)

			r = httptest.NewRequest(http.MethodGet, "/v1/attack/"+scenario.ID, nil)
			w = httptest.NewRecorder()
			api.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould find the scenario: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould find the scenario.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen posting a negative difficulty.", testID)
		{
			r := httptest.NewRequest(http.MethodPost, "/v1/attack/majority", strings.NewReader(`{"difficulty":-1}`))
			w := httptest.NewRecorder()
			api.ServeHTTP(w, r)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)

			var resp errs.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould unmarshal the response: %v", failed, testID, err)
			}

			if _, exists := resp.Fields["difficulty"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould name the difficulty field: %v", failed, testID, resp.Fields)
			}
			t.Logf("\t%s\tTest %d:\tShould name the difficulty field.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for an unknown scenario.", testID)
		{
			r := httptest.NewRequest(http.MethodGet, "/v1/attack/8c6a5a4e-7c0c-4a36-9f17-7a1c3bd2dd1e", nil)
			w := httptest.NewRecorder()
			api.ServeHTTP(w, r)

			if w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 404: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 404.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for the genesis.", testID)
		{
			r := httptest.NewRequest(http.MethodGet, "/v1/genesis", nil)
			w := httptest.NewRecorder()
			api.ServeHTTP(w, r)

			var g genesis.Genesis
			if err := json.Unmarshal(w.Body.Bytes(), &g); err != nil || w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould return the genesis: %d %v", failed, testID, w.Code, err)
			}

			if g.Difficulty != genesis.Default().Difficulty {
				t.Fatalf("\t%s\tTest %d:\tShould return the default difficulty: %d", failed, testID, g.Difficulty)
			}
			t.Logf("\t%s\tTest %d:\tShould return the default genesis.", success, testID)
		}
	}
}

func Test_Node(t *testing.T) {
	log := zap.NewNop().Sugar()

	gen := genesis.Default()
	gen.Difficulty = 1

	network := node.NewNetwork(nil)
	for _, name := range []string{"node-0", "node-1"} {
		if _, err := node.New(node.Config{Name: name, Genesis: gen, HashShare: 0.5, Network: network, MaxAttempts: 1 << 16}); err != nil {
			t.Fatalf("\t%s\tShould be able to start node %s: %v", failed, name, err)
		}
	}

	api := handlers.APIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		Sim:      attack.NewSimulator(nil, 10),
		Genesis:  gen,
		Evts:     events.New(),
		Network:  network,
	})

	do := func(method string, path string, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		api.ServeHTTP(w, r)
		return w
	}

	t.Log("Given the need to drive the playground nodes over the web api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen adding peers.", testID)
		{
			table := []struct {
				name string
				body string
				code int
			}{
				{name: "known", body: `{"name":"node-1"}`, code: http.StatusCreated},
				{name: "self", body: `{"name":"node-0"}`, code: http.StatusBadRequest},
				{name: "unknown", body: `{"name":"ghost"}`, code: http.StatusNotFound},
				{name: "missing", body: `{}`, code: http.StatusBadRequest},
			}

			for _, tt := range table {
				t.Run(tt.name, func(t *testing.T) {
					w := do(http.MethodPost, "/v1/node/node-0/peer", tt.body)
					if w.Code != tt.code {
						t.Fatalf("\t%s\tTest %d:\tShould receive a status code of %d: %d %s", failed, testID, tt.code, w.Code, w.Body)
					}
					t.Logf("\t%s\tTest %d:\tShould receive a status code of %d.", success, testID, tt.code)
				})
			}

			w := do(http.MethodGet, "/v1/node/list", "")

			var statuses []peer.PeerStatus
			if err := json.Unmarshal(w.Body.Bytes(), &statuses); err != nil || len(statuses) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould list both nodes: %d %v %s", failed, testID, w.Code, err, w.Body)
			}

			if statuses[0].Name != "node-0" || len(statuses[0].KnownPeers) != 1 || statuses[0].KnownPeers[0].Name != "node-1" {
				t.Fatalf("\t%s\tTest %d:\tShould list node-1 as the only peer of node-0: %+v", failed, testID, statuses[0])
			}
			t.Logf("\t%s\tTest %d:\tShould list node-1 as the only peer of node-0.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting transactions.", testID)
		{
			w := do(http.MethodPost, "/v1/node/node-0/tx", `{"sender":"alice","receiver":"bob","amount":"5","nonce":0}`)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 201: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 201.", success, testID)

			w = do(http.MethodPost, "/v1/node/node-0/tx", `{"sender":"alice","receiver":"bob","amount":"5","nonce":0}`)
			if w.Code != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould reject the resubmitted spend with 409: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the resubmitted spend with 409.", success, testID)

			w = do(http.MethodPost, "/v1/node/node-1/tx", `{"sender":"alice","receiver":"carol","amount":"5","nonce":0}`)
			if w.Code != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould reject the double spend at the peer with 409: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the double spend at the peer with 409.", success, testID)

			table := []struct {
				name string
				body string
				code int
			}{
				{name: "receiver", body: `{"sender":"alice","amount":"5"}`, code: http.StatusBadRequest},
				{name: "amount", body: `{"sender":"alice","receiver":"bob","amount":"-1","nonce":1}`, code: http.StatusBadRequest},
				{name: "currency", body: `{"sender":"alice","receiver":"bob","amount":"1","currency":"XYZ","nonce":1}`, code: http.StatusBadRequest},
				{name: "unknown-field", body: `{"sender":"alice","receiver":"bob","amount":"1","fee":1}`, code: http.StatusBadRequest},
			}

			for _, tt := range table {
				t.Run(tt.name, func(t *testing.T) {
					w := do(http.MethodPost, "/v1/node/node-0/tx", tt.body)
					if w.Code != tt.code {
						t.Fatalf("\t%s\tTest %d:\tShould receive a status code of %d: %d %s", failed, testID, tt.code, w.Code, w.Body)
					}
					t.Logf("\t%s\tTest %d:\tShould receive a status code of %d.", success, testID, tt.code)
				})
			}
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining a block and broadcasting it.", testID)
		{
			w := do(http.MethodPost, "/v1/node/node-0/mine", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			var bd database.BlockData
			if err := json.Unmarshal(w.Body.Bytes(), &bd); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould unmarshal the block: %v", failed, testID, err)
			}

			if bd.Header.Number != 1 || len(bd.Trans) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould mine block 1 with the coinbase and the spend: %d %d", failed, testID, bd.Header.Number, len(bd.Trans))
			}
			t.Logf("\t%s\tTest %d:\tShould mine block 1 with the coinbase and the spend.", success, testID)

			var resp struct {
				Length int                  `json:"length"`
				Valid  bool                 `json:"valid"`
				Blocks []database.BlockData `json:"blocks"`
			}

			w = do(http.MethodGet, "/v1/node/node-1/chain", "")
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould return the chain of the peer: %d %v", failed, testID, w.Code, err)
			}

			if resp.Length != 2 || !resp.Valid || resp.Blocks[1].Hash != bd.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould find the mined block at the peer: %+v", failed, testID, resp)
			}
			t.Logf("\t%s\tTest %d:\tShould find the mined block at the peer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen naming an unknown node.", testID)
		{
			for _, path := range []string{"/v1/node/ghost/chain", "/v1/node/ghost/mine", "/v1/node/ghost/tx", "/v1/node/ghost/peer"} {
				method := http.MethodPost
				if strings.HasSuffix(path, "chain") {
					method = http.MethodGet
				}

				w := do(method, path, "")
				if w.Code != http.StatusNotFound {
					t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 404 for %s: %d", failed, testID, path, w.Code)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 404.", success, testID)
		}
	}
}
