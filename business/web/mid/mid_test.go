package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/doublespend/business/sys/validate"
	"github.com/ardanlabs/doublespend/business/web/errs"
	"github.com/ardanlabs/doublespend/business/web/mid"
	"github.com/ardanlabs/doublespend/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Errors(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
		fields bool
	}

	tt := []table{
		{name: "trusted", err: errs.NewTrusted(errors.New("scenario not found"), http.StatusNotFound), status: http.StatusNotFound},
		{name: "fields", err: validate.NewFieldError("difficulty", errors.New("too large")), status: http.StatusBadRequest, fields: true},
		{name: "trusted-fields", err: errs.NewTrusted(validate.NewFieldError("share", errors.New("too large")), http.StatusUnprocessableEntity), status: http.StatusUnprocessableEntity, fields: true},
		{name: "untrusted", err: errors.New("database down"), status: http.StatusInternalServerError},
		{name: "panic", status: http.StatusInternalServerError},
	}

	t.Log("Given the need to convert handler errors into responses.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the handler fails with a %s error.", testID, tst.name)
			{
				f := func(t *testing.T) {
					app := web.NewApp(make(chan os.Signal, 1), mid.Errors(zap.NewNop().Sugar()), mid.Metrics(), mid.Panics())

					h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						if tst.err == nil {
							panic("boom")
						}
						return tst.err
					}
					app.Handle(http.MethodGet, "", "/", h)

					w := httptest.NewRecorder()
					app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive status %d: %d", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould receive status %d.", success, testID, tst.status)

					var resp errs.Response
					if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould unmarshal the response: %v", failed, testID, err)
					}

					if tst.fields != (len(resp.Fields) > 0) {
						t.Fatalf("\t%s\tTest %d:\tShould report the fields: %v", failed, testID, resp.Fields)
					}
					t.Logf("\t%s\tTest %d:\tShould report the fields when present.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
