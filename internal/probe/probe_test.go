package probe

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/FranksOps/shopsift/internal/domains"
	"github.com/FranksOps/shopsift/internal/gate"
	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/internal/scraper/scrapertest"
)

func candidates(t *testing.T, raw ...string) []domains.Candidate {
	t.Helper()
	out := make([]domains.Candidate, len(raw))
	for i, r := range raw {
		out[i] = domains.Candidate{Index: i, Raw: r, URL: domains.StorefrontURL(r)}
	}
	return out
}

func newRouter() *scrapertest.Router {
	return scrapertest.NewRouter().
		HandleFunc("vp.example", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><head><script src="https://cdn.verifypass.com/verifypass.js"></script></head></html>`)
		}).
		HandleFunc("plain.example", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body>Welcome</body></html>`)
		}).
		HandleFunc("locked.example", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `<html><body><form action="/password">Opening soon</form></body></html>`)
		}).
		HandleFunc("slow.example", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(30 * time.Millisecond)
			fmt.Fprint(w, `<div data-verifypass></div>`)
		}).
		Refuse("down.example")
}

func TestRun(t *testing.T) {
	router := newRouter()
	fetcher := router.Fetcher(t, PipelineName, 0)
	cands := candidates(t, "slow.example", "vp.example", "plain.example", "down.example", "locked.example", "vp.example")

	res := Run(context.Background(), fetcher, cands, Config{Concurrency: 2, RunID: "run"}, nil)

	if len(res.Records) != len(cands) {
		t.Fatalf("expected %d records, got %d", len(cands), len(res.Records))
	}
	for i, r := range res.Records {
		if r.Domain != cands[i].Raw {
			t.Errorf("record %d domain = %s, want %s", i, r.Domain, cands[i].Raw)
		}
	}

	vp := res.Records[1]
	if !vp.Valid || !vp.HasIntegration || vp.Status() != "200" {
		t.Errorf("unexpected verifypass record: %+v", vp)
	}

	down := res.Records[3]
	if down.Valid || down.Outcome != scraper.OutcomeConnectionError || down.Status() != "connection_error" {
		t.Errorf("unexpected refused record: %+v", down)
	}

	locked := res.Records[4]
	if locked.Valid || locked.Outcome != scraper.OutcomeHTTPError || locked.Status() != "401" {
		t.Errorf("unexpected locked record: %+v", locked)
	}
	if locked.HasIntegration {
		t.Error("non-2xx responses must not report the integration")
	}

	if got := len(res.Results.Rows); got != len(cands) {
		t.Errorf("results rows = %d", got)
	}
	var vpRows []string
	for _, row := range res.VerifyPass.Rows {
		vpRows = append(vpRows, row[0])
	}
	if want := []string{"slow.example", "vp.example", "vp.example"}; !slices.Equal(vpRows, want) {
		t.Errorf("verifypass rows = %v, want %v", vpRows, want)
	}
}

func TestRun_ResultRowLayout(t *testing.T) {
	router := newRouter()
	fetcher := router.Fetcher(t, PipelineName, 0)

	res := Run(context.Background(), fetcher, candidates(t, "vp.example", "plain.example"), Config{}, nil)

	want := []string{"vp.example", "200", "true", "true", "ok", "verifypass.com;verifypass.js;dom:script", "", ""}
	if got := res.Results.Rows[0]; !slices.Equal(got, want) {
		t.Errorf("row = %q, want %q", got, want)
	}
	want = []string{"plain.example", "200", "false", "true", "ok", "", "", ""}
	if got := res.Results.Rows[1]; !slices.Equal(got, want) {
		t.Errorf("row = %q, want %q", got, want)
	}
	if res.Results.Kind != ResultsTable || res.VerifyPass.Kind != VerifyPassTable {
		t.Errorf("table kinds = %s, %s", res.Results.Kind, res.VerifyPass.Kind)
	}
}

func TestCheck_Gate(t *testing.T) {
	router := newRouter()
	fetcher := router.Fetcher(t, PipelineName, 0)

	rec := Check(context.Background(), fetcher, candidates(t, "locked.example")[0])
	if rec.Gate != gate.Password {
		t.Errorf("expected password gate, got %q", rec.Gate)
	}
}

func TestCheck_Timeout(t *testing.T) {
	router := scrapertest.NewRouter().Hang("hang.example")
	fetcher := router.Fetcher(t, PipelineName, 20*time.Millisecond)

	rec := Check(context.Background(), fetcher, candidates(t, "hang.example")[0])
	if rec.Outcome != scraper.OutcomeTimeout || rec.Valid || rec.Status() != "timeout" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestRun_Empty(t *testing.T) {
	router := newRouter()
	res := Run(context.Background(), router.Fetcher(t, PipelineName, 0), nil, Config{}, nil)
	if len(res.Records) != 0 || len(res.Results.Rows) != 0 || len(res.VerifyPass.Rows) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
