package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// verifyNoLeaks ignores keep-alive connections left by the HTTP tests in
// this package.
func verifyNoLeaks(t *testing.T) {
	goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func TestLatestSupersedesPreviousFetch(t *testing.T) {
	defer verifyNoLeaks(t)

	l := NewLatest()
	started := make(chan struct{})

	type result struct {
		v       string
		current bool
		err     error
	}
	first := make(chan result, 1)
	go func() {
		v, current, err := Fetch(context.Background(), l, "modules", func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "breda", ctx.Err()
		})
		first <- result{v, current, err}
	}()
	<-started

	v, current, err := Fetch(context.Background(), l, "modules", func(ctx context.Context) (string, error) {
		return "tilburg", nil
	})
	if err != nil || !current || v != "tilburg" {
		t.Fatalf("second fetch = %q, %v, %v; want tilburg, true, nil", v, current, err)
	}

	r := <-first
	if r.current {
		t.Error("superseded fetch reported as current")
	}
	if r.err != nil {
		t.Errorf("superseded fetch surfaced error %v", r.err)
	}
	if r.v != "" {
		t.Errorf("superseded fetch returned %q, want zero value", r.v)
	}
}

func TestLatestKeysAreIndependent(t *testing.T) {
	defer verifyNoLeaks(t)

	l := NewLatest()
	release := make(chan struct{})
	done := make(chan bool, 1)
	started := make(chan struct{})

	go func() {
		_, current, _ := Fetch(context.Background(), l, "favorites", func(ctx context.Context) (int, error) {
			close(started)
			select {
			case <-release:
				return 1, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		})
		done <- current
	}()
	<-started

	if current, err := l.Run(context.Background(), "modules", func(context.Context) error { return nil }); !current || err != nil {
		t.Errorf("Run(modules) = %v, %v", current, err)
	}

	close(release)
	if !<-done {
		t.Error("fetch for another key was superseded")
	}
}

func TestLatestRunPassesErrorWhenCurrent(t *testing.T) {
	defer verifyNoLeaks(t)

	l := NewLatest()
	boom := errors.New("boom")
	current, err := l.Run(context.Background(), "modules", func(context.Context) error { return boom })
	if !current || !errors.Is(err, boom) {
		t.Errorf("Run() = %v, %v; want true, boom", current, err)
	}
}

func TestLatestCancelAndClose(t *testing.T) {
	defer verifyNoLeaks(t)

	for name, stop := range map[string]func(*Latest){
		"cancel": func(l *Latest) { l.Cancel("modules") },
		"close":  func(l *Latest) { l.Close() },
	} {
		t.Run(name, func(t *testing.T) {
			l := NewLatest()
			started := make(chan struct{})
			done := make(chan bool, 1)

			go func() {
				current, err := l.Run(context.Background(), "modules", func(ctx context.Context) error {
					close(started)
					<-ctx.Done()
					return ctx.Err()
				})
				if err != nil {
					t.Errorf("stopped fetch surfaced %v", err)
				}
				done <- current
			}()
			<-started
			stop(l)

			select {
			case current := <-done:
				if current {
					t.Error("stopped fetch reported as current")
				}
			case <-time.After(2 * time.Second):
				t.Fatal("fetch was not canceled")
			}
		})
	}
}

// TestSupersededRequestIsNotSurfaced replays a filter change: the Breda list
// is still loading when the user switches to Tilburg.
func TestSupersededRequestIsNotSurfaced(t *testing.T) {
	bredaStarted := make(chan struct{})
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("location") {
		case "Breda":
			close(bredaStarted)
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Second):
			}
			writeJSON(w, http.StatusOK, `[{"name":"stale"}]`)
		default:
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `[{"name":"Ondernemerschap"}]`)
		}
	})
	c := newTestClient(t, srv.URL)
	l := NewLatest()
	defer l.Close()

	type module struct{ Name string }
	list := func(location string) func(ctx context.Context) ([]module, error) {
		return func(ctx context.Context) ([]module, error) {
			var out []module
			err := c.Get(ctx, "/vkm", &out, WithQuery(NewQuery("location", location)))
			return out, err
		}
	}

	type result struct {
		modules []module
		current bool
		err     error
	}
	breda := make(chan result, 1)
	go func() {
		m, current, err := Fetch(context.Background(), l, "vkm-list", list("Breda"))
		breda <- result{m, current, err}
	}()
	<-bredaStarted

	ui, current, err := Fetch(context.Background(), l, "vkm-list", list("Tilburg"))
	if err != nil || !current {
		t.Fatalf("Tilburg fetch = %v, %v", current, err)
	}
	if len(ui) != 1 || ui[0].Name != "Ondernemerschap" {
		t.Errorf("applied modules = %+v", ui)
	}

	select {
	case r := <-breda:
		if r.current || r.err != nil || r.modules != nil {
			t.Errorf("Breda result leaked: %+v", r)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Breda request was not aborted")
	}
}
