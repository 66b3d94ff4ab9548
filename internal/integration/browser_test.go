//go:build integration

// Package integration runs keysweep's components together: the supervisor,
// the driver loop, the field interactor, the DevTools host and the panel.
//
// The browser is a fake DevTools endpoint that recognizes the scripts the
// host sends and keeps a tiny model of the page. To run:
//
//	go test -tags=integration ./internal/integration/...
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/thruflo/keysweep/internal/cdp"
)

// fakeBrowser serves /json/list and one page target over WebSocket.
type fakeBrowser struct {
	srv *httptest.Server

	mu           sync.Mutex
	value        string
	values       []string
	clicks       []string
	submits      []string
	missingAfter int
}

func newFakeBrowser(t *testing.T) *fakeBrowser {
	t.Helper()
	b := &fakeBrowser{}
	mux := http.NewServeMux()
	mux.HandleFunc("/json/list", b.handleList)
	mux.HandleFunc("/devtools/page/lobby", b.handlePage)
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the DevTools HTTP endpoint.
func (b *fakeBrowser) URL() string {
	return b.srv.URL
}

// RemoveFieldAfter makes the field disappear after n writes.
func (b *fakeBrowser) RemoveFieldAfter(n int) {
	b.mu.Lock()
	b.missingAfter = n
	b.mu.Unlock()
}

func (b *fakeBrowser) Values() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, 0, len(b.values))
	for _, v := range b.values {
		n, _ := strconv.Atoi(v)
		out = append(out, n)
	}
	return out
}

func (b *fakeBrowser) Clicks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.clicks...)
}

func (b *fakeBrowser) Submits() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.submits...)
}

func (b *fakeBrowser) handleList(w http.ResponseWriter, r *http.Request) {
	ws := "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/devtools/page/lobby"
	_ = json.NewEncoder(w).Encode([]cdp.Target{
		{ID: "bg", Type: "background_page", URL: "chrome-extension://x/bg.html"},
		{ID: "lobby", Type: "page", Title: "Lobby", URL: "https://game.example/join", WebSocketDebuggerURL: ws},
	})
}

func (b *fakeBrowser) handlePage(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
			Params struct {
				Expression string `json:"expression"`
			} `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		result := map[string]any{"type": "undefined"}
		if v, ok := b.evaluate(req.Params.Expression); ok {
			result = map[string]any{"type": "object", "value": v}
		}
		reply := map[string]any{"id": req.ID, "result": map[string]any{"result": result}}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

// evaluate recognizes the host's scripts by their distinctive fragments.
func (b *fakeBrowser) evaluate(expr string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	present := b.missingAfter == 0 || len(b.values) < b.missingAfter

	switch {
	case strings.Contains(expr, "!== null"):
		return present, true
	case strings.Contains(expr, "querySelectorAll"):
		return []string{"Cancel", "Join game"}, true
	case strings.Contains(expr, "const v = "):
		rest := expr[strings.Index(expr, "const v = ")+len("const v = "):]
		var v string
		_ = json.Unmarshal([]byte(rest[:strings.Index(rest, ";")]), &v)
		b.value = v
		b.values = append(b.values, v)
	case strings.Contains(expr, "el.click()"):
		b.clicks = append(b.clicks, b.value)
	case strings.Contains(expr, "el.form.submit()"):
		b.submits = append(b.submits, b.value)
		return true, true
	}
	return nil, false
}
