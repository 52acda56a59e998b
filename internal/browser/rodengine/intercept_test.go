// internal/browser/rodengine/intercept_test.go
package rodengine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/capture"
)

func TestHijackedRequestsAreContinued(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no Chrome or Chromium binary found")
	}

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!doctype html><html><body><script>
fetch('/api/items').then(r => r.text()).then(t => { window.__result = t; });
</script></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logger := zap.NewNop()
	controller, err := NewLauncher(logger).Launch(ctx, schemas.LaunchOptions{
		Headless:          true,
		InterceptRequests: true,
		NavigationTimeout: 30 * time.Second,
		IdleQuietPeriod:   200 * time.Millisecond,
	})
	require.NoError(t, err)
	defer controller.Close(context.Background())

	buffer := capture.NewBuffer()
	require.NoError(t, capture.NewCapturer(logger, buffer, capture.ScriptOptions{}).Install(ctx, controller))
	require.NoError(t, controller.Navigate(ctx, srv.URL+"/"))

	require.Eventually(t, func() bool {
		var result string
		return controller.Evaluate(ctx, "window.__result || ''", &result) == nil && result == "ok"
	}, 15*time.Second, 50*time.Millisecond, "the hijacked fetch never completed")
	assert.Equal(t, int32(1), hits.Load())

	var calls []schemas.APICall
	for _, in := range buffer.Snapshot() {
		if call, ok := in.Detail.(schemas.APICall); ok {
			calls = append(calls, call)
		}
	}
	require.Len(t, calls, 1)
	assert.Equal(t, srv.URL+"/api/items", calls[0].URL)
}
