package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kokorolabs/kokoro-gateway/internal/tts"
)

func newTestSession(t *testing.T, upstream *httptest.Server) *Session {
	t.Helper()
	cfg := testConfig(upstream.URL)
	synth := tts.NewKokoroTTSWithClient(cfg, upstream.Client())
	return NewSession(nil, synth, cfg)
}

func TestHandleSynthesizeWS_RejectsPlainHTTP(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	synth := tts.NewKokoroTTSWithClient(cfg, upstream.Client())

	req := httptest.NewRequest(http.MethodGet, "/streams/synthesize", nil)
	rec := httptest.NewRecorder()
	HandleSynthesizeWS(cfg, synth)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a request without upgrade headers, got %d", rec.Code)
	}
}

func TestSession_InterruptStaysSilent(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write(make([]byte, 48))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer upstream.Close()

	session := newTestSession(t, upstream)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.runSynthesis(ctx, "interrupted", tts.OptionsUpdate{})
	}()

	// Wait for the first media frame, then interrupt.
	select {
	case msg := <-session.outgoing:
		if msg.Event != "media" {
			t.Fatalf("Expected a media event first, got %q", msg.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the first frame")
	}
	cancel()
	<-done

	// A client-initiated cancel must not surface as an error or a done event.
	for {
		select {
		case msg := <-session.outgoing:
			if msg.Event == "error" || msg.Event == "done" {
				t.Errorf("Interrupt surfaced to the client as %q", msg.Event)
			}
		default:
			return
		}
	}
}
