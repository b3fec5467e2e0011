package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srhoton/step-alb-poc/internal/apierr"
)

func newTestCallback(t *testing.T, endpoint string, client *http.Client) *CallbackService {
	t.Helper()
	svc, err := NewCallbackService(nil, endpoint, client)
	require.NoError(t, err)
	return svc
}

func TestCallbackRejectsBeforeDownstreamCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()
	svc := newTestCallback(t, srv.URL, nil)

	cases := []struct {
		name    string
		event   TransitionEvent
		wantMsg string
	}{
		{
			name:    "unknown_status",
			event:   TransitionEvent{WidgetID: "w1", Status: "maybe", TransitionAt: 100},
			wantMsg: "status must be either",
		},
		{
			name:    "negative_transition_at",
			event:   TransitionEvent{WidgetID: "w1", Status: "in_progress", TransitionAt: -1},
			wantMsg: "non-negative",
		},
		{
			name:    "blank_widget_id",
			event:   TransitionEvent{WidgetID: "   ", Status: "done", TransitionAt: 100},
			wantMsg: "widget_id must be a non-empty string",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Handle(context.Background(), tc.event)
			ae, ok := apierr.As(err)
			require.True(t, ok, "err=%v, want *apierr.Error", err)
			assert.Equal(t, http.StatusBadRequest, ae.Status)
			assert.Contains(t, ae.Error(), tc.wantMsg)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls), "downstream called before validation passed")
}

func TestCallbackCoercesFloatSeconds(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": "ok"}`))
	}))
	defer srv.Close()
	svc := newTestCallback(t, srv.URL, nil)

	res, err := svc.Handle(context.Background(), TransitionEvent{
		WidgetID:     " w1 ",
		Status:       "in_progress",
		TransitionAt: 1704110400.9,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "w1", res.Body.WidgetID, "widget_id trimmed")
	assert.Equal(t, int64(1704110400), res.Body.TransitionAt, "float coerced to integer seconds")
	assert.Contains(t, gotBody, `"transitionAt":1704110400`)
	assert.Equal(t, "ok", res.Body.APIResponse["message"])
}

func TestCallbackTimeoutMapsTo504(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()
	svc := newTestCallback(t, srv.URL, &http.Client{Timeout: 50 * time.Millisecond})

	_, err := svc.Handle(context.Background(), TransitionEvent{WidgetID: "w1", Status: "done", TransitionAt: 1})
	ae, ok := apierr.As(err)
	require.True(t, ok, "err=%v, want *apierr.Error", err)
	assert.Equal(t, http.StatusGatewayTimeout, ae.Status)
	assert.Contains(t, ae.Error(), "timed out")
}

func TestCallbackConnectionFailureMapsTo502(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()
	svc := newTestCallback(t, endpoint, nil)

	_, err := svc.Handle(context.Background(), TransitionEvent{WidgetID: "w1", Status: "done", TransitionAt: 1})
	ae, ok := apierr.As(err)
	require.True(t, ok, "err=%v, want *apierr.Error", err)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
}

func TestCallbackEchoesUpstreamStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Widget 'w1' not found"}`))
	}))
	defer srv.Close()
	svc := newTestCallback(t, srv.URL, nil)

	_, err := svc.Handle(context.Background(), TransitionEvent{WidgetID: "w1", Status: "done", TransitionAt: 1})
	ae, ok := apierr.As(err)
	require.True(t, ok, "err=%v, want *apierr.Error", err)
	assert.Equal(t, http.StatusNotFound, ae.Status)
	assert.Contains(t, ae.Error(), "Widget 'w1' not found")
}

func TestCallbackTreatsUnparsableSuccessBodyAsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()
	svc := newTestCallback(t, srv.URL, nil)

	res, err := svc.Handle(context.Background(), TransitionEvent{WidgetID: "w1", Status: "done", TransitionAt: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Body.APIResponse)
}

func TestNewCallbackServiceRequiresEndpoint(t *testing.T) {
	_, err := NewCallbackService(nil, "   ", nil)
	ae, ok := apierr.As(err)
	require.True(t, ok, "err=%v, want *apierr.Error", err)
	assert.Equal(t, "configuration_error", ae.Code)
}
