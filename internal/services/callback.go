package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/srhoton/step-alb-poc/internal/apierr"
	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/types"
)

// CallbackTimeout bounds the downstream update call so the workflow engine's
// own retry policy stays in charge of slow failures.
const CallbackTimeout = 30 * time.Second

// TransitionEvent is what the workflow engine hands the callback after its
// delay elapses.
type TransitionEvent struct {
	WidgetID     string  `json:"widget_id"`
	Status       string  `json:"status"`
	TransitionAt float64 `json:"transitionAt"`
}

type CallbackBody struct {
	Message      string         `json:"message"`
	WidgetID     string         `json:"widget_id"`
	Status       string         `json:"status"`
	TransitionAt int64          `json:"transitionAt"`
	APIResponse  map[string]any `json:"alb_response"`
}

type CallbackResponse struct {
	StatusCode int          `json:"statusCode"`
	Body       CallbackBody `json:"body"`
}

// CallbackService advances a widget's state by re-issuing an update against
// the widget API's own update path.
type CallbackService struct {
	log        *logger.Logger
	endpoint   string
	httpClient *http.Client
}

func NewCallbackService(baseLog *logger.Logger, endpoint string, httpClient *http.Client) (*CallbackService, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, apierr.Configuration("widget API endpoint not set")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: CallbackTimeout}
	}
	var log *logger.Logger
	if baseLog != nil {
		log = baseLog.With("service", "CallbackService")
	}
	return &CallbackService{log: log, endpoint: endpoint, httpClient: httpClient}, nil
}

// Handle validates the event and issues the downstream update. Validation
// happens before any call is attempted.
func (s *CallbackService) Handle(ctx context.Context, ev TransitionEvent) (CallbackResponse, error) {
	widgetID, status, transitionAt, err := validateTransitionEvent(ev)
	if err != nil {
		return CallbackResponse{}, err
	}

	if s.log != nil {
		s.log.Info("Updating widget via API", "widget_id", widgetID, "status", status, "transitionAt", transitionAt)
	}

	apiResp, err := s.updateWidget(ctx, widgetID, status, transitionAt)
	if err != nil {
		if _, ok := apierr.As(err); ok {
			return CallbackResponse{}, err
		}
		return CallbackResponse{}, apierr.Internal(fmt.Errorf("unexpected error: %v", err))
	}

	return CallbackResponse{
		StatusCode: http.StatusOK,
		Body: CallbackBody{
			Message:      "Widget updated successfully",
			WidgetID:     widgetID,
			Status:       status,
			TransitionAt: transitionAt,
			APIResponse:  apiResp,
		},
	}, nil
}

func validateTransitionEvent(ev TransitionEvent) (string, string, int64, error) {
	widgetID := strings.TrimSpace(ev.WidgetID)
	if widgetID == "" {
		return "", "", 0, apierr.Validation("widget_id must be a non-empty string")
	}
	if ev.Status != types.StateInProgress && ev.Status != types.StateDone {
		return "", "", 0, apierr.Validation("status must be either '%s' or '%s'", types.StateInProgress, types.StateDone)
	}
	if ev.TransitionAt < 0 || math.IsNaN(ev.TransitionAt) || math.IsInf(ev.TransitionAt, 0) {
		return "", "", 0, apierr.Validation("transitionAt must be a non-negative number (epoch seconds)")
	}
	return widgetID, ev.Status, int64(ev.TransitionAt), nil
}

func (s *CallbackService) updateWidget(ctx context.Context, widgetID, status string, transitionAt int64) (map[string]any, error) {
	target := strings.TrimRight(s.endpoint, "/") + "/widgets/" + widgetID

	payload, err := json.Marshal(map[string]any{
		"status":       status,
		"transitionAt": transitionAt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && (urlErr.Timeout() || errors.Is(err, context.DeadlineExceeded)) {
			return nil, apierr.Upstream(http.StatusGatewayTimeout, "widget API request timed out")
		}
		if errors.As(err, &urlErr) {
			return nil, apierr.Upstream(http.StatusBadGateway, "failed to connect to widget API")
		}
		return nil, apierr.New(http.StatusInternalServerError, "upstream_error", fmt.Errorf("widget API request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "upstream_error", fmt.Errorf("widget API request failed: %v", err))
	}

	if s.log != nil {
		s.log.Info("Widget API response", "status_code", resp.StatusCode, "response_body", string(body))
	}

	if resp.StatusCode >= 400 {
		return nil, apierr.Upstream(resp.StatusCode, "widget API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		// 2xx with an unparsable body counts as an empty success payload.
		if s.log != nil {
			s.log.Warn("Widget API returned non-JSON response", "error", err)
		}
		return map[string]any{}, nil
	}
	return parsed, nil
}
