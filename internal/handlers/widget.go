package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/srhoton/step-alb-poc/internal/apierr"
	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/services"
)

type WidgetHandler struct {
	log     *logger.Logger
	widgets services.WidgetService
}

func NewWidgetHandler(baseLog *logger.Logger, widgets services.WidgetService) *WidgetHandler {
	var log *logger.Logger
	if baseLog != nil {
		log = baseLog.With("handler", "WidgetHandler")
	}
	return &WidgetHandler{log: log, widgets: widgets}
}

// Handle routes any method on /widgets/:id; the verb selects the operation.
func (h *WidgetHandler) Handle(c *gin.Context) {
	widgetID := c.Param("id")
	if widgetID == "" {
		RespondError(c, http.StatusBadRequest, "Invalid path format. Expected: /widgets/{widget_name}")
		return
	}

	switch c.Request.Method {
	case http.MethodPost:
		h.create(c, widgetID)
	case http.MethodGet:
		h.read(c, widgetID)
	case http.MethodPut:
		h.update(c, widgetID)
	case http.MethodDelete:
		h.delete(c, widgetID)
	default:
		RespondError(c, http.StatusBadRequest, fmt.Sprintf("Unsupported HTTP method: %s", c.Request.Method))
	}
}

func (h *WidgetHandler) create(c *gin.Context, widgetID string) {
	view, err := h.widgets.Create(c.Request.Context(), widgetID)
	if err != nil {
		h.fail(c, err, "Failed to create widget")
		return
	}
	Respond(c, http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Widget '%s' created successfully", widgetID),
		"widget":  view,
	})
}

func (h *WidgetHandler) read(c *gin.Context, widgetID string) {
	view, err := h.widgets.Read(c.Request.Context(), widgetID)
	if err != nil {
		h.fail(c, err, "Failed to retrieve widget")
		return
	}
	Respond(c, http.StatusOK, gin.H{"widget": view})
}

func (h *WidgetHandler) update(c *gin.Context, widgetID string) {
	newState, newTransitionAt, aerr := parseUpdateRequest(c.Request.Body)
	if aerr != nil {
		RespondError(c, aerr.Status, aerr.Error())
		return
	}

	view, err := h.widgets.Update(c.Request.Context(), widgetID, newState, newTransitionAt)
	if err != nil {
		h.fail(c, err, "Failed to update widget")
		return
	}
	Respond(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("Widget '%s' updated successfully", widgetID),
		"widget":  view,
	})
}

func (h *WidgetHandler) delete(c *gin.Context, widgetID string) {
	if err := h.widgets.Delete(c.Request.Context(), widgetID); err != nil {
		h.fail(c, err, "Failed to delete widget")
		return
	}
	Respond(c, http.StatusNoContent, gin.H{
		"message": fmt.Sprintf("Widget '%s' deleted successfully", widgetID),
	})
}

// fail maps expected domain errors onto the envelope; store faults are
// logged in full and reported generically.
func (h *WidgetHandler) fail(c *gin.Context, err error, generic string) {
	if ae, ok := apierr.As(err); ok {
		RespondError(c, ae.Status, ae.Error())
		return
	}
	if h.log != nil {
		h.log.Error("Store operation failed", "path", c.Request.URL.Path, "error", err)
	}
	RespondError(c, http.StatusInternalServerError, generic)
}

// parseUpdateRequest enforces the update body's structure: 'state' must be a
// string ('status' accepted as an alias) and 'transitionAt' an integer.
func parseUpdateRequest(body io.Reader) (string, int64, *apierr.Error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", 0, apierr.Validation("Invalid JSON in request body")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return "", 0, apierr.Validation("Invalid JSON in request body")
	}

	stateRaw, hasState := data["state"]
	if !hasState {
		stateRaw, hasState = data["status"]
	}
	transitionRaw, hasTransition := data["transitionAt"]
	if !hasState || !hasTransition {
		return "", 0, apierr.Validation("Missing required fields: 'state' and 'transitionAt'")
	}

	state, isString := stateRaw.(string)
	num, isNumber := transitionRaw.(json.Number)
	if !isString || !isNumber {
		return "", 0, apierr.Validation("Invalid field types: 'state' must be string, 'transitionAt' must be integer")
	}
	transitionAt, err := num.Int64()
	if err != nil {
		return "", 0, apierr.Validation("Invalid field types: 'state' must be string, 'transitionAt' must be integer")
	}
	return state, transitionAt, nil
}
