package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the widget API's response shape: the HTTP status is mirrored
// into the payload alongside a JSON-encoded body string, the format the
// workflow engine side consumes.
type Envelope struct {
	StatusCode        int               `json:"statusCode"`
	StatusDescription string            `json:"statusDescription"`
	IsBase64Encoded   bool              `json:"isBase64Encoded"`
	Headers           map[string]string `json:"headers"`
	Body              string            `json:"body"`
}

var statusDescriptions = map[int]string{
	http.StatusOK:                  "OK",
	http.StatusCreated:             "Created",
	http.StatusNoContent:           "No Content",
	http.StatusBadRequest:          "Bad Request",
	http.StatusNotFound:            "Not Found",
	http.StatusInternalServerError: "Internal Server Error",
}

func statusDescription(code int) string {
	if desc, ok := statusDescriptions[code]; ok {
		return desc
	}
	return "Unknown"
}

// Respond writes the envelope with the HTTP status set to match. A 204 is
// the one status where the envelope is dropped: HTTP forbids a body on
// 204, so the delete success is status-only on the wire.
func Respond(c *gin.Context, status int, body any) {
	if status == http.StatusNoContent {
		c.Status(status)
		return
	}
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error": "Internal server error"}`)
	}
	c.JSON(status, Envelope{
		StatusCode:        status,
		StatusDescription: fmt.Sprintf("%d %s", status, statusDescription(status)),
		IsBase64Encoded:   false,
		Headers:           map[string]string{"Content-Type": "application/json"},
		Body:              string(raw),
	})
}

func RespondError(c *gin.Context, status int, message string) {
	Respond(c, status, gin.H{"error": message})
}
