package store

import (
	"strconv"

	"github.com/srhoton/step-alb-poc/internal/types"
)

// Change feed event kinds.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// Attribute is the feed's typed value envelope: exactly one of S (string)
// or N (number-as-string) is set.
type Attribute struct {
	S string `json:"S,omitempty"`
	N string `json:"N,omitempty"`
}

// Image is a row snapshot in attribute-envelope form, keyed by attribute
// name. PK holds the widget ID and SK the state.
type Image map[string]Attribute

// String returns the S value of the named attribute, if present and non-empty.
func (img Image) String(name string) (string, bool) {
	attr, ok := img[name]
	if !ok || attr.S == "" {
		return "", false
	}
	return attr.S, true
}

// Number returns the raw N value of the named attribute, if present and
// non-empty. Parsing is left to the caller so malformed values error at the
// point of use.
func (img Image) Number(name string) (string, bool) {
	attr, ok := img[name]
	if !ok || attr.N == "" {
		return "", false
	}
	return attr.N, true
}

// ChangeRecord is one entry of the store's change feed.
type ChangeRecord struct {
	EventName string `json:"eventName"`
	OldImage  Image  `json:"oldImage,omitempty"`
	NewImage  Image  `json:"newImage,omitempty"`
}

// imageOf snapshots a widget row in attribute-envelope form.
func imageOf(w types.Widget) Image {
	img := Image{
		"PK":           {S: w.ID},
		"SK":           {S: w.State},
		"transitionAt": {N: strconv.FormatInt(w.TransitionAt, 10)},
	}
	if w.CreatedAt != 0 {
		img["createdAt"] = Attribute{N: strconv.FormatInt(w.CreatedAt, 10)}
	}
	if w.UpdatedAt != 0 {
		img["updatedAt"] = Attribute{N: strconv.FormatInt(w.UpdatedAt, 10)}
	}
	return img
}

func insertRecord(w types.Widget) ChangeRecord {
	return ChangeRecord{EventName: EventInsert, NewImage: imageOf(w)}
}

func removeRecord(w types.Widget) ChangeRecord {
	return ChangeRecord{EventName: EventRemove, OldImage: imageOf(w)}
}
