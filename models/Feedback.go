package models

import (
	"strings"
	"time"
)

// NoContentPlaceholder replaces missing experiencia text before a record
// is shown or sent to the sentiment model.
const NoContentPlaceholder = "No content"

// FeedbackRecord is one row of the influencer feedback CSV export.
// Records are immutable once loaded; the sentiment bucket is derived
// lazily per render and never written back.
type FeedbackRecord struct {
	Perfil      string    `json:"perfil"`
	Experiencia string    `json:"experiencia"`
	Nota        float64   `json:"nota"`
	NotaValid   bool      `json:"-"` // false when the nota cell was empty or non-numeric
	Data        time.Time `json:"data"`
	DataValid   bool      `json:"-"`
}

// Text returns the experiencia text with missing content replaced by the
// placeholder, so the classifier never sees an empty string.
func (r FeedbackRecord) Text() string {
	if strings.TrimSpace(r.Experiencia) == "" {
		return NoContentPlaceholder
	}
	return r.Experiencia
}
