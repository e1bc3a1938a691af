// models/flash.go
package models

import "encoding/gob"

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-shot, severity-tagged message stored in the session
// between a form POST and the next render.
type Flash struct {
	Category string
	Message  string
}

func init() {
	// The cookie session codec serializes flashes with gob.
	gob.Register(Flash{})
}
