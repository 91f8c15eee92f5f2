package models

import "errors"

// Error kinds shared by every stage of a reading. Callers match them with errors.Is.
var (
	ErrTransport   = errors.New("transport error")
	ErrParse       = errors.New("parse error")
	ErrDataQuality = errors.New("data quality error")
	ErrStore       = errors.New("store error")
)
