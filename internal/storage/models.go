package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// AnalysisRecord is one saved warranty analysis, kept locally so the CLI can
// list past results without the backend.
type AnalysisRecord struct {
	ID              string
	CreatedAt       time.Time
	Brand           string
	Model           string
	SerialNumber    string
	PurchaseDate    string
	WarrantyPeriod  string
	WarrantyEndDate string
	Retailer        string
	Price           string
	Confidence      string
	AdditionalInfo  string
	ExtractedAt     string
	UserID          string
	UploadedSlots   string // comma-separated slot names included in the request
}
