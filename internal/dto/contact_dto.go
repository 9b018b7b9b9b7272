package dto

import (
	"fmt"
	"strings"
	"time"
)

// ContactRequest defines the raw fields posted by the contact form.
type ContactRequest struct {
	Name      string `json:"name" form:"name"`
	Phone     string `json:"phone" form:"phone"`
	Email     string `json:"email" form:"email"`
	Subject   string `json:"subject" form:"subject"`
	Message   string `json:"message" form:"message"`
	IPAddress string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// ContactStatus is the terminal state of one submission.
type ContactStatus string

const (
	ContactAccepted    ContactStatus = "accepted"
	ContactRateLimited ContactStatus = "rate_limited"
	ContactInvalid     ContactStatus = "invalid"
	ContactDuplicate   ContactStatus = "duplicate"
	ContactFailed      ContactStatus = "failed"
)

// ContactOutcome communicates how a submission ended. Errors is only populated for
// ContactInvalid, InquiryID for ContactAccepted and RetryAfter for ContactRateLimited.
type ContactOutcome struct {
	Status     ContactStatus `json:"status"`
	InquiryID  string        `json:"inquiry_id,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	RetryAfter time.Duration `json:"-"`
}

// Accepted reports whether the inquiry was stored.
func (o ContactOutcome) Accepted() bool {
	return o.Status == ContactAccepted
}

// ExportFormat selects the serialization of a contact export.
type ExportFormat string

const (
	ExportNDJSON ExportFormat = "ndjson"
	ExportJSON   ExportFormat = "json"
)

// ParseExportFormat accepts ndjson and json (case-insensitive). Empty means ndjson.
func ParseExportFormat(value string) (ExportFormat, error) {
	switch format := ExportFormat(strings.ToLower(strings.TrimSpace(value))); format {
	case "":
		return ExportNDJSON, nil
	case ExportNDJSON, ExportJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// ContentType returns the media type of an export body in this format.
func (f ExportFormat) ContentType() string {
	if f == ExportJSON {
		return "application/json"
	}
	return "application/x-ndjson"
}
