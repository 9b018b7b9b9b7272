package models

import (
	"fmt"
	"time"
)

// inquiryIDLayout renders the seconds part of an inquiry ID. Milliseconds and the zone
// suffix are appended separately because Go layouts only accept fractions after '.' or ','.
const inquiryIDLayout = "2006-01-02T15-04-05"

// ContactInquiry is the durable record of one accepted contact form submission.
// Values are built with NewContactInquiry and never modified afterwards.
type ContactInquiry struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Name        string    `json:"name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Subject     *string   `json:"subject"`
	Message     string    `json:"message"`
	UserAgent   *string   `json:"user_agent"`
	IPAddress   *string   `json:"ip_address"`
}

// ContactFields carries the validated, normalized form fields of an inquiry.
type ContactFields struct {
	Name    string
	Email   *string
	Phone   *string
	Subject *string
	Message string
}

// NewContactInquiry stamps validated fields with the acceptance time and its derived ID.
func NewContactInquiry(fields ContactFields, submittedAt time.Time, userAgent, ipAddress string) ContactInquiry {
	submittedAt = submittedAt.UTC()
	return ContactInquiry{
		ID:          InquiryID(submittedAt),
		SubmittedAt: submittedAt,
		Name:        fields.Name,
		Email:       fields.Email,
		Phone:       fields.Phone,
		Subject:     fields.Subject,
		Message:     fields.Message,
		UserAgent:   OptionalString(userAgent),
		IPAddress:   OptionalString(ipAddress),
	}
}

// InquiryID formats t as YYYY-MM-DDTHH-MM-SS-mmmZ in UTC.
func InquiryID(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%03dZ", t.Format(inquiryIDLayout), t.Nanosecond()/int(time.Millisecond))
}

// OptionalString maps the empty string to nil.
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
