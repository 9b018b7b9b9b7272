package models

import (
	"fmt"
	"strings"
)

// ContactPolicy selects which reply channel a visitor must provide.
type ContactPolicy string

const (
	// ContactPolicyPhone requires a mobile number; email stays optional.
	ContactPolicyPhone ContactPolicy = "phone"
	// ContactPolicyEmail requires an email address; phone stays optional.
	ContactPolicyEmail ContactPolicy = "email"
	// ContactPolicyEither accepts any one of phone or email.
	ContactPolicyEither ContactPolicy = "either"
)

// ParseContactPolicy accepts the policy names case-insensitively. Empty means phone.
func ParseContactPolicy(value string) (ContactPolicy, error) {
	switch policy := ContactPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return ContactPolicyPhone, nil
	case ContactPolicyPhone, ContactPolicyEmail, ContactPolicyEither:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown contact policy %q", value)
	}
}
