package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hakchin/ppst/internal/dto"
	"github.com/hakchin/ppst/internal/models"
)

const (
	maxNameLength    = 100
	maxPhoneLength   = 20
	maxEmailLength   = 255
	maxSubjectLength = 200
	maxMessageLength = 5000
)

var (
	mobilePattern = regexp.MustCompile(`^01[016789][-. ]?\d{3,4}[-. ]?\d{4}$`)
	emailPattern  = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

// ValidationError lists every rule the submission violated, in field order.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "contact validation failed: " + strings.Join(e.Errors, "; ")
}

type contactField struct {
	label string
	rules string
}

// ContactValidator turns raw form fields into normalized contact fields.
type ContactValidator struct {
	validate *validator.Validate
	policy   models.ContactPolicy
}

// NewContactValidator registers the contact rules on validate and applies policy to the
// phone and email fields. A nil validate gets a fresh instance.
func NewContactValidator(validate *validator.Validate, policy models.ContactPolicy) (*ContactValidator, error) {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	if err := validate.RegisterValidation("kr_mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("register kr_mobile: %w", err)
	}
	if err := validate.RegisterValidation("email_lite", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("register email_lite: %w", err)
	}

	policy, err := models.ParseContactPolicy(string(policy))
	if err != nil {
		return nil, err
	}

	return &ContactValidator{validate: validate, policy: policy}, nil
}

// Policy reports the active contact policy.
func (v *ContactValidator) Policy() models.ContactPolicy {
	return v.policy
}

// Validate checks every field and returns either the normalized fields or a
// *ValidationError holding one message per violated field rule.
func (v *ContactValidator) Validate(req dto.ContactRequest) (models.ContactFields, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)

	phoneRules := fmt.Sprintf("omitempty,max=%d,kr_mobile", maxPhoneLength)
	emailRules := fmt.Sprintf("omitempty,max=%d,email_lite", maxEmailLength)
	switch v.policy {
	case models.ContactPolicyPhone:
		phoneRules = fmt.Sprintf("required,max=%d,kr_mobile", maxPhoneLength)
	case models.ContactPolicyEmail:
		emailRules = fmt.Sprintf("required,max=%d,email_lite", maxEmailLength)
	}

	var errs []string
	errs = v.check(errs, name, contactField{label: "이름", rules: fmt.Sprintf("required,max=%d", maxNameLength)})
	errs = v.check(errs, phone, contactField{label: "휴대폰 번호", rules: phoneRules})
	errs = v.check(errs, email, contactField{label: "이메일", rules: emailRules})
	if v.policy == models.ContactPolicyEither && phone == "" && email == "" {
		errs = append(errs, "휴대폰 번호 또는 이메일을 입력해주세요.")
	}
	errs = v.check(errs, subject, contactField{label: "제목", rules: fmt.Sprintf("omitempty,max=%d", maxSubjectLength)})
	errs = v.check(errs, message, contactField{label: "내용", rules: fmt.Sprintf("required,max=%d", maxMessageLength)})

	if len(errs) > 0 {
		return models.ContactFields{}, &ValidationError{Errors: errs}
	}

	return models.ContactFields{
		Name:    name,
		Phone:   models.OptionalString(digitsOnly(phone)),
		Email:   models.OptionalString(email),
		Subject: models.OptionalString(subject),
		Message: message,
	}, nil
}

func (v *ContactValidator) check(errs []string, value string, field contactField) []string {
	err := v.validate.Var(value, field.rules)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return append(errs, fmt.Sprintf("%s 값을 확인해주세요.", field.label))
	}
	return append(errs, fieldMessage(field.label, fieldErrs[0]))
}

func fieldMessage(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s을(를) 입력해주세요.", label)
	case "max":
		return fmt.Sprintf("%s은(는) %s자 이하여야 합니다.", label, fe.Param())
	case "kr_mobile":
		return "올바른 휴대폰 번호를 입력해주세요 (예: 010-1234-5678)"
	case "email_lite":
		return "올바른 이메일 주소를 입력해주세요."
	default:
		return fmt.Sprintf("%s 값을 확인해주세요.", label)
	}
}

func digitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
