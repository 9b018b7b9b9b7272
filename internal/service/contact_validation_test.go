package service

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/hakchin/ppst/internal/dto"
	"github.com/hakchin/ppst/internal/models"
)

func newTestValidator(t *testing.T, policy models.ContactPolicy) *ContactValidator {
	t.Helper()
	v, err := NewContactValidator(validator.New(validator.WithRequiredStructEnabled()), policy)
	require.NoError(t, err)
	return v
}

func validationErrors(t *testing.T, err error) []string {
	t.Helper()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	return validationErr.Errors
}

func TestContactValidatorAcceptsMinimalPhoneSubmission(t *testing.T) {
	v := newTestValidator(t, models.ContactPolicyPhone)

	fields, err := v.Validate(dto.ContactRequest{Name: "홍길동", Phone: "010-1234-5678", Message: "안녕하세요"})
	require.NoError(t, err)

	require.Equal(t, "홍길동", fields.Name)
	require.NotNil(t, fields.Phone)
	require.Equal(t, "01012345678", *fields.Phone)
	require.Nil(t, fields.Email)
	require.Nil(t, fields.Subject)
	require.Equal(t, "안녕하세요", fields.Message)
}

func TestContactValidatorTrimsAndNormalizes(t *testing.T) {
	v := newTestValidator(t, models.ContactPolicyPhone)

	fields, err := v.Validate(dto.ContactRequest{
		Name:    "  홍길동 ",
		Phone:   " 010 9876 5432 ",
		Email:   " Parent@Example.COM ",
		Subject: "   ",
		Message: "\n중등 수학 문의\t",
	})
	require.NoError(t, err)

	require.Equal(t, "홍길동", fields.Name)
	require.Equal(t, "01098765432", *fields.Phone)
	require.Equal(t, "parent@example.com", *fields.Email)
	require.Nil(t, fields.Subject)
	require.Equal(t, "중등 수학 문의", fields.Message)
}

func TestContactValidatorReportsEveryFieldInOrder(t *testing.T) {
	v := newTestValidator(t, models.ContactPolicyPhone)

	_, err := v.Validate(dto.ContactRequest{Name: " ", Phone: "12345", Email: "nope", Message: ""})
	require.Equal(t, []string{
		"이름을(를) 입력해주세요.",
		"올바른 휴대폰 번호를 입력해주세요 (예: 010-1234-5678)",
		"올바른 이메일 주소를 입력해주세요.",
		"내용을(를) 입력해주세요.",
	}, validationErrors(t, err))
}

func TestContactValidatorEmptyNameOnly(t *testing.T) {
	v := newTestValidator(t, models.ContactPolicyPhone)

	_, err := v.Validate(dto.ContactRequest{Name: "", Phone: "010-1234-5678", Message: "안녕하세요"})
	require.Equal(t, []string{"이름을(를) 입력해주세요."}, validationErrors(t, err))
}

func TestContactValidatorLengthLimitsCountCharacters(t *testing.T) {
	v := newTestValidator(t, models.ContactPolicyPhone)

	_, err := v.Validate(dto.ContactRequest{Name: strings.Repeat("가", 100), Phone: "01012345678", Message: strings.Repeat("나", 5000)})
	require.NoError(t, err)

	_, err = v.Validate(dto.ContactRequest{
		Name:    strings.Repeat("가", 101),
		Phone:   "01012345678",
		Subject: strings.Repeat("s", 201),
		Message: strings.Repeat("나", 5001),
	})
	require.Equal(t, []string{
		"이름은(는) 100자 이하여야 합니다.",
		"제목은(는) 200자 이하여야 합니다.",
		"내용은(는) 5000자 이하여야 합니다.",
	}, validationErrors(t, err))
}

func TestContactValidatorReportsFirstFailingRulePerField(t *testing.T) {
	v := newTestValidator(t, models.ContactPolicyPhone)

	_, err := v.Validate(dto.ContactRequest{Name: "홍길동", Phone: "010-1234-5678-0000-000", Message: "hi"})
	require.Equal(t, []string{"휴대폰 번호은(는) 20자 이하여야 합니다."}, validationErrors(t, err))
}

func TestContactValidatorPolicies(t *testing.T) {
	cases := []struct {
		name   string
		policy models.ContactPolicy
		req    dto.ContactRequest
		errors []string
	}{
		{
			name:   "phone policy requires phone",
			policy: models.ContactPolicyPhone,
			req:    dto.ContactRequest{Name: "홍길동", Email: "a@b.co", Message: "hi"},
			errors: []string{"휴대폰 번호을(를) 입력해주세요."},
		},
		{
			name:   "email policy requires email",
			policy: models.ContactPolicyEmail,
			req:    dto.ContactRequest{Name: "홍길동", Phone: "010-1234-5678", Message: "hi"},
			errors: []string{"이메일을(를) 입력해주세요."},
		},
		{
			name:   "email policy accepts email only",
			policy: models.ContactPolicyEmail,
			req:    dto.ContactRequest{Name: "홍길동", Email: "a@b.co", Message: "hi"},
		},
		{
			name:   "either policy rejects neither",
			policy: models.ContactPolicyEither,
			req:    dto.ContactRequest{Name: "홍길동", Message: "hi"},
			errors: []string{"휴대폰 번호 또는 이메일을 입력해주세요."},
		},
		{
			name:   "either policy accepts phone",
			policy: models.ContactPolicyEither,
			req:    dto.ContactRequest{Name: "홍길동", Phone: "011-123-4567", Message: "hi"},
		},
		{
			name:   "either policy still checks email format",
			policy: models.ContactPolicyEither,
			req:    dto.ContactRequest{Name: "홍길동", Email: "user@host", Message: "hi"},
			errors: []string{"올바른 이메일 주소를 입력해주세요."},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestValidator(t, tc.policy)
			_, err := v.Validate(tc.req)
			if tc.errors == nil {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tc.errors, validationErrors(t, err))
		})
	}
}

func TestContactValidatorIsDeterministic(t *testing.T) {
	v := newTestValidator(t, models.ContactPolicyEither)
	req := dto.ContactRequest{Name: "", Phone: "999", Message: ""}

	_, first := v.Validate(req)
	_, second := v.Validate(req)
	require.Equal(t, validationErrors(t, first), validationErrors(t, second))
}

func TestContactValidatorNormalizationIsIdempotent(t *testing.T) {
	raw := dto.ContactRequest{
		Name:    "  홍길동 ",
		Phone:   "010-1234-5678",
		Email:   " A.B@Example.COM ",
		Subject: " s ",
		Message: " 안녕하세요 ",
	}

	for _, policy := range []models.ContactPolicy{models.ContactPolicyPhone, models.ContactPolicyEmail, models.ContactPolicyEither} {
		t.Run(string(policy), func(t *testing.T) {
			v := newTestValidator(t, policy)

			first, err := v.Validate(raw)
			require.NoError(t, err)
			require.Equal(t, "01012345678", *first.Phone)
			require.Equal(t, "a.b@example.com", *first.Email)

			again, err := v.Validate(dto.ContactRequest{
				Name:    first.Name,
				Phone:   *first.Phone,
				Email:   *first.Email,
				Subject: *first.Subject,
				Message: first.Message,
			})
			require.NoError(t, err)
			require.Equal(t, first, again)
		})
	}
}

func TestNewContactValidatorPolicy(t *testing.T) {
	v, err := NewContactValidator(nil, "")
	require.NoError(t, err)
	require.Equal(t, models.ContactPolicyPhone, v.Policy())

	_, err = NewContactValidator(nil, models.ContactPolicy("fax"))
	require.Error(t, err)
}
