package validation_test

import (
	"testing"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/jrsteele09/did-storefront/validation"
	"github.com/stretchr/testify/require"
)

func fieldCodes(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	require.ErrorIs(t, err, errors.ErrValidation)
	return verrs.Map()
}

func TestSignup(t *testing.T) {
	valid := validation.Signup{
		Email:           "ada@example.com",
		Phone:           "+447700900123",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validation.Validate(valid))
	})

	t.Run("passwords mismatch reported on confirm field", func(t *testing.T) {
		s := valid
		s.ConfirmPassword = "correct-horsf"
		codes := fieldCodes(t, validation.Validate(s))
		require.Equal(t, map[string]string{"signupConfirmPassword": validation.CodePasswordsMismatch}, codes)
	})

	t.Run("empty confirm is a mismatch", func(t *testing.T) {
		s := valid
		s.ConfirmPassword = ""
		codes := fieldCodes(t, validation.Validate(s))
		require.Equal(t, map[string]string{"signupConfirmPassword": validation.CodePasswordsMismatch}, codes)
	})

	t.Run("field codes", func(t *testing.T) {
		codes := fieldCodes(t, validation.Validate(validation.Signup{
			Email:           "not-an-email",
			Phone:           "07700900123",
			Password:        "short",
			ConfirmPassword: "short",
		}))
		require.Equal(t, validation.CodeInvalidEmail, codes["signupEmail"])
		require.Equal(t, validation.CodeInvalidPhone, codes["signupPhone"])
		require.Equal(t, validation.CodeShortPassword, codes["signupPassword"])
	})

	t.Run("required", func(t *testing.T) {
		codes := fieldCodes(t, validation.Validate(validation.Signup{}))
		require.Equal(t, validation.CodeRequired, codes["signupEmail"])
		require.Equal(t, validation.CodeRequired, codes["signupConfirmPassword"])
	})
}

func TestCartItem(t *testing.T) {
	item := redreport.CartItem{
		NumberID:    "did-1",
		Quantity:    1,
		Destination: redreport.Destination{Type: redreport.DestinationVoice, Target: "+14155550100"},
	}
	require.NoError(t, validation.Validate(item))

	t.Run("quantity", func(t *testing.T) {
		bad := item
		bad.Quantity = 0
		require.Equal(t, validation.CodeInvalidQuantity, fieldCodes(t, validation.Validate(bad))["quantity"])
	})

	t.Run("sip target for voice", func(t *testing.T) {
		ok := item
		ok.Destination.Target = "sip:desk@pbx.example.com"
		require.NoError(t, validation.Validate(ok))
	})

	t.Run("sip target rejected for sms", func(t *testing.T) {
		bad := item
		bad.Destination = redreport.Destination{Type: redreport.DestinationSMS, Target: "sip:desk@pbx.example.com"}
		require.Equal(t, validation.CodeInvalidDestination, fieldCodes(t, validation.Validate(bad))["destination.target"])
	})

	t.Run("unknown destination type", func(t *testing.T) {
		bad := item
		bad.Destination.Type = "fax"
		require.Equal(t, validation.CodeInvalidDestination, fieldCodes(t, validation.Validate(bad))["destination.type"])
	})
}

func TestValidateJSON(t *testing.T) {
	err := validation.ValidateJSON(validation.SchemaContact, []byte(`{"name":"Ada","email":"ada@example.com","message":""}`))
	require.Equal(t, map[string]string{"message": validation.CodeRequired}, fieldCodes(t, err))

	require.NoError(t, validation.ValidateJSON(validation.SchemaSignin, []byte(`{"signinEmail":"ada@example.com","signinPassword":"12345678"}`)))

	err = validation.ValidateJSON("nope", []byte(`{}`))
	require.ErrorIs(t, err, errors.ErrNotFound)

	err = validation.ValidateJSON(validation.SchemaProfile, []byte(`{`))
	require.ErrorIs(t, err, errors.ErrValidation)
}
