package v1

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

func TestSanitizeValidationError(t *testing.T) {
	assert.Equal(t, "", sanitizeValidationError(nil))
	assert.Equal(t, "Invalid request", sanitizeValidationError(errors.New("json: cannot unmarshal string into Go value")))
	assert.Equal(t, "Invalid request", sanitizeValidationError(errors.New("Key: 'SignupRequest.Email' Error:Field validation for 'Email' failed")))
	assert.Equal(t, "unexpected EOF", sanitizeValidationError(errors.New("unexpected EOF")))
}

func TestBindingFields(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")

	err := v.Struct(domain.SignupRequest{Email: "nope", Password: "short", AccountType: "alien"})
	fields := bindingFields(err)

	assert.Equal(t, "This field is required", fields["firstName"])
	assert.Equal(t, "Must be a valid email address", fields["email"])
	assert.Equal(t, "Must be at least 8 characters", fields["password"])
	assert.Equal(t, "Must be one of: user buyer seller pro", fields["accountType"])
	assert.Nil(t, bindingFields(errors.New("unexpected EOF")))
}
