package validator

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(testRequest{Name: "Asha", Email: "asha@example.com", Rating: 4})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(testRequest{Email: "asha@example.com", Rating: 4})

	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Name")
	assert.Equal(t, "is required", fields["Name"])
}

func TestValidate_BadEmail(t *testing.T) {
	err := Validate(testRequest{Name: "Asha", Email: "not-an-email", Rating: 4})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["Email"])
}

func TestValidate_RangeTags(t *testing.T) {
	err := Validate(testRequest{Name: "Asha", Email: "asha@example.com", Rating: 6})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be less than or equal to 5", valErr.Fields()["Rating"])
}

func TestValidationError_ErrorMessage(t *testing.T) {
	err := Validate(testRequest{Rating: 9})

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "Name")
	assert.Contains(t, msg, "Email")
}

func TestDecodeAndValidate(t *testing.T) {
	body := bytes.NewBufferString(`{"name":"Asha","email":"asha@example.com","rating":4}`)
	req := httptest.NewRequest("POST", "/", body)

	var dst testRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "Asha", dst.Name)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{broken`))

	var dst testRequest
	assert.Error(t, DecodeAndValidate(req, &dst))
}
