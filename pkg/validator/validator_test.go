package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"password_confirm" validate:"eqfield=Password"`
	Role     string `json:"role" validate:"oneof=producer consumer"`
}

type cartLine struct {
	ID       int64   `json:"id" validate:"gt=0"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

func validSignUp() signUp {
	return signUp{Email: "awa@ferme.bj", Password: "s3cretpass", Confirm: "s3cretpass", Role: "producer"}
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validSignUp()))
}

func TestValidate_Pointer(t *testing.T) {
	s := validSignUp()
	assert.NoError(t, Validate(&s))

	var nilPtr *signUp
	assert.NoError(t, Validate(nilPtr))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	s := validSignUp()
	s.Email = "not-an-email"

	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["email"])
}

func TestValidate_MismatchedConfirmation(t *testing.T) {
	s := validSignUp()
	s.Confirm = "other"

	err := Validate(s)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["password_confirm"], "must match")
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(signUp{Role: "admin"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["email"])
	assert.Equal(t, "is required", fields["password"])
	assert.Contains(t, fields["role"], "must be one of")
	assert.Contains(t, err.Error(), "field 'email'")
}

func TestValidate_SliceElements(t *testing.T) {
	assert.NoError(t, Validate([]cartLine{{ID: 1, Quantity: 2}, {ID: 2, Quantity: 0.5}}))

	err := Validate([]cartLine{{ID: 1, Quantity: 2}, {ID: 0, Quantity: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["id"], "greater than 0")
}

func TestValidate_NonStructPasses(t *testing.T) {
	assert.NoError(t, Validate(map[string]any{"exists": true}))
	assert.NoError(t, Validate([]string{"a"}))
	assert.NoError(t, Validate(42))
}

func TestDecodeAndValidate(t *testing.T) {
	body := `{"email":"awa@ferme.bj","password":"s3cretpass","password_confirm":"s3cretpass","role":"consumer"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst signUp
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "consumer", dst.Role)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))

	var dst signUp
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
