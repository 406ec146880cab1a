package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAnato/AgriConnect/pkg/validator"
)

func TestDecimal_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Decimal
	}{
		{"number", `1500`, 1500},
		{"fraction", `12.5`, 12.5},
		{"string", `"1500.00"`, 1500},
		{"empty string", `""`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decimal
			require.NoError(t, json.Unmarshal([]byte(tt.in), &d))
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestDecimal_UnmarshalRejectsGarbage(t *testing.T) {
	var d Decimal
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDecimal_MarshalAsNumber(t *testing.T) {
	b, err := json.Marshal(struct {
		Price Decimal `json:"price"`
	}{Price: 1250.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":1250.5}`, string(b))
	assert.Equal(t, "1250.50", Decimal(1250.5).String())
}

func TestRole(t *testing.T) {
	assert.True(t, RoleProducer.Valid())
	assert.False(t, Role("farmer").Valid())
	assert.True(t, RoleConsumer.In())
	assert.True(t, RoleAdmin.In(RoleProducer, RoleAdmin))
	assert.False(t, RoleConsumer.In(RoleProducer))
}

func TestUser_Validation(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"email":"a@b.com","role":"producer","farm_name":"Ferme Ada"}`), &u))
	assert.NoError(t, validator.Validate(&u))
	assert.Equal(t, "a@b.com", u.DisplayName())

	u.Role = "farmer"
	assert.Error(t, validator.Validate(&u))
}

func TestLoginResponse_RequiresUser(t *testing.T) {
	var resp LoginResponse
	require.NoError(t, json.Unmarshal([]byte(`{"access":"a","refresh":"r"}`), &resp))

	err := validator.Validate(&resp)
	require.Error(t, err)
	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields(), "user")
}

func TestSignUpInput_Validation(t *testing.T) {
	in := SignUpInput{
		Email:           "ada@example.com",
		Password:        "s3cretpass",
		PasswordConfirm: "s3cretpass",
		FirstName:       "Ada",
		LastName:        "Hounsou",
		Role:            RoleConsumer,
	}
	assert.NoError(t, validator.Validate(in))

	in.PasswordConfirm = "other"
	assert.Error(t, validator.Validate(in))

	in.PasswordConfirm = in.Password
	in.Role = RoleProducer
	assert.Error(t, validator.Validate(in), "producers need a farm name")
}

func TestProfileUpdate_OmitsNilFields(t *testing.T) {
	name := "Ada"
	b, err := json.Marshal(ProfileUpdate{FirstName: &name})
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_name":"Ada"}`, string(b))
	assert.True(t, ProfileUpdate{}.Empty())
}

func TestCart_DisplayTotal(t *testing.T) {
	c := Cart{Items: []CartLine{
		{ID: 1, Product: 42, Subtotal: 1500},
		{ID: 2, Product: 43, Subtotal: 500},
	}}
	assert.Equal(t, Decimal(2000), c.DisplayTotal(), "falls back to the subtotal sum")

	c.Total = DecimalPtr(1800)
	assert.Equal(t, Decimal(1800), c.DisplayTotal(), "server total wins")

	c.Total = DecimalPtr(0)
	assert.Equal(t, Decimal(0), c.DisplayTotal(), "a zero server total is still a server total")
}

func TestCart_DecodeStringNumbers(t *testing.T) {
	body := `{"id":3,"items":[{"id":9,"product":42,"product_name":"Tomates","quantity":"3","unit_price":"500.00","subtotal":"1500.00"}],"total":"1500.00"}`
	var c Cart
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	require.NoError(t, validator.Validate(&c))

	require.Len(t, c.Items, 1)
	assert.Equal(t, Decimal(3), c.Items[0].Quantity)
	assert.Equal(t, Decimal(3), c.ItemCount())
	require.NotNil(t, c.Total)
	assert.Equal(t, Decimal(1500), *c.Total)

	require.NotNil(t, c.FindLine(42))
	assert.Equal(t, int64(9), c.FindLine(42).ID)
	assert.Nil(t, c.FindLine(7))
}

func TestCart_NullTotalIsAbsent(t *testing.T) {
	var c Cart
	require.NoError(t, json.Unmarshal([]byte(`{"items":[],"total":null}`), &c))
	assert.Nil(t, c.Total)
}

func TestProductInput_Validation(t *testing.T) {
	in := ProductInput{
		Name:            "Tomates",
		UnitPrice:       500,
		UnitType:        UnitKilogram,
		LocationCommune: "Cotonou",
	}
	assert.NoError(t, validator.Validate(in))

	in.UnitPrice = 0
	assert.Error(t, validator.Validate(in))

	in.UnitPrice = 500
	in.UnitType = "ton"
	assert.Error(t, validator.Validate(in))
}

func TestProductPatch_Validation(t *testing.T) {
	bad := DecimalPtr(-1)
	assert.Error(t, validator.Validate(ProductPatch{QuantityAvailable: bad}))
	assert.NoError(t, validator.Validate(ProductPatch{}))
}

func TestCurrentMonth(t *testing.T) {
	p := CurrentMonth(time.Date(2024, time.February, 14, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, Period{Start: "2024-02-01", End: "2024-02-29"}, p)
	assert.NoError(t, validator.Validate(p))
}
