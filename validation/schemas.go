package validation

import (
	"github.com/jrsteele09/did-storefront/redreport"
)

type Signup struct {
	Email           string `json:"signupEmail" validate:"required,email"`
	Phone           string `json:"signupPhone" validate:"required,e164"`
	Password        string `json:"signupPassword" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"signupConfirmPassword" validate:"eqfield=Password,required"` // eqfield first: an empty confirmation is a mismatch
}

type Signin struct {
	Email    string `json:"signinEmail" validate:"required,email"`
	Password string `json:"signinPassword" validate:"required,min=8,max=128"`
}

type Profile struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,e164"`
	Company string `json:"company" validate:"omitempty,max=100"`
	Address string `json:"address" validate:"omitempty,max=255"`
}

type Contact struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=150"`
	Message string `json:"message" validate:"required,max=2000"`
}

// Schema names accepted by ValidateJSON
const (
	SchemaSignup   = "signup"
	SchemaSignin   = "signin"
	SchemaProfile  = "profile"
	SchemaContact  = "contact"
	SchemaCartItem = "cartItem"
)

var schemas = map[string]func() interface{}{
	SchemaSignup:   func() interface{} { return &Signup{} },
	SchemaSignin:   func() interface{} { return &Signin{} },
	SchemaProfile:  func() interface{} { return &Profile{} },
	SchemaContact:  func() interface{} { return &Contact{} },
	SchemaCartItem: func() interface{} { return &redreport.CartItem{} },
}
