package validator

import (
	stdErrors "errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

type testPayload struct {
	DisplayName string `json:"display_name" validate:"notblank"`
	ServerHost  string `json:"server_host" validate:"required,hostname_rfc1123|ip"`
	RASPort     int    `json:"ras_port" validate:"min=1,max=65535"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		DisplayName: "Production",
		ServerHost:  "srv-1c.local",
		RASPort:     1545,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		DisplayName: "   ",
		ServerHost:  "",
		RASPort:     70000,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}
	if vErrs[0].Field != "display_name" || vErrs[0].Tag != "notblank" {
		t.Fatalf("unexpected first failure %+v", vErrs[0])
	}
}

func TestPreconditionWrapsFailures(t *testing.T) {
	err := Precondition(testPayload{ServerHost: "srv", RASPort: 0})
	if err == nil {
		t.Fatal("expected precondition error")
	}
	if !stdErrors.Is(err, apperrors.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	msg := apperrors.UserMessage(err)
	if !strings.Contains(msg, "display_name is required") || !strings.Contains(msg, "ras_port must be at least 1") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("rasport", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() == 1545
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Port int `json:"port" validate:"rasport"`
	}
	if err := ValidateStruct(custom{Port: 1545}); err != nil {
		t.Fatalf("expected custom rule to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Port: 1541}); err == nil {
		t.Fatal("expected custom rule to fail")
	}
}
