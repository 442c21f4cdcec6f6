package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError_MessageOrder(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"non field first", `{"detail":"d","non_field_errors":["nf"],"email":["e"]}`, "nf"},
		{"detail next", `{"detail":"d","email":["e"]}`, "d"},
		{"first field by key", `{"password":["p"],"email":["e"]}`, "e"},
		{"plain string field", `{"otp":"Invalid OTP"}`, "Invalid OTP"},
		{"empty list skipped", `{"email":[],"password":["p"]}`, "p"},
		{"no json", `<html>oops</html>`, http.StatusText(http.StatusBadRequest)},
		{"empty object", `{}`, http.StatusText(http.StatusBadRequest)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseError(http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.want, got.Message)
			assert.Equal(t, http.StatusBadRequest, got.StatusCode)
		})
	}
}

func TestError_String(t *testing.T) {
	e := &Error{StatusCode: 400, Message: "Invalid OTP"}
	assert.Equal(t, "400: Invalid OTP", e.Error())
}
