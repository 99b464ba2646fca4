package request

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoginRequest(t *testing.T) {
	expectedMap := map[string]string{"email": "email", "password": "***"}
	expected, _ := json.Marshal(expectedMap)
	loginReq := LoginRequest{Email: "email", Password: "password"}

	actual, _ := json.Marshal(loginReq)

	assert.EqualValues(t, expected, actual)
	assert.EqualValues(t, "password", loginReq.Password)
	assert.Equal(t, "password", loginReq.Credentials()["password"])
}

func TestRegisterMasksPassword(t *testing.T) {
	buf := bytes.Buffer{}
	logger := zerolog.New(&buf)
	register := Register{Name: "Asha", Email: "asha@example.com", Password: "hunter22"}

	logger.Info().Object("request", register).Msg("register")
	actual, _ := json.Marshal(register)

	assert.NotContains(t, buf.String(), "hunter22")
	assert.NotContains(t, string(actual), "hunter22")
	assert.Contains(t, string(actual), `"password":"***"`)
}
