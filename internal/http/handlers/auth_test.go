package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridelink/server/internal/auth"
	httphandler "github.com/ridelink/server/internal/http"
	"github.com/ridelink/server/internal/http/handlers"
	"github.com/ridelink/server/internal/phone"
	"github.com/ridelink/server/internal/repo"
)

type testEnv struct {
	server *httptest.Server
	users  *repo.MemoryUserRepo
	jwt    *auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repo.NewMemoryUserRepo()
	jwtService := auth.NewJWTService("test-secret")
	authService := auth.NewAuthService(users, nil, jwtService, phone.NewNormalizer("91"), true)
	authHandler := handlers.NewAuthHandler(authService, true)

	router := httphandler.NewRouter(authHandler, jwtService, users, []string{"*"})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, users: users, jwt: jwtService}
}

func (e *testEnv) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := e.server.Client().Post(e.server.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

type envelope struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Token       string `json:"token"`
	Development *struct {
		OTP       string    `json:"otp"`
		ExpiresAt time.Time `json:"expiresAt"`
	} `json:"development"`
}

func TestSendOTP_devFallback(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/auth/send-otp", map[string]string{"phoneNumber": "9876543210"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body envelope
	decode(t, resp, &body)
	assert.True(t, body.Success)
	require.NotNil(t, body.Development, "dev mode without a notifier must return the code")
	assert.Regexp(t, `^[0-9]{6}$`, body.Development.OTP)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), body.Development.ExpiresAt, 5*time.Second)
}

func TestSendOTP_missingPhone(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/auth/send-otp", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body envelope
	decode(t, resp, &body)
	assert.False(t, body.Success)
}

func TestSendOTP_invalidBody(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Post(env.server.URL+"/auth/send-otp", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyOTP_endToEnd(t *testing.T) {
	env := newTestEnv(t)

	sendResp := env.post(t, "/auth/send-otp", map[string]string{"phoneNumber": "9876543210"})
	var sent envelope
	decode(t, sendResp, &sent)
	require.NotNil(t, sent.Development)

	verifyResp := env.post(t, "/auth/verify-otp", map[string]string{
		"phoneNumber": "9876543210",
		"otp":         sent.Development.OTP,
	})
	assert.Equal(t, http.StatusOK, verifyResp.StatusCode)

	var verified envelope
	decode(t, verifyResp, &verified)
	assert.True(t, verified.Success)
	require.NotEmpty(t, verified.Token)

	claims, err := env.jwt.VerifyToken(verified.Token)
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", claims.PhoneNumber)

	// Replay: the code was consumed.
	replayResp := env.post(t, "/auth/verify-otp", map[string]string{
		"phoneNumber": "9876543210",
		"otp":         sent.Development.OTP,
	})
	assert.Equal(t, http.StatusBadRequest, replayResp.StatusCode)
	replayResp.Body.Close()
}

func TestVerifyOTP_numericOTPAccepted(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.UpsertOTP(context.Background(), "+919876543210", "123456", time.Now().Add(5*time.Minute))
	require.NoError(t, err)

	resp := env.post(t, "/auth/verify-otp", map[string]interface{}{
		"phoneNumber": "9876543210",
		"otp":         123456,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestVerifyOTP_unknownPhone(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/auth/verify-otp", map[string]string{
		"phoneNumber": "9876543210",
		"otp":         "123456",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestVerifyOTP_expired(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.UpsertOTP(context.Background(), "+919876543210", "123456", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	resp := env.post(t, "/auth/verify-otp", map[string]string{
		"phoneNumber": "9876543210",
		"otp":         "123456",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestVerifyOTP_malformedCode(t *testing.T) {
	env := newTestEnv(t)

	for _, otp := range []string{"12a45b", "12345", "1234567"} {
		resp := env.post(t, "/auth/verify-otp", map[string]string{
			"phoneNumber": "9876543210",
			"otp":         otp,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "otp %q", otp)
		resp.Body.Close()
	}
}

func TestMe_requiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_withToken(t *testing.T) {
	env := newTestEnv(t)

	sendResp := env.post(t, "/auth/send-otp", map[string]string{"phoneNumber": "9876543210"})
	var sent envelope
	decode(t, sendResp, &sent)
	require.NotNil(t, sent.Development)

	verifyResp := env.post(t, "/auth/verify-otp", map[string]string{
		"phoneNumber": "9876543210",
		"otp":         sent.Development.OTP,
	})
	var verified envelope
	decode(t, verifyResp, &verified)
	require.NotEmpty(t, verified.Token)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+verified.Token)
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		ID          string `json:"id"`
		PhoneNumber string `json:"phoneNumber"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "+919876543210", me.PhoneNumber)
	assert.NotEmpty(t, me.ID)
}
