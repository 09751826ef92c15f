package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ridelink/server/internal/auth"
	"github.com/ridelink/server/internal/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.AuthService
	validate    *validator.Validate
	devMode     bool
}

// NewAuthHandler creates a new auth handler. devMode controls whether error
// responses carry detailed diagnostics.
func NewAuthHandler(authService *auth.AuthService, devMode bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		devMode:     devMode,
	}
}

// otpValue accepts the OTP as either a JSON string or a JSON number.
type otpValue string

func (v *otpValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = otpValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = otpValue(n.String())
		return nil
	}
	return fmt.Errorf("otp must be a string or a number")
}

// sendOTPRequest is the request body for POST /auth/send-otp
type sendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

// devOTPInfo carries the generated code on the dev fallback path
type devOTPInfo struct {
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// sendOTPResponse is the JSON response for send-otp
type sendOTPResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Development *devOTPInfo `json:"development,omitempty"`
}

// verifyOTPRequest is the request body for POST /auth/verify-otp
type verifyOTPRequest struct {
	PhoneNumber string   `json:"phoneNumber" validate:"required"`
	OTP         otpValue `json:"otp" validate:"required"`
}

// verifyOTPResponse is the JSON response for verify-otp
type verifyOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// userResponse is the user object in API responses
type userResponse struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
}

// HandleSendOTP handles POST /auth/send-otp
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "phoneNumber is required")
		return
	}

	result, err := h.authService.IssueOTP(r.Context(), req.PhoneNumber)
	if err != nil {
		logMaskedPhone(req.PhoneNumber, "Failed to issue OTP: %v", err)
		h.respondWithServiceError(w, err)
		return
	}

	response := sendOTPResponse{Success: true, Message: "OTP sent successfully"}
	if !result.Delivered {
		response.Message = "OTP generated (development mode)"
		response.Development = &devOTPInfo{OTP: result.Code, ExpiresAt: result.ExpiresAt}
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HandleVerifyOTP handles POST /auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "phoneNumber and otp are required")
		return
	}

	result, err := h.authService.VerifyOTP(r.Context(), req.PhoneNumber, string(req.OTP))
	if err != nil {
		logMaskedPhone(req.PhoneNumber, "OTP verification failed: %v", err)
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, verifyOTPResponse{
		Success: true,
		Message: "OTP verified successfully",
		Token:   result.Token,
	})
}

// HandleMe handles GET /me (protected). Returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondWithJSON(w, http.StatusOK, userResponse{
		ID:          user.ID.String(),
		PhoneNumber: user.PhoneNumber,
	})
}

// respondWithServiceError maps OTP lifecycle errors onto HTTP statuses. The
// uniform envelope is {success:false, message}; detailed diagnostics only in
// dev mode.
func (h *AuthHandler) respondWithServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, auth.ErrMissingPhone),
		errors.Is(err, auth.ErrMissingCode),
		errors.Is(err, auth.ErrBadCodeFormat),
		errors.Is(err, auth.ErrNoOTPOutstanding),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrCodeMismatch):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, auth.ErrUserNotFound):
		status = http.StatusNotFound
		message = auth.ErrUserNotFound.Error()
	case errors.Is(err, auth.ErrDelivery):
		status = http.StatusInternalServerError
		message = auth.ErrDelivery.Error()
	}

	if h.devMode {
		message = err.Error()
	}
	respondWithError(w, status, message)
}

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondWithError sends a JSON error response in the uniform envelope
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{"success": false, "message": message}
	_ = json.NewEncoder(w).Encode(response)
}

// logMaskedPhone logs a message with masked phone number
func logMaskedPhone(phone, format string, args ...interface{}) {
	masked := maskPhone(phone)
	log.Printf("Phone "+masked+": "+format, args...)
}

// maskPhone masks a phone number for logging (e.g., +91******10)
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}

	// Keep first 2 and last 2 characters, mask the rest
	prefix := phone[:2]
	suffix := phone[len(phone)-2:]
	masked := strings.Repeat("*", len(phone)-4)
	return prefix + masked + suffix
}
