package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/safeher/platform/internal/http/middleware"
	"github.com/safeher/platform/internal/service"
	"github.com/safeher/platform/internal/util"
)

// AuthHandler serves login, registration and the token lifecycle.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates the handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         service.Identity `json:"user"`
}

// Login authenticates any role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}

type registerWomanRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Document is the base64-encoded identity document.
	Document     string `json:"document"`
	DocumentType string `json:"document_type"`
}

// RegisterWoman creates a woman account and returns a ready session.
func (h *AuthHandler) RegisterWoman(w http.ResponseWriter, r *http.Request) {
	var req registerWomanRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	if details := validateRegistration(req.Name, req.Phone, req.Email, req.Password); len(details) > 0 {
		WriteValidation(w, details)
		return
	}

	document, err := base64.StdEncoding.DecodeString(req.Document)
	if err != nil {
		WriteValidation(w, map[string]string{"document": "invalid base64"})
		return
	}

	result, err := h.auth.RegisterWoman(r.Context(), service.RegisterWomanInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Password:     req.Password,
		Document:     document,
		DocumentType: req.DocumentType,
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}

type registerCommunityRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	SecretCode string `json:"secret_code"`
}

// RegisterCommunity creates a pending community account. The response carries
// no token; the account must be approved by an admin first.
func (h *AuthHandler) RegisterCommunity(w http.ResponseWriter, r *http.Request) {
	var req registerCommunityRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	if details := validateRegistration(req.Name, req.Phone, req.Email, req.Password); len(details) > 0 {
		WriteValidation(w, details)
		return
	}

	identity, err := h.auth.RegisterCommunity(r.Context(), service.RegisterCommunityInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		SecretCode: req.SecretCode,
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, identity)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token into a new pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated profile, re-applying the account gates.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := uuid.Parse(middleware.GetSubject(r.Context()))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid token")
		return
	}

	identity, err := h.auth.GetMe(r.Context(), subject)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, identity)
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error())
	case errors.Is(err, service.ErrAccountSuspended),
		errors.Is(err, service.ErrPendingApproval):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPhoneTaken):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, service.ErrInvalidSecretCode),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrDocumentRequired):
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func validateRegistration(name, phone, email, password string) map[string]string {
	details := map[string]string{}
	if err := util.RequireString(name, "name"); err != nil {
		details["name"] = err.Error()
	}
	if err := util.ValidatePhone(phone); err != nil {
		details["phone"] = err.Error()
	}
	if err := util.ValidateEmail(email); err != nil {
		details["email"] = err.Error()
	}
	if err := util.ValidatePassword(password); err != nil {
		details["password"] = err.Error()
	}
	return details
}
