package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"taskhub/internal/security"
	"taskhub/internal/service"
)

type accessCodeRequest struct {
	Email string `json:"email"`
}

func handleCreateAccessCode(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accessCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := authSvc.RequestAccessCode(r.Context(), req.Email); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

type validateCodeRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"accessCode"`
}

func handleValidateAccessCode(authSvc *service.AuthService, tokens *security.TokenService, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		user, pair, err := authSvc.ValidateAccessCode(r.Context(), req.Email, req.AccessCode)
		if err != nil {
			writeError(w, err)
			return
		}
		setAuthCookies(w, tokens, pair, secure)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
	}
}

func handleRefreshToken(authSvc *service.AuthService, tokens *security.TokenService, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshTokenCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Refresh token not found."})
			return
		}
		access, err := authSvc.Refresh(r.Context(), cookie.Value)
		if err != nil {
			writeError(w, err)
			return
		}
		http.SetCookie(w, authCookie(AccessTokenCookie, access, tokens.AccessTTL(), secure))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func handleLogout(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, expiredCookie(AccessTokenCookie, secure))
		http.SetCookie(w, expiredCookie(RefreshTokenCookie, secure))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func handleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": CurrentUser(r)})
	}
}

type profileEditRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Department  string `json:"department"`
	Role        string `json:"role"`
}

func handleEditProfile(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileEditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		user, err := authSvc.EditProfile(r.Context(), CurrentUser(r).ID, service.ProfileEditInput{
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Department:  req.Department,
			Role:        req.Role,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
	}
}

func setAuthCookies(w http.ResponseWriter, tokens *security.TokenService, pair *service.TokenPair, secure bool) {
	http.SetCookie(w, authCookie(AccessTokenCookie, pair.AccessToken, tokens.AccessTTL(), secure))
	http.SetCookie(w, authCookie(RefreshTokenCookie, pair.RefreshToken, tokens.RefreshTTL(), secure))
}

func authCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func expiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
