package handler

import (
	"encoding/json"
	"net/http"

	"library_api/internal/api/middleware"
	"library_api/internal/app/service"
	"library_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireGuest).Post("/auth/sign-up", h.signUp)
	r.With(middleware.RequireGuest).Post("/auth/sign-in", h.signIn)
	r.With(middleware.RequireAuth).Get("/auth/sign-out", h.signOut)
}

type authSuccessResponse struct {
	Data    *service.AuthResponse `json:"data"`
	Message string                `json:"message"`
	Status  int                   `json:"status"`
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := h.authService.SignUp(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, authSuccessResponse{
		Data:    resp,
		Message: "OK",
		Status:  http.StatusOK,
	})
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req service.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	resp, err := h.authService.SignIn(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, authSuccessResponse{
		Data:    resp,
		Message: "OK",
		Status:  http.StatusOK,
	})
}

func (h *AuthHandler) signOut(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	accessToken, _ := middleware.GetAccessTokenFromContext(r.Context())

	if err := h.authService.SignOut(r.Context(), user.ID, accessToken); err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	}{"OK", http.StatusOK})
}
