package handlers

import (
	"net/http"

	"arborist-study-api/apperr"
	"arborist-study-api/auth"
	"arborist-study-api/db"
	"arborist-study-api/models"
	"arborist-study-api/utils"
)

type AuthHandlers struct {
	db     *db.DB
	tokens *auth.TokenService
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondWithError(w, apperr.Validationf("username, email and password are required"))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondWithError(w, err)
		return
	}

	user, err := h.db.CreateUser(req, hash)
	if err != nil {
		respondWithError(w, err)
		return
	}

	token, err := h.tokens.CreateAccessToken(user.Username)
	if err != nil {
		respondWithError(w, err)
		return
	}

	utils.LogInfo("Registered new user: %s", user.Username)
	respondWithJSON(w, http.StatusCreated, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	user, hash, err := h.db.GetUserByUsername(req.Username)
	if err != nil || !utils.CheckPassword(hash, req.Password) {
		// Same response for unknown user and wrong password
		respondWithJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
		return
	}

	token, err := h.tokens.CreateAccessToken(user.Username)
	if err != nil {
		respondWithError(w, err)
		return
	}

	progress, err := h.db.GetUserProgress(user.ID)
	if err == nil {
		user.Progress = progress
	}

	respondWithJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	})
}

// Me returns the authenticated user's profile with current progress
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	user := UserFromContext(r.Context())

	progress, err := h.db.GetUserProgress(user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	user.Progress = progress

	respondWithJSON(w, http.StatusOK, user)
}
