package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

type registerResponse struct {
	Message string             `json:"message"`
	User    *models.PublicUser `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	reg, err := h.decodeRegistration(w, r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	user, err := h.users.Register(r.Context(), reg)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{Message: "user registered successfully", User: user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(r.Context(), w, common.Validation("email and password are required"))
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}
