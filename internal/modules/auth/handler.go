package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/georgemunganga/slist-backend/internal/modules/user"
	"github.com/georgemunganga/slist-backend/internal/validation"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the /auth endpoints.
type Handler struct {
	service  Service
	logger   *slog.Logger
	validate *validation.Validator
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger, validate: validation.New()}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(Middleware(h.service, h.logger))
			r.Get("/me", h.me)
			r.Post("/logout", h.logout)
		})
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Email = user.NormalizeEmail(req.Email)
	if errs := h.validate.Struct(req); errs != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "Validation failed", "details": errs})
		return
	}

	sess, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			respond(w, http.StatusBadRequest, map[string]string{"error": "User already exists"})
		case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrWeakPassword),
			errors.Is(err, user.ErrPasswordTooLong), errors.Is(err, user.ErrInvalidName):
			respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.logger.Error("register failed", "error", err)
			respond(w, http.StatusInternalServerError, map[string]string{"error": "Registration failed"})
		}
		return
	}

	respond(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    sess.User,
		"token":   sess.Token,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Email = user.NormalizeEmail(req.Email)
	if errs := h.validate.Struct(req); errs != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "Validation failed", "details": errs})
		return
	}

	sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		h.logger.Error("login failed", "error", err)
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Login failed"})
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    sess.User,
		"token":   sess.Token,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "Authentication failed"})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"user": u})
}

// logout is a no-op on the server: tokens are stateless and the client drops its copy.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
