package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taskhub/internal/config"
	"taskhub/internal/domain"
	"taskhub/internal/mail"
	"taskhub/internal/security"
	"taskhub/internal/service"
	"taskhub/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware.
func NewRouter(
	cfg *config.Config,
	users domain.UserRepository,
	tasks domain.TaskRepository,
	messages domain.MessageRepository,
	hub *ws.Hub,
	tokens *security.TokenService,
	codes *security.AccessCodeHasher,
	mailer mail.Mailer,
) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(users, tokens, codes, mailer, cfg.ClientLoginURL)
	empSvc := service.NewEmployeeService(users, mailer, cfg.ClientLoginURL, cfg.SMTPEmail)
	taskSvc := service.NewTaskService(tasks, users)
	msgSvc := service.NewMessageService(messages, cfg.HistoryLimit)

	secure := cfg.IsProduction()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": cfg.AppName,
			"version": "1.0.0",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "OK",
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"connectedUsers": hub.ConnectedUsers(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/create-new-access-code", handleCreateAccessCode(authSvc))
			r.Post("/validate-access-code", handleValidateAccessCode(authSvc, tokens, secure))
			r.Post("/refresh-token", handleRefreshToken(authSvc, tokens, secure))
			r.Post("/logout", handleLogout(secure))

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(tokens, users))
				r.Get("/profile", handleGetProfile())
				r.Post("/edit", handleEditProfile(authSvc))
			})
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens, users))

			r.Route("/employees", func(r chi.Router) {
				r.With(OwnerOnly).Post("/create", handleCreateEmployee(empSvc))
				r.Get("/all", handleListAllUsers(empSvc))
				r.Get("/", handleListEmployees(empSvc))
				r.Get("/{id}", handleGetEmployee(empSvc))
				r.With(OwnerOnly).Post("/{id}", handleUpdateEmployee(empSvc))
				r.With(OwnerOnly).Delete("/{id}", handleDeleteEmployee(empSvc))
			})

			r.Route("/tasks", func(r chi.Router) {
				r.With(OwnerOnly).Get("/", handleListAllTasks(taskSvc))
				r.Get("/{id}", handleListTasksByUser(taskSvc))
				r.With(OwnerOnly).Post("/create/{id}", handleCreateTask(taskSvc))
				r.With(OwnerOnly).Post("/{id}", handleUpdateTask(taskSvc))
				r.Post("/{id}/status", handleChangeTaskStatus(taskSvc))
				r.With(OwnerOnly).Delete("/{id}", handleDeleteTask(taskSvc))
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/history/{userA}/{userB}", handleMessageHistory(msgSvc))
				r.Get("/conversations/{userID}", handleConversations(msgSvc))
				r.Get("/unread/{userID}", handleUnread(msgSvc))
				r.Post("/mark-read", handleMarkRead(msgSvc, hub))
			})
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, users, msgSvc, cfg.CORSOrigins))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain sentinel errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%v", err)})
}
