package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UserService defines the interface for admin user management
type UserService interface {
	List(ctx context.Context) ([]*models.AdminUser, error)
	Get(ctx context.Context, id string) (*models.AdminUser, error)
	Tabs() []string
	Create(ctx context.Context, actorID string, in services.AdminUserInput) (*models.AdminUser, error)
	Update(ctx context.Context, actorID, id string, in services.AdminUserInput) (*models.AdminUser, error)
	Delete(ctx context.Context, actorID, id string) error
}

// UserHandler handles the user management tab
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// UserRequest is the body of POST and PUT /api/users
type UserRequest struct {
	FirstName       string   `json:"first_name" validate:"required,max=100"`
	LastName        string   `json:"last_name" validate:"required,max=100"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           string   `json:"phone" validate:"max=32"`
	Address         string   `json:"address" validate:"max=255"`
	Username        string   `json:"username" validate:"required,max=64"`
	Role            string   `json:"role" validate:"omitempty,oneof=Admin SuperAdmin"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirmPassword"`
	Access          []string `json:"access"`
}

func (req UserRequest) input() services.AdminUserInput {
	return services.AdminUserInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		Username:        req.Username,
		Role:            req.Role,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Access:          req.Access,
	}
}

// RegisterRoutes registers the user routes on a router already gated by tab
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Get("/tabs", h.ListTabs)
	r.Post("/", h.CreateUser)
	r.Get("/{id}", h.GetUser)
	r.Put("/{id}", h.UpdateUser)
	r.Delete("/{id}", h.DeleteUser)
}

// ListUsers returns every admin ordered by last name
//
// @Summary List admin users
// @Produce json
// @Success 200 {array} models.AdminUserResponse
// @Router /api/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "No users found")
		return
	}

	resp := make([]models.AdminUserResponse, len(users))
	for i, u := range users {
		resp[i] = u.ToResponse()
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ListTabs returns the tabs a user can be granted
func (h *UserHandler) ListTabs(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.service.Tabs())
}

// GetUser retrieves a user by ID
//
// @Summary Get admin user by ID
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} models.AdminUserResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "User not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, user.ToResponse())
}

// CreateUser creates an admin and grants its tabs in one transaction
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), actorID(r), req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "User not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, user.ToResponse())
}

// UpdateUser replaces a user's profile and tabs. The password changes only when one is sent.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), actorID(r), id, req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "User not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, user.ToResponse())
}

// DeleteUser removes a user and its permissions
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		writeServiceError(w, r, h.logger, err, "User not found")
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, "User deleted successfully.")
}

// userIDParam rejects ids that are not UUIDs before they reach the database
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return "", false
	}
	return id, true
}
