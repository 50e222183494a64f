package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{Search: c.Query("search")}
	if raw := c.Query("role"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": raw})
		}
		filter.Role = &role
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	filter.Active = active
	filter.Limit, filter.Offset = pagination(c)

	users, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(users, userResponse))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, userResponse(user))
}

// CreateAdmin handles POST /users/admins.
func (h *UsersHandler) CreateAdmin(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, temp, err := h.users.CreateAdmin(c.UserContext(), actor, accountInput(req))
	if err != nil {
		return err
	}
	return respondCreated(c, dto.AccountCreatedResponse{User: userResponse(user), TemporaryPassword: temp})
}

// SetActive handles PATCH /users/:id/active.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ActiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Active == nil {
		return apperrors.NewValidationError("active required", map[string]any{"field": "active"})
	}
	user, err := h.users.SetActive(c.UserContext(), actor, c.Params("id"), *req.Active)
	if err != nil {
		return err
	}
	return respond(c, userResponse(user))
}

func accountInput(req dto.AccountRequest) service.AccountInput {
	return service.AccountInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
}
