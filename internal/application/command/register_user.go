package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Adds a participant. The user gets a default vote in every open roulette.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the new participant's data.
type RegisterUserCommand struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,email,max=254"`
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	return validateStruct("user", "Register", c)
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	users          roulette.UserRepository
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(
	users roulette.UserRepository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		users:          users,
		eventPublisher: eventPublisher,
		logger:         defaultLogger(logger),
	}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*roulette.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_user: validation failed: %w", err)
	}

	user, err := roulette.NewUser(cmd.Name, cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	if err := h.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register_user: failed to save: %w", err)
	}

	if h.eventPublisher != nil {
		event := shared.NewUserRegisteredEvent(int64(user.ID), user.Name, user.Email)
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish user registered event", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}
