package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER EXPLORER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterExplorerCommand creates a new explorer profile.
type RegisterExplorerCommand struct {
	// Name is the display name.
	Name string

	// Pin is the plain-text PIN, hashed before storage.
	Pin string

	// MentorID optionally links the explorer to a mentor. Empty means
	// solo mode: text submissions complete immediately.
	MentorID shared.ExplorerID
}

// Validate validates the command.
func (c RegisterExplorerCommand) Validate() error {
	if shared.IsBlank(c.Name) {
		return errors.New("register_explorer: name is required")
	}
	if c.Pin == "" {
		return errors.New("register_explorer: pin is required")
	}
	return nil
}

// RegisterExplorerResult contains the created profile.
type RegisterExplorerResult struct {
	Explorer  *explorer.Explorer
	CreatedAt time.Time
}

// RegisterExplorerHandler handles RegisterExplorerCommand.
type RegisterExplorerHandler struct {
	explorerRepo explorer.Repository
	logger       *slog.Logger
}

// NewRegisterExplorerHandler creates a new RegisterExplorerHandler.
func NewRegisterExplorerHandler(explorerRepo explorer.Repository, logger *slog.Logger) *RegisterExplorerHandler {
	return &RegisterExplorerHandler{explorerRepo: explorerRepo, logger: logger}
}

// Handle executes the registration.
func (h *RegisterExplorerHandler) Handle(ctx context.Context, cmd RegisterExplorerCommand) (*RegisterExplorerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	exp, err := explorer.New(shared.ExplorerID(uuid.NewString()), cmd.Name, cmd.Pin, now)
	if err != nil {
		return nil, err
	}

	if cmd.MentorID.IsValid() {
		if _, err := h.explorerRepo.GetByID(ctx, cmd.MentorID); err != nil {
			return nil, fmt.Errorf("register_explorer: mentor: %w", err)
		}
		if err := exp.AssignMentor(cmd.MentorID, now); err != nil {
			return nil, err
		}
	}

	if err := h.explorerRepo.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("register_explorer: %w", err)
	}

	h.logger.Info("explorer registered",
		slog.String("explorer_id", exp.ID.String()),
		slog.Bool("solo", exp.IsSolo()))

	return &RegisterExplorerResult{Explorer: exp, CreatedAt: now}, nil
}
