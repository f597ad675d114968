package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/datafolio/internal/model"
	"github.com/templui/datafolio/internal/repository"
	"github.com/templui/datafolio/internal/validation"
)

// recipient resolves the user a resource is shared with.
func recipient(ctx context.Context, users repository.UserRepository, owner *model.User, email string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalidInput(err)
	}

	user, err := users.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		slog.Info("share target not found", "user_id", owner.ID, "email", email)
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.ID == owner.ID {
		return nil, invalidInput(errors.New("cannot share with yourself"))
	}

	return user, nil
}

// notifyShare sends the share email. Failures are logged only.
func notifyShare(ctx context.Context, email *EmailService, to, owner *model.User, itemName, itemKind string) {
	if email == nil {
		return
	}

	err := email.SendShareNotification(ctx, to.Email, owner.Email, itemName, itemKind)
	if err != nil {
		slog.Warn("failed to send share notification", "error", err, "user_id", owner.ID, "to", to.ID)
	}
}
