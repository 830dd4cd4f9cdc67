package engine

import (
	"context"
	"time"

	"github.com/coursekit/engine/internal/store"
	"github.com/google/uuid"
)

// CreateUser creates a new learner profile row with zeroed progress.
func (e *Engine) CreateUser(ctx context.Context, name string) (*store.User, error) {
	start := time.Now()
	if name == "" {
		err := ErrInvalidInput("name must not be empty")
		e.commandEvent("create_user", start, err)
		return nil, err
	}

	now := time.Now()
	u := &store.User{
		ID:             uuid.NewString(),
		DisplayName:    name,
		CreatedAt:      now,
		LastActivityAt: now,
		CumulativeXP:   0,
		Level:          1,
		StreakLength:   0,
	}

	err := e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var repos store.Repos
		return repos.Users.Create(ctx, tx, u)
	})
	e.commandEvent("create_user", start, err)
	if err != nil {
		return nil, err
	}
	return u, nil
}
