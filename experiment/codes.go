// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/stimulus-rank/auth"
	"github.com/danielhkuo/stimulus-rank/models"
	"github.com/danielhkuo/stimulus-rank/store"
)

// maxCodeAttempts bounds retries when a generated code collides
const maxCodeAttempts = 5

// CodeGenerator returns a fresh participant code.
type CodeGenerator func() (string, error)

// IssueCode generates and stores a fresh participant code for group,
// retrying on collision.
func IssueCode(ctx context.Context, rw *store.Privileged, group int) (models.ParticipantCode, error) {
	return issueCode(ctx, rw, group, auth.GenerateParticipantCode)
}

func issueCode(ctx context.Context, rw *store.Privileged, group int, generate CodeGenerator) (models.ParticipantCode, error) {
	if group != models.GroupOne && group != models.GroupTwo {
		return models.ParticipantCode{}, fmt.Errorf("invalid group %d", group)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generate()
		if err != nil {
			return models.ParticipantCode{}, err
		}
		c := models.ParticipantCode{
			ID:        auth.NewRowID(),
			Code:      code,
			Group:     group,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		}
		err = rw.CreateCode(ctx, c)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return models.ParticipantCode{}, persistence("create code", c.ID, err)
		}
		return c, nil
	}
	return models.ParticipantCode{}, fmt.Errorf("no unique code after %d attempts", maxCodeAttempts)
}
