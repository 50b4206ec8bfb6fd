package services

import (
	"context"
	"fmt"
	"math/rand"

	"salonq/internal/core/domain"
)

const maxTokenAttempts = 30

// TokenAllocator issues short walk-in codes such as "K07"
type TokenAllocator struct {
	intN func(n int) int
}

// NewTokenAllocator creates a token allocator backed by math/rand
func NewTokenAllocator() *TokenAllocator {
	return &TokenAllocator{intN: rand.Intn}
}

// Allocate returns a token not held by any pending, in-progress or skipped booking of the salon
func (a *TokenAllocator) Allocate(ctx context.Context, store QueueStore, salonID uint) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token := fmt.Sprintf("%c%02d", 'A'+rune(a.intN(26)), a.intN(100))
		inUse, err := store.TokenInUse(ctx, salonID, token)
		if err != nil {
			return "", err
		}
		if !inUse {
			return token, nil
		}
	}
	return "", domain.ErrTokenExhausted.WithMessage("no free walk-in token after %d attempts", maxTokenAttempts)
}
