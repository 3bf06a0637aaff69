package app

import (
	"context"
	"fmt"
	"time"

	"progression-service/internal/domain"
)

type ledgerTx interface {
	UserRepository
	LedgerRepository
}

// grantXP appends one ledger entry and bumps the cached total in the same
// unit of work. A non-positive amount records nothing and returns nil.
func grantXP(ctx context.Context, tx ledgerTx, userID, amount int64, source domain.XPSource, referenceID int64, now time.Time) (*domain.XPTransaction, error) {
	if amount <= 0 {
		return nil, nil
	}
	if !source.Valid() {
		return nil, domain.InvalidInput(fmt.Sprintf("unknown xp source %q", source))
	}

	entry, err := tx.AppendXP(ctx, domain.XPTransaction{
		UserID:      userID,
		Amount:      amount,
		Source:      source,
		ReferenceID: referenceID,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if _, err := tx.IncrementXP(ctx, userID, amount); err != nil {
		return nil, err
	}
	return &entry, nil
}

// grantOnce is grantXP guarded by the ledger itself: a second grant for the
// same (user, source, reference) records nothing.
func grantOnce(ctx context.Context, tx ledgerTx, userID, amount int64, source domain.XPSource, referenceID int64, now time.Time) (*domain.XPTransaction, error) {
	if amount <= 0 {
		return nil, nil
	}
	seen, err := tx.HasXPEntry(ctx, userID, source, referenceID)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, nil
	}
	return grantXP(ctx, tx, userID, amount, source, referenceID, now)
}
