package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

func TestStoreRollsBackOnError(t *testing.T) {
	store := NewStore()
	store.AddUser(domain.User{ID: 1})
	boom := errors.New("boom")

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx app.Tx) error {
		if _, err := tx.AppendXP(ctx, domain.XPTransaction{UserID: 1, Amount: 10, Source: domain.SourceQuizCompletion}); err != nil {
			return err
		}
		if _, err := tx.IncrementXP(ctx, 1, 10); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	user, _ := store.User(1)
	if user.XP != 0 || len(store.Ledger(1)) != 0 {
		t.Fatalf("rolled back writes are visible: xp=%d ledger=%d", user.XP, len(store.Ledger(1)))
	}
}

func TestStoreRollsBackOnPanic(t *testing.T) {
	store := NewStore()
	store.AddUser(domain.User{ID: 1})

	func() {
		defer func() { _ = recover() }()
		_ = store.WithinTx(context.Background(), func(ctx context.Context, tx app.Tx) error {
			_, _ = tx.IncrementXP(ctx, 1, 10)
			panic("mid-transaction")
		})
	}()

	user, _ := store.User(1)
	if user.XP != 0 {
		t.Fatalf("expected xp untouched after panic, got %d", user.XP)
	}
	// the store is still usable
	if err := store.WithinTx(context.Background(), func(context.Context, app.Tx) error { return nil }); err != nil {
		t.Fatalf("store unusable after panic: %v", err)
	}
}

func TestStoreFaultIsOneShot(t *testing.T) {
	store := NewStore()
	store.AddUser(domain.User{ID: 1})
	boom := errors.New("boom")
	store.FailOn("IncrementXP", boom)

	bump := func(ctx context.Context, tx app.Tx) error {
		_, err := tx.IncrementXP(ctx, 1, 5)
		return err
	}
	if err := store.WithinTx(context.Background(), bump); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if err := store.WithinTx(context.Background(), bump); err != nil {
		t.Fatalf("expected second call to succeed, got %v", err)
	}
}

func TestStoreCompleteLessonIsConditional(t *testing.T) {
	store := NewStore()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	var first, second domain.LessonProgress
	var applied bool
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx app.Tx) error {
		var err error
		if first, applied, err = tx.CompleteLesson(ctx, 1, 7, now); err != nil || !applied {
			t.Fatalf("first completion: applied=%v err=%v", applied, err)
		}
		second, applied, err = tx.CompleteLesson(ctx, 1, 7, now.Add(time.Hour))
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if applied {
		t.Fatalf("second completion must not apply")
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) || !first.StartedAt.Equal(now) {
		t.Fatalf("completed row changed: %+v", second)
	}
}

func TestStoreRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewStore().WithinTx(ctx, func(context.Context, app.Tx) error { return nil })
	if !errors.Is(err, domain.ErrStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
}
