package repository

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func TestUpsertOnceRetriesDuplicateKey(t *testing.T) {
	calls := 0
	err := upsertOnce(func() error {
		calls++
		if calls == 1 {
			return duplicateKeyErr()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry should have succeeded: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly one retry, got %d calls", calls)
	}
}

func TestUpsertOnceRetriesOnlyOnce(t *testing.T) {
	calls := 0
	err := upsertOnce(func() error {
		calls++
		return duplicateKeyErr()
	})
	if !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("persistent duplicate must surface, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestUpsertOnceDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	err := upsertOnce(func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-duplicate errors must not be retried, got %d calls", calls)
	}
}

func TestUpsertOnceSuccessFirstTry(t *testing.T) {
	calls := 0
	if err := upsertOnce(func() error { calls++; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected single call, got %d", calls)
	}
}
