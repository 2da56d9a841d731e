package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// fakeTx satisfies pgx.Tx through embedding; only identity matters here.
type fakeTx struct{ pgx.Tx }

func TestConnFromContext_Empty(t *testing.T) {
	if ConnFromContext(context.Background()) != nil {
		t.Error("expected nil connection for bare context")
	}
}

func TestConnFromContext_WithTx(t *testing.T) {
	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx)
	got := ConnFromContext(ctx)
	if got == nil {
		t.Fatal("expected transaction from context")
	}
	if got.(*fakeTx) != tx {
		t.Error("expected the same transaction back")
	}
}

func TestRunInTx_JoinsExisting(t *testing.T) {
	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx)

	called := false
	// A nil pool proves no new transaction is started.
	err := RunInTx(ctx, nil, func(inner context.Context) error {
		called = true
		if ConnFromContext(inner).(*fakeTx) != tx {
			t.Error("expected outer transaction to be reused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to run")
	}
}

func TestRunInTx_PropagatesError(t *testing.T) {
	ctx := WithTx(context.Background(), &fakeTx{})
	want := errors.New("boom")
	if err := RunInTx(ctx, nil, func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}
