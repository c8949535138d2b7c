package cart

import (
	"context"
	"testing"

	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

func TestFromContextReturnsAttachedStore(t *testing.T) {
	store := NewStore(context.Background(), storage.NewMemory(), testLogger())
	ctx := NewContext(context.Background(), store)

	if FromContext(ctx) != store {
		t.Fatalf("expected the attached store back")
	}
}

func TestFromContextPanicsWithoutProvider(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when no store is attached")
		}
	}()
	FromContext(context.Background())
}
