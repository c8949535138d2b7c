package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test"})
}

func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	backing := storage.NewMemory()
	return NewStore(context.Background(), backing, testLogger()), backing
}

func item(id string, itemType ItemType, price int64) Item {
	return Item{
		ID:       id,
		Type:     itemType,
		Name:     "item " + id,
		Price:    decimal.NewFromInt(price),
		VendorID: "v1",
	}
}

func TestTotalTracksMutations(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Add(ctx, item("svc1", ItemTypePackage, 15000))
	store.Add(ctx, item("svc2", ItemTypeService, 2500))
	if !store.Total().Equal(decimal.NewFromInt(17500)) {
		t.Fatalf("unexpected total %s", store.Total())
	}

	store.Remove(ctx, "svc1", ItemTypePackage)
	if !store.Total().Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("unexpected total after remove %s", store.Total())
	}

	store.Remove(ctx, "svc2", ItemTypeService)
	if !store.Total().IsZero() || store.Count() != 0 {
		t.Fatalf("empty cart must have zero total, got %s", store.Total())
	}
}

func TestAddReplacesByKey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Add(ctx, item("svc1", ItemTypePackage, 15000))
	store.Add(ctx, item("svc2", ItemTypePackage, 1000))
	store.Add(ctx, item("svc1", ItemTypePackage, 20000))

	if store.Count() != 2 {
		t.Fatalf("replacement must not grow the cart, count=%d", store.Count())
	}
	items := store.Items()
	if !items[0].Price.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("replacement must keep position and take the new price, got %s", items[0].Price)
	}
	if !store.Total().Equal(decimal.NewFromInt(21000)) {
		t.Fatalf("unexpected total %s", store.Total())
	}

	// Same id under a different type is a distinct entry.
	store.Add(ctx, item("svc1", ItemTypeService, 500))
	if store.Count() != 3 {
		t.Fatalf("(id, type) is the uniqueness key, count=%d", store.Count())
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Add(ctx, item("svc1", ItemTypePackage, 100))
	store.Remove(ctx, "missing", ItemTypePackage)
	if store.Count() != 1 {
		t.Fatalf("removing an absent item must not change the cart")
	}
}

func TestClearRemovesPersistedEntry(t *testing.T) {
	store, backing := newTestStore(t)
	ctx := context.Background()

	store.Add(ctx, item("svc1", ItemTypePackage, 100))
	if _, ok, _ := backing.Get(ctx, storage.KeyCart); !ok {
		t.Fatalf("cart must be persisted after add")
	}

	store.Clear(ctx)
	if store.Count() != 0 || !store.Total().IsZero() {
		t.Fatalf("clear must empty the cart")
	}
	if _, ok, _ := backing.Get(ctx, storage.KeyCart); ok {
		t.Fatalf("clear must delete the stored entry, not write an empty array")
	}
}

func TestCartSurvivesReload(t *testing.T) {
	backing := storage.NewMemory()
	ctx := context.Background()

	first := NewStore(ctx, backing, testLogger())
	first.Add(ctx, item("svc1", ItemTypePackage, 15000))

	second := NewStore(ctx, backing, testLogger())
	if second.Count() != 1 || !second.Total().Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("reloaded store must see persisted items, count=%d total=%s", second.Count(), second.Total())
	}
}

func TestCorruptedPersistedCartYieldsEmpty(t *testing.T) {
	backing := storage.NewMemory()
	ctx := context.Background()
	if err := backing.Set(ctx, storage.KeyCart, "{definitely not an item array"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := NewStore(ctx, backing, testLogger())
	if store.Count() != 0 || !store.Total().IsZero() {
		t.Fatalf("corrupted cart must load as empty")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	store.Add(ctx, item("svc1", ItemTypePackage, 100))

	items := store.Items()
	items[0].ID = "mutated"
	if store.Items()[0].ID != "svc1" {
		t.Fatalf("Items must not expose internal state")
	}
}
