package dish

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/cache"
	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	categoryrepo "github.com/cafeworks/espresso/internal/repository/category"
	repo "github.com/cafeworks/espresso/internal/repository/dish"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

type fakeStore struct {
	dishes     map[int64]*entity.Dish
	referenced map[int64]bool
	onPromo    []int64
	getCalls   int
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		dishes:     make(map[int64]*entity.Dish),
		referenced: make(map[int64]bool),
		nextID:     1,
	}
}

func (f *fakeStore) GetAll(context.Context) ([]*entity.Dish, error) {
	out := make([]*entity.Dish, 0, len(f.dishes))
	for _, d := range f.dishes {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*entity.Dish, error) {
	f.getCalls++
	d, ok := f.dishes[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) GetByName(_ context.Context, name string) (*entity.Dish, error) {
	needle := strings.ToLower(name)
	for _, d := range f.dishes {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) ListByCategory(_ context.Context, categoryID int64) ([]*entity.Dish, error) {
	out := make([]*entity.Dish, 0)
	for _, d := range f.dishes {
		if d.CategoryID == categoryID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOnPromotion(context.Context) ([]*entity.Dish, error) {
	out := make([]*entity.Dish, 0)
	for _, id := range f.onPromo {
		if d, ok := f.dishes[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) MostPopular(context.Context) (*entity.Dish, error) {
	return nil, repo.ErrNotFound
}

func (f *fakeStore) SortByPrice(_ context.Context, ascending bool) ([]*entity.Dish, error) {
	out, _ := f.GetAll(context.Background())
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			less := out[j].Price.LessThan(out[i].Price)
			if less == ascending {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeStore) HasOrderItems(_ context.Context, dishID int64) (bool, error) {
	return f.referenced[dishID], nil
}

func (f *fakeStore) Create(_ context.Context, d *entity.Dish) error {
	d.ID = f.nextID
	f.nextID++
	f.dishes[d.ID] = d
	return nil
}

func (f *fakeStore) Update(_ context.Context, d *entity.Dish) error {
	if _, ok := f.dishes[d.ID]; !ok {
		return repo.ErrNotFound
	}
	f.dishes[d.ID] = d
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.dishes[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.dishes, id)
	return nil
}

type fakeCategoryStore struct {
	ids map[int64]bool
}

func (f *fakeCategoryStore) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	if !f.ids[id] {
		return nil, categoryrepo.ErrNotFound
	}
	return &entity.Category{ID: id}, nil
}

type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func newService(store *fakeStore, c cache.Store) *Service {
	if c == nil {
		c = newMemCache()
	}
	return NewService(Params{
		Store:      store,
		Categories: &fakeCategoryStore{ids: map[int64]bool{1: true}},
		Cache:      c,
		Logger:     zap.NewNop(),
	})
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateValidations(t *testing.T) {
	svc := newService(newFakeStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.DishCreate
		kind  errorbank.Kind
	}{
		{"blank name", dto.DishCreate{Name: " ", Price: price("2.50"), CategoryID: 1}, errorbank.KindBadRequest},
		{"zero price", dto.DishCreate{Name: "Espresso", Price: decimal.Zero, CategoryID: 1}, errorbank.KindBadRequest},
		{"negative price", dto.DishCreate{Name: "Espresso", Price: price("-1"), CategoryID: 1}, errorbank.KindBadRequest},
		{"missing category", dto.DishCreate{Name: "Espresso", Price: price("2.50"), CategoryID: 99}, errorbank.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			if !errorbank.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := newService(newFakeStore(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, dto.DishCreate{Name: "Latte", Price: price("3.00"), CategoryID: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(ctx, dto.DishCreate{Name: "latte", Price: price("3.10"), CategoryID: 1})
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetUsesCache(t *testing.T) {
	store := newFakeStore()
	mc := newMemCache()
	svc := newService(store, mc)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.DishCreate{Name: "Mocha", Price: price("3.80"), CategoryID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.getCalls = 0
	if _, err := svc.Get(ctx, created.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if store.getCalls != 0 {
		t.Fatalf("expected cache hit, store was queried %d times", store.getCalls)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	mc := newMemCache()
	svc := newService(store, mc)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.DishCreate{Name: "Flat White", Price: price("3.40"), CategoryID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := price("3.60")
	updated, err := svc.Update(ctx, created.ID, dto.DishUpdate{Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("price not updated: %s", updated.Price)
	}

	fresh, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !fresh.Price.Equal(newPrice) {
		t.Fatalf("stale cached price: %s", fresh.Price)
	}
}

func TestDeleteRefusedWhenOrdered(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.DishCreate{Name: "Scone", Price: price("2.20"), CategoryID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.referenced[created.ID] = true

	err = svc.Delete(ctx, created.ID)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestListByCategoryEmptyReportsNotFound(t *testing.T) {
	svc := newService(newFakeStore(), nil)

	_, err := svc.ListByCategory(context.Background(), 1)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMostPopularEmptyReportsNotFound(t *testing.T) {
	svc := newService(newFakeStore(), nil)

	_, err := svc.MostPopular(context.Background())
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
