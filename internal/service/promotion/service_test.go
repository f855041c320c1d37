package promotion

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	repo "github.com/cafeworks/espresso/internal/repository/promotion"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

type fakeStore struct {
	promotions map[int64]*entity.Promotion
	links      map[int64][]int64
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		promotions: make(map[int64]*entity.Promotion),
		links:      make(map[int64][]int64),
		nextID:     1,
	}
}

func (f *fakeStore) GetAll(context.Context) ([]*entity.Promotion, error) {
	out := make([]*entity.Promotion, 0, len(f.promotions))
	for _, p := range f.promotions {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*entity.Promotion, error) {
	p, ok := f.promotions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListWithinDates(_ context.Context, day time.Time) ([]*entity.Promotion, error) {
	out := make([]*entity.Promotion, 0)
	for _, p := range f.promotions {
		if !day.Before(truncate(p.ValidFrom)) && !day.After(truncate(p.ValidTo)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, p *entity.Promotion, dishIDs []int64) error {
	p.ID = f.nextID
	f.nextID++
	f.promotions[p.ID] = p
	f.links[p.ID] = append([]int64(nil), dishIDs...)
	syncDishes(p, dishIDs)
	return nil
}

func (f *fakeStore) Update(_ context.Context, p *entity.Promotion, dishIDs []int64, relink bool) error {
	if _, ok := f.promotions[p.ID]; !ok {
		return repo.ErrNotFound
	}
	f.promotions[p.ID] = p
	if relink {
		f.links[p.ID] = append([]int64(nil), dishIDs...)
		syncDishes(p, dishIDs)
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.promotions[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.promotions, id)
	delete(f.links, id)
	return nil
}

func syncDishes(p *entity.Promotion, dishIDs []int64) {
	p.Dishes = p.Dishes[:0]
	for _, id := range dishIDs {
		p.Dishes = append(p.Dishes, &entity.Dish{ID: id})
	}
}

func truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeDishStore struct {
	ids map[int64]bool
}

func (f *fakeDishStore) ListByIDs(_ context.Context, ids []int64) ([]*entity.Dish, error) {
	out := make([]*entity.Dish, 0, len(ids))
	for _, id := range ids {
		if f.ids[id] {
			out = append(out, &entity.Dish{ID: id})
		}
	}
	return out, nil
}

func newService(store *fakeStore) *Service {
	return NewService(Params{
		Store:  store,
		Dishes: &fakeDishStore{ids: map[int64]bool{1: true, 2: true}},
		Logger: zap.NewNop(),
	})
}

func date(s string) dto.Date {
	d, err := dto.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tod(s string) *entity.TimeOfDay {
	t, err := entity.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestCreateValidations(t *testing.T) {
	svc := newService(newFakeStore())
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.PromotionCreate
	}{
		{"reversed dates", dto.PromotionCreate{
			DiscountPercent: 10,
			ValidFrom:       date("2026-09-10"),
			ValidTo:         date("2026-09-01"),
		}},
		{"reversed times", dto.PromotionCreate{
			DiscountPercent: 10,
			ValidFrom:       date("2026-09-01"),
			ValidTo:         date("2026-09-10"),
			StartTime:       tod("18:00:00"),
			EndTime:         tod("16:00:00"),
		}},
		{"discount above 100", dto.PromotionCreate{
			DiscountPercent: 120,
			ValidFrom:       date("2026-09-01"),
			ValidTo:         date("2026-09-10"),
		}},
		{"negative discount", dto.PromotionCreate{
			DiscountPercent: -5,
			ValidFrom:       date("2026-09-01"),
			ValidTo:         date("2026-09-10"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			if !errorbank.IsKind(err, errorbank.KindBadRequest) {
				t.Fatalf("expected bad request, got %v", err)
			}
		})
	}
}

func TestCreateRejectsUnknownDish(t *testing.T) {
	svc := newService(newFakeStore())

	_, err := svc.Create(context.Background(), dto.PromotionCreate{
		DiscountPercent: 15,
		ValidFrom:       date("2026-09-01"),
		ValidTo:         date("2026-09-10"),
		DishIDs:         []int64{1, 77},
	})
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestCreateLinksDishes(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	created, err := svc.Create(context.Background(), dto.PromotionCreate{
		Description:     "lunch deal",
		DiscountPercent: 20,
		ValidFrom:       date("2026-09-01"),
		ValidTo:         date("2026-09-30"),
		DishIDs:         []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.Dishes) != 2 {
		t.Fatalf("expected 2 linked dishes, got %d", len(created.Dishes))
	}
}

func TestActiveAtFiltersByDailyWindow(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, dto.PromotionCreate{
		Description:     "happy hour",
		DiscountPercent: 25,
		ValidFrom:       date("2026-09-01"),
		ValidTo:         date("2026-09-30"),
		StartTime:       tod("16:00:00"),
		EndTime:         tod("18:00:00"),
		DishIDs:         []int64{1},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	within := time.Date(2026, 9, 15, 17, 0, 0, 0, time.UTC)
	active, err := svc.ActiveAt(ctx, within)
	if err != nil {
		t.Fatalf("active at: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected promotion active at 17:00, got %d", len(active))
	}

	outside := time.Date(2026, 9, 15, 19, 0, 0, 0, time.UTC)
	active, err = svc.ActiveAt(ctx, outside)
	if err != nil {
		t.Fatalf("active at: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no promotion active at 19:00, got %d", len(active))
	}

	_, err = svc.ListActive(ctx, outside)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRevalidatesMergedWindow(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.PromotionCreate{
		DiscountPercent: 10,
		ValidFrom:       date("2026-09-01"),
		ValidTo:         date("2026-09-10"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Moving valid_to before the existing valid_from must be rejected.
	before := date("2026-08-01")
	_, err = svc.Update(ctx, created.ID, dto.PromotionUpdate{ValidTo: &before})
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestUpdateReplacesDishSetOnlyWhenProvided(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.PromotionCreate{
		DiscountPercent: 10,
		ValidFrom:       date("2026-09-01"),
		ValidTo:         date("2026-09-10"),
		DishIDs:         []int64{1},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	desc := "renamed"
	updated, err := svc.Update(ctx, created.ID, dto.PromotionUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Dishes) != 1 {
		t.Fatalf("dish set should be untouched, got %d links", len(updated.Dishes))
	}

	updated, err = svc.Update(ctx, created.ID, dto.PromotionUpdate{DishIDs: []int64{1, 2}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Dishes) != 2 {
		t.Fatalf("dish set should be replaced, got %d links", len(updated.Dishes))
	}
}

func TestDeleteMissingPromotion(t *testing.T) {
	svc := newService(newFakeStore())

	err := svc.Delete(context.Background(), 5)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
