package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	"github.com/cafeworks/espresso/internal/messaging"
	dishrepo "github.com/cafeworks/espresso/internal/repository/dish"
	repo "github.com/cafeworks/espresso/internal/repository/order"
	tablerepo "github.com/cafeworks/espresso/internal/repository/table"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

type fakeStore struct {
	orders     map[int64]*entity.Order
	nextID     int64
	nextItemID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[int64]*entity.Order), nextID: 1, nextItemID: 1}
}

func (f *fakeStore) GetAll(context.Context) ([]*entity.Order, error) {
	out := make([]*entity.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) ListActive(context.Context) ([]*entity.Order, error) {
	out := make([]*entity.Order, 0)
	for _, o := range f.orders {
		if !o.IsCompleted {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByPeriod(_ context.Context, start, end time.Time) ([]*entity.Order, error) {
	out := make([]*entity.Order, 0)
	for _, o := range f.orders {
		if !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateWithItems(_ context.Context, o *entity.Order, items []*entity.OrderItem) error {
	o.ID = f.nextID
	f.nextID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	for _, item := range items {
		item.ID = f.nextItemID
		f.nextItemID++
		item.OrderID = o.ID
	}
	o.Items = items
	f.orders[o.ID] = o
	return nil
}

func (f *fakeStore) Update(_ context.Context, o *entity.Order) error {
	if _, ok := f.orders[o.ID]; !ok {
		return repo.ErrNotFound
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeStore) Complete(_ context.Context, id int64) error {
	o, ok := f.orders[id]
	if !ok || o.IsCompleted {
		return repo.ErrNotActive
	}
	o.IsCompleted = true
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type fakeTableStore struct {
	ids      map[int64]bool
	occupied map[int64]bool
}

func (f *fakeTableStore) GetByID(_ context.Context, id int64) (*entity.Table, error) {
	if !f.ids[id] {
		return nil, tablerepo.ErrNotFound
	}
	return &entity.Table{ID: id}, nil
}

func (f *fakeTableStore) IsOccupied(_ context.Context, id int64) (bool, error) {
	return f.occupied[id], nil
}

type fakeDishStore struct {
	dishes map[int64]*entity.Dish
}

func (f *fakeDishStore) GetByID(_ context.Context, id int64) (*entity.Dish, error) {
	d, ok := f.dishes[id]
	if !ok {
		return nil, dishrepo.ErrNotFound
	}
	return d, nil
}

type fakeItemStore struct {
	store *fakeStore
}

func (f *fakeItemStore) ListByOrder(_ context.Context, orderID int64) ([]*entity.OrderItem, error) {
	o, ok := f.store.orders[orderID]
	if !ok {
		return nil, nil
	}
	return o.Items, nil
}

type fakePromotions struct {
	active []*entity.Promotion
}

func (f *fakePromotions) ActiveAt(context.Context, time.Time) ([]*entity.Promotion, error) {
	return f.active, nil
}

type fakeBus struct {
	published []Event
}

func (f *fakeBus) Publish(_ context.Context, _ []byte, value []byte) error {
	var ev Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeBus) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeBus) Topic() string { return "test" }

type harness struct {
	svc    *Service
	store  *fakeStore
	tables *fakeTableStore
	dishes *fakeDishStore
	promos *fakePromotions
	bus    *fakeBus
}

func newHarness() *harness {
	store := newFakeStore()
	tables := &fakeTableStore{
		ids:      map[int64]bool{1: true, 2: true},
		occupied: map[int64]bool{},
	}
	dishes := &fakeDishStore{dishes: map[int64]*entity.Dish{
		10: {ID: 10, Name: "Espresso", Price: decimal.RequireFromString("2.50")},
		11: {ID: 11, Name: "Croissant", Price: decimal.RequireFromString("3.00")},
	}}
	promos := &fakePromotions{}
	bus := &fakeBus{}

	svc := NewService(Params{
		Store:      store,
		Tables:     tables,
		Dishes:     dishes,
		Items:      &fakeItemStore{store: store},
		Promotions: promos,
		Bus:        bus,
		Logger:     zap.NewNop(),
	})
	return &harness{svc: svc, store: store, tables: tables, dishes: dishes, promos: promos, bus: bus}
}

func TestCreateSnapshotsPrices(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderCreate{
		TableID: 1,
		Items: []dto.OrderLineInput{
			{DishID: 10, Quantity: 2},
			{DishID: 11, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(created.Items))
	}
	if !created.Items[0].PriceAtOrder.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("price not snapshotted: %s", created.Items[0].PriceAtOrder)
	}

	// The snapshot is insulated from later menu changes.
	h.dishes.dishes[10].Price = decimal.RequireFromString("9.99")
	reloaded, err := h.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reloaded.Items[0].PriceAtOrder.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("snapshot drifted: %s", reloaded.Items[0].PriceAtOrder)
	}
}

func TestCreateKeepsDuplicateLinesSeparate(t *testing.T) {
	h := newHarness()

	created, err := h.svc.Create(context.Background(), dto.OrderCreate{
		TableID: 1,
		Items: []dto.OrderLineInput{
			{DishID: 10, Quantity: 1},
			{DishID: 10, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.Items) != 2 {
		t.Fatalf("creation must not merge lines, got %d", len(created.Items))
	}
}

func TestCreateValidations(t *testing.T) {
	h := newHarness()
	h.tables.occupied[2] = true
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.OrderCreate
		kind  errorbank.Kind
	}{
		{"unknown table", dto.OrderCreate{TableID: 99}, errorbank.KindBadRequest},
		{"occupied table", dto.OrderCreate{TableID: 2}, errorbank.KindConflict},
		{"unknown dish", dto.OrderCreate{TableID: 1, Items: []dto.OrderLineInput{{DishID: 77, Quantity: 1}}}, errorbank.KindBadRequest},
		{"zero quantity", dto.OrderCreate{TableID: 1, Items: []dto.OrderLineInput{{DishID: 10, Quantity: 0}}}, errorbank.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx, tt.input)
			if !errorbank.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestCompleteIsOneWay(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderCreate{TableID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed, err := h.svc.Complete(ctx, created.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !completed.IsCompleted {
		t.Fatal("order should be completed")
	}

	_, err = h.svc.Complete(ctx, created.ID)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("second complete should conflict, got %v", err)
	}
}

func TestUpdateCannotReopenCompletedOrder(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderCreate{TableID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.Complete(ctx, created.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	reopen := false
	_, err = h.svc.Update(ctx, created.ID, dto.OrderUpdate{IsCompleted: &reopen})
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateMoveToOccupiedTableConflicts(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderCreate{TableID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h.tables.occupied[2] = true

	target := int64(2)
	_, err = h.svc.Update(ctx, created.ID, dto.OrderUpdate{TableID: &target})
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteRequiresCompletion(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderCreate{TableID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = h.svc.Delete(ctx, created.ID)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := h.svc.Complete(ctx, created.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := h.svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = h.svc.Get(ctx, created.ID)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestLifecycleEventsPublished(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderCreate{
		TableID: 1,
		Items:   []dto.OrderLineInput{{DishID: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.Complete(ctx, created.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if len(h.bus.published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(h.bus.published))
	}
	if h.bus.published[0].Type != EventOrderCreated || h.bus.published[1].Type != EventOrderCompleted {
		t.Fatalf("unexpected event sequence: %s, %s", h.bus.published[0].Type, h.bus.published[1].Type)
	}
	if h.bus.published[0].OrderID != created.ID || len(h.bus.published[0].Items) != 1 {
		t.Fatalf("created event missing payload: %+v", h.bus.published[0])
	}
}

func TestCalculateTotal(t *testing.T) {
	window := func(dishIDs []int64, percent int) *entity.Promotion {
		p := &entity.Promotion{
			DiscountPercent: percent,
			ValidFrom:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:         time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		for _, id := range dishIDs {
			p.Dishes = append(p.Dishes, &entity.Dish{ID: id})
		}
		return p
	}

	tests := []struct {
		name   string
		lines  []dto.OrderLineInput
		promos []*entity.Promotion
		want   string
	}{
		{
			name:  "no promotions",
			lines: []dto.OrderLineInput{{DishID: 10, Quantity: 2}, {DishID: 11, Quantity: 1}},
			want:  "8",
		},
		{
			name:   "promotion covers one dish",
			lines:  []dto.OrderLineInput{{DishID: 10, Quantity: 2}, {DishID: 11, Quantity: 1}},
			promos: []*entity.Promotion{window([]int64{10}, 20)},
			want:   "7",
		},
		{
			name:   "stacked promotions",
			lines:  []dto.OrderLineInput{{DishID: 10, Quantity: 4}},
			promos: []*entity.Promotion{window([]int64{10}, 30), window([]int64{10}, 20)},
			want:   "5",
		},
		{
			name:   "total floors at zero",
			lines:  []dto.OrderLineInput{{DishID: 10, Quantity: 1}},
			promos: []*entity.Promotion{window([]int64{10}, 60), window([]int64{10}, 60)},
			want:   "0",
		},
		{
			name: "empty order",
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.promos.active = tt.promos
			ctx := context.Background()

			created, err := h.svc.Create(ctx, dto.OrderCreate{TableID: 1, Items: tt.lines})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			total, err := h.svc.CalculateTotal(ctx, created.ID)
			if err != nil {
				t.Fatalf("total: %v", err)
			}
			if !total.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected total %s, got %s", tt.want, total)
			}
		})
	}
}

func TestListByPeriod(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderCreate{TableID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h.store.orders[created.ID].CreatedAt = time.Date(2026, 8, 15, 21, 30, 0, 0, time.UTC)

	day := func(s string) dto.Date {
		d, err := dto.ParseDate(s)
		if err != nil {
			t.Fatalf("parse date: %v", err)
		}
		return d
	}

	// The end date is inclusive through its last instant.
	orders, err := h.svc.ListByPeriod(ctx, day("2026-08-01"), day("2026-08-15"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	_, err = h.svc.ListByPeriod(ctx, day("2026-08-16"), day("2026-08-20"))
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = h.svc.ListByPeriod(ctx, day("2026-08-20"), day("2026-08-01"))
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
