package shopping

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/store"
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// ItemPatch is a partial update of a shopping item; nil fields are kept.
type ItemPatch struct {
	Name     *string `json:"name"`
	Quantity *string `json:"quantity"`
	Checked  *bool   `json:"checked"`
}

// GenerateResult is returned by the bulk paths that add several items at once.
type GenerateResult struct {
	AddedCount int                  `json:"addedCount"`
	Items      []model.ShoppingItem `json:"items"`
}

func (s *Service) List(ctx context.Context, householdID int64) ([]model.ShoppingItem, error) {
	items, err := store.NewShoppingStore(s.db).List(ctx, householdID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list items")
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, householdID int64, name, quantity string) (*model.ShoppingItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}
	item := store.NewShoppingItem{Name: name}
	if q := strings.TrimSpace(quantity); q != "" {
		item.Quantity = &q
	}

	created, err := store.NewShoppingStore(s.db).Create(ctx, householdID, item)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create item")
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, householdID, itemID int64, patch ItemPatch) (*model.ShoppingItem, error) {
	u := store.ShoppingItemUpdate{Checked: patch.Checked}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.New(apperr.Validation, "name cannot be empty")
		}
		u.Name = &name
	}
	if patch.Quantity != nil {
		q := strings.TrimSpace(*patch.Quantity)
		u.Quantity = &q
	}

	items := store.NewShoppingStore(s.db)
	existing, err := items.Get(ctx, householdID, itemID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to get item")
	}
	if existing == nil {
		return nil, apperr.New(apperr.NotFound, "item not found")
	}

	updated, err := items.Update(ctx, householdID, itemID, u)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to update item")
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, householdID, itemID int64) error {
	items := store.NewShoppingStore(s.db)
	existing, err := items.Get(ctx, householdID, itemID)
	if err != nil {
		return apperr.Wrap(err, "failed to get item")
	}
	if existing == nil {
		return apperr.New(apperr.NotFound, "item not found")
	}
	if err := items.Delete(ctx, householdID, itemID); err != nil {
		return apperr.Wrap(err, "failed to delete item")
	}
	return nil
}

// ClearChecked removes every checked item and returns how many went.
func (s *Service) ClearChecked(ctx context.Context, householdID int64) (int64, error) {
	n, err := store.NewShoppingStore(s.db).ClearChecked(ctx, householdID)
	if err != nil {
		return 0, apperr.Wrap(err, "failed to clear items")
	}
	return n, nil
}

// Generate adds the ingredients of every dish planned between start and end
// (inclusive) that are not already on the list. Either bound may be an ISO
// date or date-time; only its calendar date is used. Entries are added
// as written in the dish; no amount stripping happens on this path.
func (s *Service) Generate(ctx context.Context, householdID int64, start, end string) (*GenerateResult, error) {
	if start == "" || end == "" {
		return nil, apperr.New(apperr.Validation, "startDate and endDate are required")
	}
	start, okStart := model.ParseDate(start)
	end, okEnd := model.ParseDate(end)
	if !okStart || !okEnd {
		return nil, apperr.New(apperr.Validation, "invalid date format, use YYYY-MM-DD")
	}

	var added int
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		days, err := store.NewMenuStore(tx).ListRange(ctx, householdID, start, end)
		if err != nil {
			return err
		}
		items := store.NewShoppingStore(tx)
		existing, err := items.ListNames(ctx, householdID)
		if err != nil {
			return err
		}

		var batch []store.NewShoppingItem
		for _, name := range Dedup(Aggregate(days), existing) {
			if name == "" {
				continue
			}
			batch = append(batch, store.NewShoppingItem{Name: name})
		}
		added, err = items.CreateMany(ctx, householdID, batch)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to generate shopping list")
	}

	list, err := s.List(ctx, householdID)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{AddedCount: added, Items: list}, nil
}

// AddFromDish adds the selected ingredients of one dish to the list, each
// normalized with Normalize. A nil selection adds every ingredient. Nothing
// is deduplicated on this path.
func (s *Service) AddFromDish(ctx context.Context, householdID, dishID int64, selected []string) (*GenerateResult, error) {
	dish, err := store.NewDishStore(s.db).Get(ctx, householdID, dishID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to get dish")
	}
	if dish == nil {
		return nil, apperr.New(apperr.NotFound, "dish not found")
	}

	ingredients := dish.Ingredients
	if selected != nil {
		known := make(map[string]bool, len(dish.Ingredients))
		for _, ing := range dish.Ingredients {
			known[strings.TrimSpace(ing)] = true
		}
		for _, ing := range selected {
			if !known[strings.TrimSpace(ing)] {
				return nil, apperr.Newf(apperr.Validation, "%q is not an ingredient of %s", ing, dish.Name)
			}
		}
		ingredients = selected
	}

	var batch []store.NewShoppingItem
	for _, ing := range ingredients {
		if name := Normalize(ing); name != "" {
			batch = append(batch, store.NewShoppingItem{Name: name})
		}
	}

	var added int
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		added, err = store.NewShoppingStore(tx).CreateMany(ctx, householdID, batch)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to add ingredients")
	}

	list, err := s.List(ctx, householdID)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{AddedCount: added, Items: list}, nil
}
