// Package item is responsible for implementing all features required for handling catalog items
package item

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/naughtygopher/errors"

	"github.com/prashantkr001/catalog-go/internal/pkg/logger"
)

var ErrNotFound = errors.NotFound("Item not found")

// Item is the persisted catalog entity. ID and CreatedAt are assigned by the
// service at creation and never change afterwards.
type Item struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// CreateItemRequest is the caller-supplied input projection. Name and price are
// accepted as-is, there is no validation in the current contract.
type CreateItemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ItemView is the output projection of Item. It carries the same fields, and
// exists only to keep the wire contract decoupled from the storage shape.
type ItemView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

func (it *Item) View() ItemView {
	return ItemView{
		ID:        it.ID,
		Name:      it.Name,
		Price:     it.Price,
		CreatedAt: it.CreatedAt,
	}
}

func Views(list []Item) []ItemView {
	views := make([]ItemView, 0, len(list))
	for i := range list {
		views = append(views, list[i].View())
	}
	return views
}

// Service struct holds all the dependencies required, as interfaces. e.g. persistent store interface,
// publisher interface etc.
// And all its usecases as methods(with pointer receiver) of this struct.
type Service struct {
	persistentStore persistentStore
	publisher       publisher

	// newID and now are fields so tests can pin identifiers and the clock
	newID func() string
	now   func() time.Time
}

// NewService accepts any external dependencies required for the item service.
// e.g. DB driver.
func NewService(storage persistentStore, pub publisher) (*Service, error) {
	return &Service{
		persistentStore: storage,
		publisher:       pub,
		newID:           uuid.NewString,
		now:             time.Now,
	}, nil
}

// Item returns the stored item for the given ID, ErrNotFound if there's none.
func (svc *Service) Item(ctx context.Context, id string) (*Item, error) {
	it, err := svc.persistentStore.Item(ctx, id)
	if err != nil {
		return nil, err
	}

	return it, nil
}

// List returns stored items in repository order. limit <= 0 returns everything.
// An empty catalog is a valid, non-error result.
func (svc *Service) List(ctx context.Context, limit int) ([]Item, error) {
	list, err := svc.persistentStore.ListItems(ctx, limit)
	if err != nil {
		return nil, err
	}

	return list, nil
}

// Create builds a new item with a fresh identifier and the current time,
// persists it and returns it. Any name/price is accepted.
func (svc *Service) Create(ctx context.Context, req CreateItemRequest) (*Item, error) {
	newItem := Item{
		ID:        svc.newID(),
		Name:      req.Name,
		Price:     req.Price,
		CreatedAt: svc.now().UTC(),
	}

	err := svc.persistentStore.InsertItem(ctx, newItem)
	if err != nil {
		return nil, err
	}

	// publish the newly created item, for all dependencies to consume
	go func() {
		// since this is asynchronous, maybe implement some retry logic if required
		const publishTimeout = time.Second * 3
		gctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		perr := svc.publisher.Publish(gctx, &newItem)
		if perr != nil {
			logger.ErrWithStacktrace(perr)
			return
		}
		logger.Info(fmt.Sprintf("published to kafka: %v", newItem.ID))
	}()

	return &newItem, nil
}
