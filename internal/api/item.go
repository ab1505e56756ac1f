package api

import (
	"context"

	"github.com/prashantkr001/catalog-go/internal/item"
)

func (ap *API) ItemGet(ctx context.Context, id string) (*item.Item, error) {
	it, err := ap.itemService.Item(ctx, id)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (ap *API) ItemList(ctx context.Context, limit int) ([]item.Item, error) {
	list, err := ap.itemService.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (ap *API) ItemCreate(ctx context.Context, req item.CreateItemRequest) (*item.Item, error) {
	createdItem, err := ap.itemService.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return createdItem, nil
}
