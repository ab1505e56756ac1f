package item

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/naughtygopher/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pubMocker struct {
	pipe chan<- []byte
}

func (pMo *pubMocker) Publish(_ context.Context, item *Item) error {
	jbytes, err := json.Marshal(item.View())
	if err != nil {
		return errors.Wrap(err, "json marshal failed")
	}
	pMo.pipe <- jbytes
	return nil
}

func newPubMocker(pipe chan<- []byte) *pubMocker {
	return &pubMocker{
		// buffered channel
		pipe: pipe,
	}
}

type storeMocker struct {
	data map[string]Item
}

func (sMo *storeMocker) InsertItem(_ context.Context, item Item) error {
	sMo.data[item.ID] = item
	return nil
}

func (sMo *storeMocker) Item(_ context.Context, id string) (*Item, error) {
	item, ok := sMo.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (sMo *storeMocker) ListItems(_ context.Context, limit int) ([]Item, error) {
	list := make([]Item, 0, len(sMo.data))
	for id := range sMo.data {
		list = append(list, sMo.data[id])
		limit--
		if limit == 0 {
			break
		}
	}
	return list, nil
}

func newStoreMocker() *storeMocker {
	return &storeMocker{
		data: make(map[string]Item),
	}
}

func newTestService(t *testing.T) (*Service, *storeMocker, chan []byte) {
	t.Helper()
	pipe := make(chan []byte, 128)
	smo := newStoreMocker()
	svc, err := NewService(smo, newPubMocker(pipe))
	require.NoError(t, err)
	return svc, smo, pipe
}

// TestCreateItem ensures the creation contract is in place
/*
It tests the following scenarios
1. Name and price are echoed back as received.
2. Identifier is assigned, non-empty, and unique across calls.
3. Created timestamp comes from the clock, set exactly once.
4. Is it persisting.
5. Is it pushing to publisher.
*/
func TestCreateItem(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	svc, smo, pipe := newTestService(t)
	ctx := t.Context()

	req := CreateItemRequest{
		Name:  "Widget",
		Price: 42,
	}
	createdItem, err := svc.Create(ctx, req)
	requirer.NoError(err)

	t.Run("request fields are echoed, identifier and timestamp assigned", func(_ *testing.T) {
		asserter.Equal(req.Name, createdItem.Name)
		asserter.Equal(req.Price, createdItem.Price)
		asserter.NotEmpty(createdItem.ID)
		asserter.WithinDuration(time.Now(), createdItem.CreatedAt, time.Second)
	})

	t.Run("check if item was persisted in the storage", func(_ *testing.T) {
		storedItem, ok := smo.data[createdItem.ID]
		requirer.True(ok)
		asserter.Equal(*createdItem, storedItem)
	})

	t.Run("check if item was pushed to the publisher", func(_ *testing.T) {
		pBytes := <-pipe
		pubItem := ItemView{}
		err = json.Unmarshal(pBytes, &pubItem)
		requirer.NoError(err)
		asserter.Equal(createdItem.View(), pubItem)
	})

	t.Run("identical requests produce distinct identifiers", func(_ *testing.T) {
		anotherItem, cerr := svc.Create(ctx, req)
		requirer.NoError(cerr)
		asserter.NotEmpty(anotherItem.ID)
		asserter.NotEqual(createdItem.ID, anotherItem.ID)
		<-pipe
	})
}

func TestCreateItemPinnedClock(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	svc, _, pipe := newTestService(t)
	defer func() { <-pipe }()

	frozen := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	svc.now = func() time.Time { return frozen }
	svc.newID = func() string { return "fixed-id" }

	createdItem, err := svc.Create(t.Context(), CreateItemRequest{Name: "Bottle", Price: 9.99})
	requirer.NoError(err)
	asserter.Equal(frozen, createdItem.CreatedAt)
	asserter.Equal("fixed-id", createdItem.ID)
}

func TestItem(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	svc, smo, _ := newTestService(t)
	ctx := t.Context()

	t.Run("unknown identifier returns not found", func(_ *testing.T) {
		got, err := svc.Item(ctx, "d8f3a2bc-0000-0000-0000-000000000000")
		requirer.ErrorIs(err, ErrNotFound)
		asserter.Nil(got)
	})

	t.Run("stored item is returned field for field", func(_ *testing.T) {
		stored := Item{
			ID:        "id-widget",
			Name:      "Widget",
			Price:     42,
			CreatedAt: time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC),
		}
		smo.data[stored.ID] = stored

		got, err := svc.Item(ctx, stored.ID)
		requirer.NoError(err)
		asserter.Equal(stored, *got)
	})
}

func TestList(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	svc, smo, _ := newTestService(t)
	ctx := t.Context()

	t.Run("empty catalog is a valid result", func(_ *testing.T) {
		list, err := svc.List(ctx, 0)
		requirer.NoError(err)
		asserter.Empty(list)
	})

	t.Run("all stored items are returned, order independent", func(_ *testing.T) {
		stored := []Item{
			{ID: "id-a", Name: "Alpha", Price: 1.5},
			{ID: "id-b", Name: "Beta", Price: 2.5},
			{ID: "id-c", Name: "Gamma", Price: 3.5},
		}
		for i := range stored {
			smo.data[stored[i].ID] = stored[i]
		}

		list, err := svc.List(ctx, 0)
		requirer.NoError(err)
		asserter.ElementsMatch(stored, list)
	})

	t.Run("limit caps the result", func(_ *testing.T) {
		list, err := svc.List(ctx, 2)
		requirer.NoError(err)
		asserter.Len(list, 2)
	})
}
