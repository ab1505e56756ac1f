package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prashantkr001/catalog-go/internal/api"
	"github.com/prashantkr001/catalog-go/internal/item"
)

type storeMocker struct {
	data map[string]item.Item
}

func (sMo *storeMocker) InsertItem(_ context.Context, it item.Item) error {
	sMo.data[it.ID] = it
	return nil
}

func (sMo *storeMocker) Item(_ context.Context, id string) (*item.Item, error) {
	it, ok := sMo.data[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	return &it, nil
}

func (sMo *storeMocker) ListItems(_ context.Context, limit int) ([]item.Item, error) {
	list := make([]item.Item, 0, len(sMo.data))
	for id := range sMo.data {
		list = append(list, sMo.data[id])
		limit--
		if limit == 0 {
			break
		}
	}
	return list, nil
}

type pubMocker struct {
	locker    sync.Mutex
	published []item.ItemView
}

func (pMo *pubMocker) Publish(_ context.Context, it *item.Item) error {
	pMo.locker.Lock()
	defer pMo.locker.Unlock()
	pMo.published = append(pMo.published, it.View())
	return nil
}

func newTestRouter(t *testing.T) (chi.Router, *storeMocker) {
	t.Helper()

	smo := &storeMocker{data: map[string]item.Item{}}
	svc, err := item.NewService(smo, &pubMocker{})
	require.NoError(t, err)

	ht := &HTTP{
		locker: &sync.Mutex{},
		apis:   api.NewService(svc),
	}
	router := chi.NewRouter()
	ht.itemRoutes(router)

	return router, smo
}

func TestGetItemHandler(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	router, smo := newTestRouter(t)

	t.Run("unknown identifier responds 404", func(_ *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/no-such-id", nil))
		asserter.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("stored item is projected field for field", func(_ *testing.T) {
		stored := item.Item{
			ID:        "id-widget",
			Name:      "Widget",
			Price:     42,
			CreatedAt: time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC),
		}
		smo.data[stored.ID] = stored

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/id-widget", nil))
		requirer.Equal(http.StatusOK, w.Code)

		view := item.ItemView{}
		requirer.NoError(json.Unmarshal(w.Body.Bytes(), &view))
		asserter.Equal(stored.View(), view)
	})
}

func TestListItemsHandler(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	router, smo := newTestRouter(t)

	t.Run("empty catalog responds 200 with an empty collection", func(_ *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		requirer.Equal(http.StatusOK, w.Code)
		asserter.JSONEq(`[]`, w.Body.String())
	})

	t.Run("all stored items are listed, order independent", func(_ *testing.T) {
		stored := []item.Item{
			{ID: "id-a", Name: "Alpha", Price: 1.5},
			{ID: "id-b", Name: "Beta", Price: 2.5},
			{ID: "id-c", Name: "Gamma", Price: 3.5},
		}
		for i := range stored {
			smo.data[stored[i].ID] = stored[i]
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		requirer.Equal(http.StatusOK, w.Code)

		views := []item.ItemView{}
		requirer.NoError(json.Unmarshal(w.Body.Bytes(), &views))
		asserter.ElementsMatch(item.Views(stored), views)
	})

	t.Run("non numeric limit responds 4xx", func(_ *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items?limit=abc", nil))
		asserter.Equal(http.StatusBadRequest, w.Code)
	})
}

func TestCreateItemHandler(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	router, smo := newTestRouter(t)

	body := strings.NewReader(`{"name":"Widget","price":42}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/items", body))
	requirer.Equal(http.StatusCreated, w.Code)

	created := item.ItemView{}
	requirer.NoError(json.Unmarshal(w.Body.Bytes(), &created))

	asserter.Equal("Widget", created.Name)
	asserter.InDelta(42, created.Price, 0)
	asserter.NotEmpty(created.ID)
	asserter.WithinDuration(time.Now(), created.CreatedAt, time.Second)
	asserter.Equal("/items/"+created.ID, w.Header().Get("Location"))

	storedItem, ok := smo.data[created.ID]
	requirer.True(ok)
	asserter.Equal(created, storedItem.View())
}
