package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/naughtygopher/errors"

	"github.com/prashantkr001/catalog-go/internal/item"
)

func (ht *HTTP) itemRoutes(router chi.Router) {
	router.Post("/items", ht.ErrorHandler(ht.CreateItem))
	router.Get("/items", ht.ErrorHandler(ht.ListItems))
	router.Get("/items/{itemID}", ht.ErrorHandler(ht.GetItem))
}

func (ht *HTTP) GetItem(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "itemID")

	it, err := ht.apis.ItemGet(req.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, it.View())
}

func (ht *HTTP) ListItems(w http.ResponseWriter, req *http.Request) error {
	limit := 0
	if str := req.URL.Query().Get("limit"); str != "" {
		parsed, err := strconv.ParseInt(str, 10, 32)
		if err != nil {
			return errors.InputBodyf("invalid limit provided: %s", str)
		}
		limit = int(parsed)
	}

	list, err := ht.apis.ItemList(req.Context(), limit)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, item.Views(list))
}

func (ht *HTTP) CreateItem(w http.ResponseWriter, req *http.Request) error {
	payload := item.CreateItemRequest{}
	err := json.NewDecoder(req.Body).Decode(&payload)
	if err != nil {
		return errors.Wrap(err, "failed to decode request body")
	}

	createdItem, err := ht.apis.ItemCreate(req.Context(), payload)
	if err != nil {
		return err
	}

	w.Header().Set("Location", fmt.Sprintf("/items/%s", createdItem.ID))
	return writeJSON(w, http.StatusCreated, createdItem.View())
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	jResp, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal response")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(jResp)
	if err != nil {
		return errors.Wrap(err, "failed to write response")
	}

	return nil
}
