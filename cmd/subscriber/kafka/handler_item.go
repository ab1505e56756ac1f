package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prashantkr001/catalog-go/internal/item"
	"github.com/prashantkr001/catalog-go/internal/pkg/logger"
)

func (kfk *Kafka) ItemCreate(ctx context.Context, payload []byte) error {
	createReq := new(item.CreateItemRequest)
	err := json.Unmarshal(payload, createReq)
	if err != nil {
		// log the error and move on, if `nack`-ed, app will receive the same message, and the error.
		// Ending up in an infinite loop or Kafka backing off from delivering messages to the consumer
		// group
		logger.ErrWithStacktrace(fmt.Errorf("%q %w", string(payload), err))
		return nil
	}

	createdItem, err := kfk.apiSvc.ItemCreate(ctx, *createReq)
	if err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("created item %s from kafka request", createdItem.ID))
	return nil
}
