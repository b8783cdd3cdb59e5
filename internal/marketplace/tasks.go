package marketplace

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TypeSync is the asynq task type for a full marketplace sync run.
const TypeSync = "marketplace:sync"

type syncTaskPayload struct {
	Marketplace string `json:"marketplace"`
}

// NewSyncTask builds the asynq task that triggers a full sync.
func NewSyncTask(marketplace string) (*asynq.Task, error) {
	payload, err := json.Marshal(syncTaskPayload{Marketplace: marketplace})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSync, payload, asynq.MaxRetry(3)), nil
}

// NewSyncHandler adapts the syncer to an asynq task handler.
func NewSyncHandler(s *Syncer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload syncTaskPayload
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return err
			}
		}
		_, err := s.SyncAll(ctx)
		return err
	}
}
