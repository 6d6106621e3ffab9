package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCapacityReset = "capacity.reset"

// Reset sources recorded in logs and CapacityReset events.
const (
	SourceCron    = "scheduler"
	SourceStartup = "startup"
)

type CapacityResetPayload struct {
	Source string `json:"source"`
}

func NewCapacityResetTask(payload CapacityResetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCapacityReset, data), nil
}

func ParseCapacityResetPayload(task *asynq.Task) (CapacityResetPayload, error) {
	var payload CapacityResetPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CapacityResetPayload{}, err
	}
	return payload, nil
}
