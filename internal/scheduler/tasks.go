package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDuplicateScan = "leads.duplicate_scan"

const TaskLeadRescore = "leads.rescore"

type DuplicateScanPayload struct {
	TriggeredBy string `json:"triggeredBy,omitempty"`
}

// LeadRescorePayload rescores one lead, or every lead when LeadID is empty.
type LeadRescorePayload struct {
	LeadID      string `json:"leadId,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

func NewDuplicateScanTask(payload DuplicateScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDuplicateScan, data), nil
}

func ParseDuplicateScanPayload(task *asynq.Task) (DuplicateScanPayload, error) {
	var payload DuplicateScanPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DuplicateScanPayload{}, err
	}
	return payload, nil
}

func NewLeadRescoreTask(payload LeadRescorePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadRescore, data), nil
}

func ParseLeadRescorePayload(task *asynq.Task) (LeadRescorePayload, error) {
	var payload LeadRescorePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadRescorePayload{}, err
	}
	return payload, nil
}
