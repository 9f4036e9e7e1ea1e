package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskVerifyLead = "vob.verify"

const TaskRescoreClaims = "claims.rescore"

const TaskStuckClaimSweep = "claims.stuck_sweep"

type VerifyLeadPayload struct {
	LeadID  string `json:"leadId"`
	PayerID string `json:"payerId"`
}

func NewVerifyLeadTask(payload VerifyLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVerifyLead, data), nil
}

func ParseVerifyLeadPayload(task *asynq.Task) (VerifyLeadPayload, error) {
	var payload VerifyLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VerifyLeadPayload{}, err
	}
	return payload, nil
}

func NewRescoreClaimsTask() *asynq.Task {
	return asynq.NewTask(TaskRescoreClaims, nil)
}

func NewStuckClaimSweepTask() *asynq.Task {
	return asynq.NewTask(TaskStuckClaimSweep, nil)
}
