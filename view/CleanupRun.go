package view

import "time"

type CleanupRun struct {
	RunId        string     `json:"runId"`
	JobType      string     `json:"jobType"`
	InstanceId   string     `json:"instanceId"`
	Status       string     `json:"status"`
	Details      string     `json:"details,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	DeletedItems int        `json:"deletedItems"`
}
