package model

import (
	"sort"
	"time"
)

// LoopState is the reconciliation state of one display.
type LoopState string

const (
	StateIdle        LoopState = "idle"
	StatePending     LoopState = "pending"
	StateReconciling LoopState = "reconciling"
)

// Outcome describes how a reconciliation cycle ended.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeThrottled Outcome = "throttled"
	OutcomeSeeded    Outcome = "seeded"
	OutcomeAborted   Outcome = "aborted"
	OutcomeCancelled Outcome = "cancelled"
)

// CycleSummary is the published record of one reconciliation cycle.
type CycleSummary struct {
	ID           string        `yaml:"id"                      json:"id"`
	Outcome      Outcome       `yaml:"outcome"                 json:"outcome"`
	Forced       bool          `yaml:"forced,omitempty"        json:"forced,omitempty"`
	Moves        int           `yaml:"moves"                   json:"moves"`
	MoveFailures int           `yaml:"move_failures,omitempty" json:"move_failures,omitempty"`
	NoOps        int           `yaml:"noops,omitempty"         json:"noops,omitempty"`
	Launches     int           `yaml:"launches,omitempty"      json:"launches,omitempty"`
	Started      time.Time     `yaml:"started"                 json:"started"`
	Duration     time.Duration `yaml:"duration"                json:"duration"`
	Error        string        `yaml:"error,omitempty"         json:"error,omitempty"`
}

// Snapshot is the read-only view of one display published after every
// state change. Consumers must not mutate it.
type Snapshot struct {
	DisplayID     int             `yaml:"display"              json:"display"`
	Workspace     int             `yaml:"workspace"            json:"workspace"`
	WorkspaceName string          `yaml:"workspace_name"       json:"workspace_name"`
	State         LoopState       `yaml:"state"                json:"state"`
	Status        string          `yaml:"status"               json:"status"`
	Screen        Rect            `yaml:"screen"               json:"screen"`
	Windows       []Window        `yaml:"windows"              json:"windows"`
	Targets       map[string]Rect `yaml:"targets,omitempty"    json:"targets,omitempty"`
	LastCycle     *CycleSummary   `yaml:"last_cycle,omitempty" json:"last_cycle,omitempty"`
	Cycles        int             `yaml:"cycles"               json:"cycles"`
	Notifications int             `yaml:"notifications"        json:"notifications"`
	TS            int64           `yaml:"ts"                   json:"ts"`
}

// SortSnapshots orders snapshots by display id.
func SortSnapshots(snaps []Snapshot) {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].DisplayID < snaps[j].DisplayID })
}
