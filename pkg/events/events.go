// Package events defines the editor lifecycle notifications published on
// the event bus and consumed by live canvas overlays.
package events

import (
	"time"
)

type EventType string

const Topic = "flowplane.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Editing lifecycle.
	WorkflowHydratedEvent EventType = "workflow.hydrated"
	WorkflowSavedEvent    EventType = "workflow.saved"
	WorkflowDirtyEvent    EventType = "workflow.dirty"

	// Execution lifecycle.
	WorkflowExecutionStartedEvent  EventType = "workflow.execution.started"
	WorkflowExecutionFinishedEvent EventType = "workflow.execution.finished"
	WorkflowExecutionFailedEvent   EventType = "workflow.execution.failed"
	NodeStateChangedEvent          EventType = "node.state.changed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowHydrated struct {
	BaseEvent

	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (e WorkflowHydrated) GetType() EventType {
	return WorkflowHydratedEvent
}

type WorkflowSaved struct {
	BaseEvent

	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
}

func (e WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

type WorkflowDirty struct {
	BaseEvent

	Dirty bool `json:"dirty"`
}

func (e WorkflowDirty) GetType() EventType {
	return WorkflowDirtyEvent
}

type WorkflowExecutionStarted struct {
	BaseEvent

	NodeCount int `json:"node_count"`
}

func (e WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type WorkflowExecutionFinished struct {
	BaseEvent

	ExecutedNodes []string      `json:"executed_nodes"`
	FailedNodes   []string      `json:"failed_nodes,omitempty"`
	Duration      time.Duration `json:"duration"`
}

func (e WorkflowExecutionFinished) GetType() EventType {
	return WorkflowExecutionFinishedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

type NodeStateChanged struct {
	BaseEvent

	NodeID string `json:"node_id"`
	State  string `json:"state"`
}

func (e NodeStateChanged) GetType() EventType {
	return NodeStateChangedEvent
}
