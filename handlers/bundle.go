// Package handlers exposes the HTTP surface of the assistant.
package handlers

import (
	"planmate/database/repository/history"
	"planmate/services/agent"
)

// HandlerBundle groups the dependencies the HTTP handlers need.
type HandlerBundle struct {
	Engine  *agent.Engine
	History history.Repository // nil when the archive is disabled
}

// NewHandlerBundle wires the handlers.
func NewHandlerBundle(engine *agent.Engine, archive history.Repository) *HandlerBundle {
	return &HandlerBundle{Engine: engine, History: archive}
}
