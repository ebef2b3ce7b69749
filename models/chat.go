package models

// ChatRequest is one inbound user turn.
type ChatRequest struct {
	ChatID  string `json:"chatId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the assistant's reply for a turn.
type ChatResponse struct {
	ChatID   string   `json:"chatId"`
	Reply    string   `json:"reply"`
	Warnings []string `json:"warnings,omitempty"`
}
