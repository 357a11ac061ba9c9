package model

import "unicode/utf8"

// ConversationRecord is the metadata half of the baggage-claim persistence
// scheme. It points at the blob holding the full message sequence.
type ConversationRecord struct {
	UserID             string `json:"user_id"`
	ConversationID     string `json:"conversation_id"`
	LastUpdated        int64  `json:"last_updated"`
	MessageCount       int    `json:"message_count"`
	BlobKey            string `json:"blob_key"`
	LastMessagePreview string `json:"last_message_preview"`
}

// PreviewLimit is the maximum persisted preview length.
const PreviewLimit = 100

// Preview truncates s for the metadata record, appending an ellipsis marker
// when anything was cut. The cut lands on a rune boundary so the preview
// stays valid UTF-8.
func Preview(s string) string {
	if len(s) <= PreviewLimit {
		return s
	}
	cut := PreviewLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
