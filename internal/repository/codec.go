package repository

import (
	"encoding/json"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Attachment lists and tag sets are stored as JSON text blobs so both
// backends share one lossless encoding.

func encodeAttachments(attachments []domain.Attachment) string {
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeAttachments(raw string) []domain.Attachment {
	attachments := []domain.Attachment{}
	if raw == "" {
		return attachments
	}
	if err := json.Unmarshal([]byte(raw), &attachments); err != nil {
		return []domain.Attachment{}
	}
	return attachments
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeTags(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}
