package models

import "time"

// Comment is a chat-style message scoped under a patient. AttachmentKey, if
// set, points at an uploaded object in binary storage. Comments are
// append-only and listed by CreatedAt descending.
type Comment struct {
	ID            string
	PatientID     string
	SenderRole    Role
	Text          string
	AttachmentKey string
	CreatedAt     time.Time
}
