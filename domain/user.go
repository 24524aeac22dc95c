// Package domain contains core concepts of the chat system.
// This file defines the user account shape consumed by the credential
// verifier and the ingest pipeline when resolving sender identities.
package domain

import "time"

type User struct {
	ID        string
	Username  string
	FullName  string
	Avatar    string
	CreatedAt time.Time
}
