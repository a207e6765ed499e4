// Package model defines data structures for the direct-messaging platform.
package model

// User is a principal known to the platform. Accounts are owned by the
// external identity service; rows here are synced references used for
// existence checks and participant display.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}
