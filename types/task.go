package types

import "time"

// Task represents a single to-do item belonging to exactly one user.
//
// Ownership is fixed at creation and never reassigned: the owner id is
// always derived from the verified bearer token of the creating request,
// never from the request body.
type Task struct {
	// ID is the unique identifier of the task.
	ID int `json:"id" db:"id"`

	// OwnerID is the id of the user the task belongs to. Every read and
	// write of the task is filtered by this value.
	OwnerID int `json:"ownerId" db:"owner_id"`

	// Title is the short human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description contains the free-form body of the task.
	Description string `json:"description" db:"description"`

	// Status is an opaque caller-supplied value ("pending", "done", ...).
	// The server applies no transition rules beyond defaulting new tasks
	// to "pending".
	Status string `json:"status" db:"status"`

	// DueDate is the optional date the task is due.
	DueDate *time.Time `json:"dueDate" db:"due_date"`

	// CreatedAt is the timestamp at which the task was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the task.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultTaskStatus is assigned to tasks created without an explicit status.
const DefaultTaskStatus = "pending"
