package domain

// Task is a unit of work owned by a single user.
type Task struct {
	ID          int64
	Title       string
	Description *string
	UserID      int64
}
