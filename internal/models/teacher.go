package models

// Teacher is a staff member who can be assigned to class subjects. The id is
// shared with the teacher's user account.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}
