package models

// Subject represents an academic subject.
type Subject struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Abbreviation string `db:"code" json:"abbreviation"`
}

// TeacherSubject is a row of the ordered teacher to subject relation.
type TeacherSubject struct {
	TeacherID string `db:"teacher_id"`
	Subject
}
