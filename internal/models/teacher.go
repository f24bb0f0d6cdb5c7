package models

// Teacher is an instructor as exposed by the entity registry, with the subjects they are
// qualified to teach in registry order.
type Teacher struct {
	ID       string    `db:"id" json:"id"`
	Name     string    `db:"full_name" json:"name"`
	Subjects []Subject `db:"-" json:"subjects"`
}

// Teaches reports whether the teacher is qualified for the subject.
func (t Teacher) Teaches(subjectID string) bool {
	for _, subject := range t.Subjects {
		if subject.ID == subjectID {
			return true
		}
	}
	return false
}
