package models

// Group is a class or section that receives lessons. Groups are stored as classes.
type Group struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// EntityKind identifies which side of an assignment an entity sits on.
type EntityKind string

const (
	EntityTeacher EntityKind = "TEACHER"
	EntityGroup   EntityKind = "GROUP"
)

// Valid reports whether the kind is known.
func (k EntityKind) Valid() bool {
	return k == EntityTeacher || k == EntityGroup
}

// IsTeacher is a convenience for the cascade and conflict helpers.
func (k EntityKind) IsTeacher() bool {
	return k == EntityTeacher
}
