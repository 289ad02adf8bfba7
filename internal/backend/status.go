package backend

// Status is the non-fatal outcome of Create.
type Status int

const (
	// StatusCreated means Create made a new database.
	StatusCreated Status = iota
	// StatusAlreadyExists means the database was present and left untouched.
	StatusAlreadyExists
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusAlreadyExists:
		return "already exists"
	default:
		return "unknown"
	}
}
