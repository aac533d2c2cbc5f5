package domain

type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Display is the picker label, e.g. "7 - Ana".
func (e Employee) Display() string { return e.ID + " - " + e.Name }
