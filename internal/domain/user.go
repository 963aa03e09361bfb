package domain

type User struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// AuthStatus is the /status session check.
type AuthStatus struct {
	Authenticated bool `json:"authenticated"`
	UserID        ID   `json:"user_id"`
}
