package entity

// User is a credential record. Password holds a bcrypt hash.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
