package entity

// UserSummary is the public projection of a user returned by lookups.
type UserSummary struct {
	ID    uint   `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Login: u.Login, Name: u.Name}
}
