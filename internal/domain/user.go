package domain

// User is a directory record as served by the remote user directory.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
}

// UserFields holds the editable subset of a User.
type UserFields struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Fields returns the editable part of the record.
func (u User) Fields() UserFields {
	return UserFields{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// UserPage is one page of the directory listing.
type UserPage struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	Users      []User
}
