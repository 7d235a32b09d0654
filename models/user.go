package models

// User holds the structure for the users collection in mongo. Only the token
// endpoint reads it, to check credentials and stamp roles into issued tokens.
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email     string      `json:"email" bson:"email"`
	Name      string      `json:"name" bson:"name"`
	Username  string      `json:"username" bson:"username"`
	Password  string      `json:"-" bson:"password"`
	Roles     []string    `json:"roles" bson:"roles"`
	CreatedAt interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt" bson:"updatedAt"`
}
