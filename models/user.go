package models

// User is the slice of the account service this subsystem reads for
// invoice denormalization.
type User struct {
	UserID string `json:"userId" bson:"userId"`
	Name   string `json:"name" bson:"name"`
	Email  string `json:"email" bson:"email"`
}
