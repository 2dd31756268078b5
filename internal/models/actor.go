package models

// Actor is the principal performing an operation. The zero value is an
// anonymous caller.
type Actor struct {
	UserID string
}

// Anonymous returns an unauthenticated actor
func Anonymous() Actor {
	return Actor{}
}

// Authenticated reports whether the actor carries an identity
func (a Actor) Authenticated() bool {
	return a.UserID != ""
}
