package domain

// Guest is the identity attached to a browser session. There are no accounts:
// a guest picks a username once and carries it through rooms via its token.
type Guest struct {
	Id       string
	Username string
}
