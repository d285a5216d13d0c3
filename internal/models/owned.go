package models

// Owned is implemented by resources that carry an owning user.
type Owned interface {
	OwnerID() string
}
