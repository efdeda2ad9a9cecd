package usecase

import "github.com/google/uuid"

// ItemIdentity mints store-wide unique identifiers for items and owner tokens.
type ItemIdentity struct {
	newID func() string
}

func NewItemIdentity() *ItemIdentity {
	return &ItemIdentity{newID: uuid.NewString}
}

func (i *ItemIdentity) NewItemID() string {
	return i.newID()
}

func (i *ItemIdentity) NewOwnerToken() string {
	return i.newID()
}

// Valid reports whether id has the shape of an identifier minted here.
func (i *ItemIdentity) Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
