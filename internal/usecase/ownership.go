package usecase

import (
	"strings"

	"github.com/totegamma/messboard/internal/domain"
)

// OwnershipGuard decides who may delete an item. The creator's display name,
// captured at append time, is the owner marker. Honor system: anyone can claim any
// name.
type OwnershipGuard struct{}

func NewOwnershipGuard() *OwnershipGuard {
	return &OwnershipGuard{}
}

// Owner returns the marker stored on a new item.
func (g *OwnershipGuard) Owner(createdBy string) string {
	name := strings.TrimSpace(createdBy)
	if name == "" {
		return domain.AnonymousCreator
	}
	return name
}

// Authorize compares trimmed names, case-sensitively. The item's owner token is
// not consulted.
func (g *OwnershipGuard) Authorize(item domain.MenuItem, claimedOwner string) error {
	if strings.TrimSpace(item.CreatedBy) != strings.TrimSpace(claimedOwner) {
		return domain.ForbiddenError{Reason: "you can only delete items you created"}
	}
	return nil
}
