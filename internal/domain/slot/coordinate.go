package slot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidSlot = errors.New("invalid slot coordinate")

// Coordinate addresses one leasable slot. Slots are not persisted entities;
// a coordinate is valid iff the registry's capacity table says so.
// OwnerID is uuid.Nil for globally scoped products and the profile owner's
// id for profile-scoped ones.
type Coordinate struct {
	Product ProductKind
	OwnerID uuid.UUID
	Index   int
}

func NewCoordinate(product ProductKind, ownerID uuid.UUID, index int) (Coordinate, error) {
	c := Coordinate{Product: product, OwnerID: ownerID, Index: index}
	if err := Validate(c); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func (c Coordinate) String() string {
	if c.Product.ProfileScoped() {
		return fmt.Sprintf("%s/%s/%d", c.Product, c.OwnerID, c.Index)
	}
	return fmt.Sprintf("%s/global/%d", c.Product, c.Index)
}
