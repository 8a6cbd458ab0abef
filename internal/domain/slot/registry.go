package slot

import "github.com/google/uuid"

// Static capacity table: three global top-ad positions (left/center/right),
// five favorite-user slots per profile, three global suggested-follow slots.
var capacities = map[ProductKind]int{
	ProductTopAd:           3,
	ProductFavoriteUser:    5,
	ProductSuggestedFollow: 3,
}

func Capacity(product ProductKind) int {
	return capacities[product]
}

func IsValidIndex(product ProductKind, index int) bool {
	return index >= 0 && index < capacities[product]
}

// Validate checks a coordinate against the capacity table: the product must
// exist, the index must be within capacity, and the scope must match the
// product (profile-scoped products need an owner, global ones must not have
// one).
func Validate(c Coordinate) error {
	if !c.Product.IsValid() {
		return ErrInvalidSlot
	}
	if !IsValidIndex(c.Product, c.Index) {
		return ErrInvalidSlot
	}
	if c.Product.ProfileScoped() {
		if c.OwnerID == uuid.Nil {
			return ErrInvalidSlot
		}
	} else if c.OwnerID != uuid.Nil {
		return ErrInvalidSlot
	}
	return nil
}
