package slot

type ProductKind string

const (
	ProductTopAd           ProductKind = "top_ad"
	ProductFavoriteUser    ProductKind = "favorite_user"
	ProductSuggestedFollow ProductKind = "suggested_follow"
)

func (p ProductKind) String() string {
	return string(p)
}

func (p ProductKind) IsValid() bool {
	switch p {
	case ProductTopAd, ProductFavoriteUser, ProductSuggestedFollow:
		return true
	default:
		return false
	}
}

// ProfileScoped reports whether slots of this product belong to a specific
// profile owner rather than the platform as a whole.
func (p ProductKind) ProfileScoped() bool {
	return p == ProductFavoriteUser
}

func NewProductKind(s string) (ProductKind, bool) {
	p := ProductKind(s)
	return p, p.IsValid()
}
