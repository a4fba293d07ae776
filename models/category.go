package models

// Category is the distance class of a race.
type Category string

const (
	CategoryMarathon     Category = "Marathon"
	CategoryUltra        Category = "Ultra"
	CategoryFiveK        Category = "FiveK"
	CategoryTenK         Category = "TenK"
	CategoryHalfMarathon Category = "HalfMarathon"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFiveK,
	CategoryTenK,
	CategoryHalfMarathon,
	CategoryMarathon,
	CategoryUltra,
}

// Label is the human-readable name shown in views.
func (c Category) Label() string {
	switch c {
	case CategoryFiveK:
		return "5K"
	case CategoryTenK:
		return "10K"
	case CategoryHalfMarathon:
		return "Half Marathon"
	default:
		return string(c)
	}
}
