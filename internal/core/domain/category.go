package domain

import "strings"

// Category is a travel category assigned to a diary.
type Category string

const (
	CategoryFamily     Category = "가족여행"
	CategoryCouple     Category = "커플여행"
	CategoryFriendship Category = "우정여행"
	CategoryFoodTour   Category = "맛집탐방여행"
	CategoryGroup      Category = "단체여행"

	// FallbackCategory is used whenever classification cannot produce a label.
	FallbackCategory = CategoryFriendship
	// FallbackLabel is the classifier label that maps to FallbackCategory.
	FallbackLabel = "friend"
)

var labelCategories = map[string]Category{
	"family": CategoryFamily,
	"couple": CategoryCouple,
	"friend": CategoryFriendship,
	"food":   CategoryFoodTour,
	"group":  CategoryGroup,
}

// AllCategories lists the recognized categories in catalog order.
func AllCategories() []Category {
	return []Category{CategoryFamily, CategoryCouple, CategoryFriendship, CategoryFoodTour, CategoryGroup}
}

// CategoryFromLabel maps a classifier label code to a category. Unknown labels
// map to FallbackCategory.
func CategoryFromLabel(label string) Category {
	if c, ok := labelCategories[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return FallbackCategory
}

// IsKnownLabel reports whether label is one of the five classifier codes.
func IsKnownLabel(label string) bool {
	_, ok := labelCategories[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

func (c Category) IsRecognized() bool {
	switch c {
	case CategoryFamily, CategoryCouple, CategoryFriendship, CategoryFoodTour, CategoryGroup:
		return true
	default:
		return false
	}
}

// FirstRecognized returns the first recognized category in values.
func FirstRecognized(values []string) (Category, bool) {
	for _, v := range values {
		if c := Category(v); c.IsRecognized() {
			return c, true
		}
	}
	return "", false
}
