package domain

type LayoutStructure struct {
	Type         string `json:"type"`
	PhotoLayout  string `json:"photoLayout"`
	TextPosition string `json:"textPosition"`
}

type LayoutTemplate struct {
	Index        int             `json:"index"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Structure    LayoutStructure `json:"structure"`
	CategoryName string          `json:"categoryName,omitempty"`
}

var layoutCatalog = [5]LayoutTemplate{
	{
		Index:       0,
		ID:          "collage",
		Name:        "콜라주",
		Description: "여러 장의 사진을 한 페이지에 겹쳐 배치하는 레이아웃",
		Structure:   LayoutStructure{Type: "collage", PhotoLayout: "overlap", TextPosition: "bottom"},
	},
	{
		Index:       1,
		ID:          "photobook",
		Name:        "포토북",
		Description: "사진을 크게 보여주는 기본 포토북 레이아웃",
		Structure:   LayoutStructure{Type: "photobook", PhotoLayout: "full", TextPosition: "caption"},
	},
	{
		Index:       2,
		ID:          "magazine",
		Name:        "매거진",
		Description: "큰 사진과 칼럼형 본문을 조합한 잡지 스타일 레이아웃",
		Structure:   LayoutStructure{Type: "magazine", PhotoLayout: "hero-grid", TextPosition: "column"},
	},
	{
		Index:       3,
		ID:          "story",
		Name:        "스토리 다이어리",
		Description: "시간대별 사진과 글을 번갈아 보여주는 이야기형 레이아웃",
		Structure:   LayoutStructure{Type: "story", PhotoLayout: "timeline", TextPosition: "inline"},
	},
	{
		Index:       4,
		ID:          "polaroid",
		Name:        "폴라로이드",
		Description: "폴라로이드 프레임에 손글씨 느낌의 메모를 더한 레이아웃",
		Structure:   LayoutStructure{Type: "polaroid", PhotoLayout: "scattered", TextPosition: "under-photo"},
	},
}

var categoryLayouts = map[Category][2]int{
	CategoryFamily:     {0, 1},
	CategoryCouple:     {4, 3},
	CategoryFriendship: {1, 3},
	CategoryFoodTour:   {2, 3},
	CategoryGroup:      {0, 2},
}

// DefaultLayoutIndices is the photobook + story pair used for unknown categories.
var DefaultLayoutIndices = [2]int{1, 3}

// LayoutCatalog returns a copy of the five layout templates.
func LayoutCatalog() []LayoutTemplate {
	out := make([]LayoutTemplate, len(layoutCatalog))
	copy(out, layoutCatalog[:])
	return out
}

// LayoutAt returns the template at index.
func LayoutAt(index int) (LayoutTemplate, bool) {
	if index < 0 || index >= len(layoutCatalog) {
		return LayoutTemplate{}, false
	}
	return layoutCatalog[index], true
}

// LayoutIndicesFor returns the fixed layout pair of a category.
func LayoutIndicesFor(category Category) [2]int {
	if pair, ok := categoryLayouts[category]; ok {
		return pair
	}
	return DefaultLayoutIndices
}

type LayoutRecommendation struct {
	Category Category          `json:"category"`
	Indices  [2]int            `json:"layoutIndices"`
	Layouts  [2]LayoutTemplate `json:"layouts"`
}

// ResolveLayouts maps a category to its two layout templates, each annotated
// with the category name for display.
func ResolveLayouts(category Category) LayoutRecommendation {
	indices := LayoutIndicesFor(category)
	rec := LayoutRecommendation{Category: category, Indices: indices}
	for i, idx := range indices {
		tpl := layoutCatalog[idx]
		tpl.CategoryName = string(category)
		rec.Layouts[i] = tpl
	}
	return rec
}

// FallbackRecommendation is returned when there is no diary to classify.
func FallbackRecommendation() LayoutRecommendation {
	return ResolveLayouts(FallbackCategory)
}
