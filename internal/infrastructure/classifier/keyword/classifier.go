// Package keyword is an in-process classifier that scores diary text
// against fixed keyword lists. It is deterministic and needs no model.
package keyword

import (
	"context"
	"strings"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type rule struct {
	label    string
	keywords []string
}

// Rules are checked in order; on equal scores the earlier label wins.
var rules = []rule{
	{"family", []string{"가족", "엄마", "아빠", "부모님", "어머니", "아버지", "할머니", "할아버지", "아이들", "동생", "family", "parents", "kids"}},
	{"couple", []string{"연인", "남자친구", "여자친구", "남친", "여친", "커플", "데이트", "기념일", "신혼", "couple", "honeymoon", "date"}},
	{"food", []string{"맛집", "먹방", "음식", "식당", "카페", "디저트", "맛있", "food", "restaurant", "cafe"}},
	{"group", []string{"단체", "동호회", "회사", "워크숍", "동료", "팀원", "수학여행", "group", "team", "workshop"}},
	{"friend", []string{"친구", "우정", "동창", "friend", "friends"}},
}

type Classifier struct{}

func New() *Classifier { return &Classifier{} }

func (c *Classifier) Classify(_ context.Context, text string) domain.Category {
	return domain.CategoryFromLabel(Label(text))
}

// Label returns the best-scoring label code for text, or the fallback label
// when nothing matches.
func Label(text string) string {
	lower := strings.ToLower(text)
	best, bestScore := domain.FallbackLabel, 0
	for _, r := range rules {
		score := 0
		for _, kw := range r.keywords {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			best, bestScore = r.label, score
		}
	}
	return best
}
