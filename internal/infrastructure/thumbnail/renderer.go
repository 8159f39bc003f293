package thumbnail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

const DefaultSize = 256

// Renderer shrinks a printable page into a PNG thumbnail that fits in a
// size x size box.
type Renderer struct {
	size int
}

func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size}
}

func (r *Renderer) Render(pageBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(pageBase64))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode page", err)
	}
	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode page image", err)
	}

	thumb := imaging.Fit(src, r.size, r.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
