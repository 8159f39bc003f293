package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

const defaultMaxUploadBytes = 20 << 20

type ImageUseCase struct {
	images    ports.ImageRepository
	storage   ports.ObjectStorage
	extractor ports.ExifExtractor
	maxBytes  int64
}

func NewImageUseCase(
	images ports.ImageRepository,
	storage ports.ObjectStorage,
	extractor ports.ExifExtractor,
	maxBytes int64,
) *ImageUseCase {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &ImageUseCase{
		images:    images,
		storage:   storage,
		extractor: extractor,
		maxBytes:  maxBytes,
	}
}

func (uc *ImageUseCase) Upload(ctx context.Context, in ports.UploadImageInput) (*ports.UploadImageResult, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, domain.Invalid("upload image", "user id is required")
	}
	if in.Body == nil {
		return nil, domain.Invalid("upload image", "image file is required")
	}

	raw, err := io.ReadAll(io.LimitReader(in.Body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.Invalid("upload image", "image file is empty")
	}
	if int64(len(raw)) > uc.maxBytes {
		return nil, domain.Invalid("upload image", fmt.Sprintf("image exceeds %d bytes", uc.maxBytes))
	}

	mimeType := strings.TrimSpace(in.MimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(raw)
	}

	exif := uc.extractor.Extract(raw)
	if !exif.Success {
		slog.Warn("exif_unreadable", "user_id", userID, "filename", in.Filename, "msg", exif.Msg)
	}

	id := domain.NewID()
	storageKey := fmt.Sprintf("images/%s/%s_%s", sanitizeKeyPart(userID), id, sanitizeFilename(in.Filename))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw), int64(len(raw)), mimeType); err != nil {
		return nil, fmt.Errorf("save image binary: %w", err)
	}

	img := &domain.Image{
		ID:         id,
		UserID:     userID,
		StorageKey: storageKey,
		Filename:   in.Filename,
		MimeType:   mimeType,
		Size:       int64(len(raw)),
		Keywords:   normalizeKeywords(in.Keywords),
		TempID:     strings.TrimSpace(in.TempID),
		Exif:       exif.Metadata(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.images.Create(ctx, img); err != nil {
		return nil, fmt.Errorf("create image record: %w", err)
	}

	return &ports.UploadImageResult{Image: img, Exif: exif}, nil
}

func (uc *ImageUseCase) OpenFile(ctx context.Context, imageID string) (*domain.Image, io.ReadCloser, error) {
	if strings.TrimSpace(imageID) == "" {
		return nil, nil, domain.Invalid("open image", "image id is required")
	}
	img, err := uc.images.GetByID(ctx, domain.ParseID(imageID))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch image by id: %w", err)
	}
	body, err := uc.storage.Open(ctx, img.StorageKey)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrNotFound, "open image binary", err)
	}
	return img, body, nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			kw := strings.TrimSpace(part)
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

func sanitizeKeyPart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "photo.bin"
	}
	return base
}
