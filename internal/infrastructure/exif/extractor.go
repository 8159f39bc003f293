package exif

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

// UnreadableMessage is reported when an image carries no parseable metadata.
const UnreadableMessage = "이미지 메타데이터를 읽을 수 없습니다"

const exifDateLayout = "2006:01:02 15:04:05"

// Extractor reads GPS position and capture time from embedded EXIF data.
// EXIF timestamps carry no zone, so they are interpreted in location.
type Extractor struct {
	location *time.Location
}

func NewExtractor(location *time.Location) *Extractor {
	if location == nil {
		location = time.UTC
	}
	return &Extractor{location: location}
}

func (e *Extractor) Extract(data []byte) domain.ExifResult {
	if len(data) == 0 {
		return unreadable()
	}
	// A broken sub-IFD is not critical: the tags decoded so far are kept.
	x, err := goexif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && goexif.IsCriticalError(err)) {
		return unreadable()
	}

	result := domain.ExifResult{Success: true}
	lat, latErr := coordinate(x, goexif.GPSLatitude, goexif.GPSLatitudeRef)
	lon, lonErr := coordinate(x, goexif.GPSLongitude, goexif.GPSLongitudeRef)
	if latErr == nil && lonErr == nil {
		result.Latitude = &lat
		result.Longitude = &lon
		result.HasGPS = true
	}
	if taken, ok := e.captureTime(x); ok {
		result.Date = &taken
	}
	return result
}

func (e *Extractor) captureTime(x *goexif.Exif) (time.Time, bool) {
	for _, field := range []goexif.FieldName{goexif.DateTimeOriginal, goexif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		raw = strings.TrimRight(strings.TrimSpace(raw), "\x00")
		t, err := time.ParseInLocation(exifDateLayout, raw, e.location)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

func coordinate(x *goexif.Exif, valueField, refField goexif.FieldName) (float64, error) {
	tag, err := x.Get(valueField)
	if err != nil {
		return 0, err
	}
	dms, err := rationals(tag, 3)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", valueField, err)
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		if s, err := refTag.StringVal(); err == nil {
			ref = s
		}
	}
	return DMSToDecimal(dms[0], dms[1], dms[2], ref), nil
}

func rationals(tag *tiff.Tag, n int) ([]float64, error) {
	if int(tag.Count) < n {
		return nil, fmt.Errorf("expected %d rationals, got %d", n, tag.Count)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return nil, err
		}
		if den == 0 {
			return nil, fmt.Errorf("zero denominator at %d", i)
		}
		out[i] = float64(num) / float64(den)
	}
	return out, nil
}

// DMSToDecimal converts degrees, minutes and seconds to decimal degrees.
// A southern or western reference yields a negative value.
func DMSToDecimal(deg, minutes, seconds float64, ref string) float64 {
	v := deg + minutes/60 + seconds/3600
	switch strings.ToUpper(strings.TrimSpace(strings.TrimRight(ref, "\x00"))) {
	case "S", "W":
		return -v
	default:
		return v
	}
}

func unreadable() domain.ExifResult {
	return domain.ExifResult{Success: false, Msg: UnreadableMessage}
}
