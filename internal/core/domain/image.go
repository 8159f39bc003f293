package domain

import "time"

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ExifResult is the outcome of reading embedded image metadata. Success=false
// means the metadata was unreadable; Msg then carries a user-facing message.
type ExifResult struct {
	Success   bool       `json:"success"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Date      *time.Time `json:"date"`
	HasGPS    bool       `json:"hasGPS"`
	Msg       string     `json:"msg,omitempty"`
}

// Metadata returns the persisted form of the result. Unreadable metadata
// degrades to an empty record.
func (r ExifResult) Metadata() ExifMetadata {
	if !r.Success {
		return ExifMetadata{}
	}
	return ExifMetadata{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Date:      r.Date,
		HasGPS:    r.Latitude != nil && r.Longitude != nil,
	}
}

type ExifMetadata struct {
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Date      *time.Time `json:"date"`
	HasGPS    bool       `json:"hasGPS"`
}

// Location returns the GPS point when both coordinates are present.
func (m ExifMetadata) Location() *GeoPoint {
	if m.Latitude == nil || m.Longitude == nil {
		return nil
	}
	return &GeoPoint{Latitude: *m.Latitude, Longitude: *m.Longitude}
}

// Image is an uploaded photo. The binary lives in object storage under
// StorageKey and is never embedded in other records.
type Image struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	StorageKey  string       `json:"-"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mimeType"`
	Size        int64        `json:"size"`
	Keywords    []string     `json:"keywords"`
	TempID      string       `json:"tempId,omitempty"`
	Exif        ExifMetadata `json:"exif"`
	UsedInDiary bool         `json:"usedInDiary"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// ImageURL is the display URL of an image's binary.
func ImageURL(imageID string) string {
	return "/api/images/" + imageID + "/file"
}
