package domain

import "time"

type SlotExif struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Location  *GeoPoint  `json:"location,omitempty"`
}

// PhotoSlot is the diary's view of one uploaded image.
type PhotoSlot struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	MimeType  string   `json:"mimeType"`
	Keywords  []string `json:"keywords"`
	TimeSlot  TimeSlot `json:"timeSlot"`
	Timestamp int64    `json:"timestamp"`
	Exif      SlotExif `json:"exif"`
}

// NewPhotoSlot derives a slot from img. The timestamp is the capture time in
// unix milliseconds, or now when the image has no capture time.
func NewPhotoSlot(img *Image, loc *time.Location, now time.Time) PhotoSlot {
	ts := now.UnixMilli()
	if img.Exif.Date != nil {
		ts = img.Exif.Date.UnixMilli()
	}
	keywords := img.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return PhotoSlot{
		ID:        img.ID,
		URL:       ImageURL(img.ID),
		MimeType:  img.MimeType,
		Keywords:  keywords,
		TimeSlot:  TimeSlotFor(img.Exif.Date, loc),
		Timestamp: ts,
		Exif: SlotExif{
			Timestamp: img.Exif.Date,
			Location:  img.Exif.Location(),
		},
	}
}

// PhotoSlotView is a slot augmented with the image binary for display.
// ImageData is absent when the backing image no longer resolves.
type PhotoSlotView struct {
	PhotoSlot
	ImageData string `json:"imageData,omitempty"`
}

type Diary struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Title       string      `json:"title"`
	Date        string      `json:"date"`
	Photos      []PhotoSlot `json:"photos"`
	Content     string      `json:"content"`
	Categories  []string    `json:"categories"`
	Completed   bool        `json:"completed"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// RecognizedCategory returns the first of the diary's categories that is one
// of the five travel categories. A diary with one is considered classified.
func (d *Diary) RecognizedCategory() (Category, bool) {
	return FirstRecognized(d.Categories)
}

// ImageIDs returns the ids of all non-temporary photo slots.
func (d *Diary) ImageIDs() []string {
	out := make([]string, 0, len(d.Photos))
	for _, p := range d.Photos {
		if p.ID == "" || ParseID(p.ID).IsTemporary() {
			continue
		}
		out = append(out, p.ID)
	}
	return out
}

// DiaryView is a diary merged with display data.
type DiaryView struct {
	Diary
	Photos    []PhotoSlotView `json:"photos"`
	AIContent string          `json:"aiContent,omitempty"`
	Thumbnail string          `json:"thumbnail,omitempty"`
}

// AIDiary is generated narrative content for a diary. Photos never carry
// image binaries.
type AIDiary struct {
	ID        string      `json:"id"`
	DiaryID   string      `json:"diaryId"`
	UserID    string      `json:"userId"`
	Content   string      `json:"content"`
	Photos    []PhotoSlot `json:"photos"`
	CreatedAt time.Time   `json:"createdAt"`
}

const PrintableMimeType = "image/png"

type PrintablePage struct {
	PageNumber int    `json:"pageNumber"`
	ImageData  string `json:"imageData"`
}

// PrintableDiary holds the rendered, print-ready pages of a diary.
type PrintableDiary struct {
	ID         string          `json:"id"`
	DiaryID    string          `json:"diaryId"`
	UserID     string          `json:"userId"`
	Pages      []PrintablePage `json:"pages"`
	TotalPages int             `json:"totalPages"`
	MimeType   string          `json:"mimeType"`
	Thumbnail  string          `json:"thumbnail,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// CoverImage returns the stored thumbnail, or the first page when none has
// been rendered yet.
func (p *PrintableDiary) CoverImage() string {
	if p == nil {
		return ""
	}
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	for _, page := range p.Pages {
		if page.PageNumber == 1 {
			return page.ImageData
		}
	}
	if len(p.Pages) > 0 {
		return p.Pages[0].ImageData
	}
	return ""
}

// LayoutSelection records which layout a user picked for a diary.
type LayoutSelection struct {
	DiaryID     string    `json:"diaryId"`
	LayoutID    string    `json:"layoutId"`
	LayoutIndex int       `json:"layoutIndex"`
	SelectedAt  time.Time `json:"selectedAt"`
}

// DeleteReport counts what a diary deletion removed.
type DeleteReport struct {
	Images     int64 `json:"images"`
	AIDiaries  int64 `json:"aiDiaries"`
	Printables int64 `json:"printableDiaries"`
	Selections int64 `json:"layoutSelections"`
}
