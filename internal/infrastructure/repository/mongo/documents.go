package mongo

import (
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

type geoDoc struct {
	Latitude  float64 `bson:"latitude"`
	Longitude float64 `bson:"longitude"`
}

type exifDoc struct {
	Latitude  *float64   `bson:"latitude,omitempty"`
	Longitude *float64   `bson:"longitude,omitempty"`
	Date      *time.Time `bson:"date,omitempty"`
	HasGPS    bool       `bson:"hasGPS"`
}

type imageDoc struct {
	ID          any       `bson:"_id"`
	UserID      string    `bson:"userId"`
	StorageKey  string    `bson:"storageKey"`
	Filename    string    `bson:"filename"`
	MimeType    string    `bson:"mimeType"`
	Size        int64     `bson:"size"`
	Keywords    []string  `bson:"keywords"`
	TempID      string    `bson:"tempId,omitempty"`
	Exif        exifDoc   `bson:"exif"`
	UsedInDiary bool      `bson:"usedInDiary"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func toImageDoc(img *domain.Image) imageDoc {
	return imageDoc{
		ID:         storedKey(img.ID),
		UserID:     img.UserID,
		StorageKey: img.StorageKey,
		Filename:   img.Filename,
		MimeType:   img.MimeType,
		Size:       img.Size,
		Keywords:   img.Keywords,
		TempID:     img.TempID,
		Exif: exifDoc{
			Latitude:  img.Exif.Latitude,
			Longitude: img.Exif.Longitude,
			Date:      img.Exif.Date,
			HasGPS:    img.Exif.HasGPS,
		},
		UsedInDiary: img.UsedInDiary,
		CreatedAt:   img.CreatedAt,
	}
}

func (d imageDoc) toDomain() *domain.Image {
	return &domain.Image{
		ID:         idString(d.ID),
		UserID:     d.UserID,
		StorageKey: d.StorageKey,
		Filename:   d.Filename,
		MimeType:   d.MimeType,
		Size:       d.Size,
		Keywords:   d.Keywords,
		TempID:     d.TempID,
		Exif: domain.ExifMetadata{
			Latitude:  d.Exif.Latitude,
			Longitude: d.Exif.Longitude,
			Date:      d.Exif.Date,
			HasGPS:    d.Exif.HasGPS,
		},
		UsedInDiary: d.UsedInDiary,
		CreatedAt:   d.CreatedAt,
	}
}

type slotExifDoc struct {
	Timestamp *time.Time `bson:"timestamp,omitempty"`
	Location  *geoDoc    `bson:"location,omitempty"`
}

type slotDoc struct {
	ID        string      `bson:"id"`
	URL       string      `bson:"url"`
	MimeType  string      `bson:"mimeType"`
	Keywords  []string    `bson:"keywords"`
	TimeSlot  string      `bson:"timeSlot"`
	Timestamp int64       `bson:"timestamp"`
	Exif      slotExifDoc `bson:"exif"`
}

func toSlotDocs(slots []domain.PhotoSlot) []slotDoc {
	out := make([]slotDoc, 0, len(slots))
	for _, s := range slots {
		doc := slotDoc{
			ID:        s.ID,
			URL:       s.URL,
			MimeType:  s.MimeType,
			Keywords:  s.Keywords,
			TimeSlot:  string(s.TimeSlot),
			Timestamp: s.Timestamp,
			Exif:      slotExifDoc{Timestamp: s.Exif.Timestamp},
		}
		if loc := s.Exif.Location; loc != nil {
			doc.Exif.Location = &geoDoc{Latitude: loc.Latitude, Longitude: loc.Longitude}
		}
		out = append(out, doc)
	}
	return out
}

func fromSlotDocs(docs []slotDoc) []domain.PhotoSlot {
	out := make([]domain.PhotoSlot, 0, len(docs))
	for _, d := range docs {
		slot := domain.PhotoSlot{
			ID:        d.ID,
			URL:       d.URL,
			MimeType:  d.MimeType,
			Keywords:  d.Keywords,
			TimeSlot:  domain.TimeSlot(d.TimeSlot),
			Timestamp: d.Timestamp,
			Exif:      domain.SlotExif{Timestamp: d.Exif.Timestamp},
		}
		if slot.Keywords == nil {
			slot.Keywords = []string{}
		}
		if loc := d.Exif.Location; loc != nil {
			slot.Exif.Location = &domain.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude}
		}
		out = append(out, slot)
	}
	return out
}

type diaryDoc struct {
	ID          any        `bson:"_id"`
	UserID      string     `bson:"userId"`
	Title       string     `bson:"title"`
	Date        string     `bson:"date"`
	Photos      []slotDoc  `bson:"photos"`
	Content     string     `bson:"content"`
	Categories  []string   `bson:"categories"`
	Completed   bool       `bson:"completed"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func toDiaryDoc(d *domain.Diary) diaryDoc {
	categories := d.Categories
	if categories == nil {
		categories = []string{}
	}
	return diaryDoc{
		ID:          storedKey(d.ID),
		UserID:      d.UserID,
		Title:       d.Title,
		Date:        d.Date,
		Photos:      toSlotDocs(d.Photos),
		Content:     d.Content,
		Categories:  categories,
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d diaryDoc) toDomain() domain.Diary {
	categories := d.Categories
	if categories == nil {
		categories = []string{}
	}
	return domain.Diary{
		ID:          idString(d.ID),
		UserID:      d.UserID,
		Title:       d.Title,
		Date:        d.Date,
		Photos:      fromSlotDocs(d.Photos),
		Content:     d.Content,
		Categories:  categories,
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type aiDiaryDoc struct {
	ID        any       `bson:"_id"`
	DiaryID   string    `bson:"diaryId"`
	UserID    string    `bson:"userId"`
	Content   string    `bson:"content"`
	Photos    []slotDoc `bson:"photos"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d aiDiaryDoc) toDomain() *domain.AIDiary {
	return &domain.AIDiary{
		ID:        idString(d.ID),
		DiaryID:   d.DiaryID,
		UserID:    d.UserID,
		Content:   d.Content,
		Photos:    fromSlotDocs(d.Photos),
		CreatedAt: d.CreatedAt,
	}
}

type pageDoc struct {
	PageNumber int    `bson:"pageNumber"`
	ImageData  string `bson:"imageData"`
}

type printableDoc struct {
	ID         any       `bson:"_id"`
	DiaryID    string    `bson:"diaryId"`
	UserID     string    `bson:"userId"`
	Pages      []pageDoc `bson:"pages"`
	TotalPages int       `bson:"totalPages"`
	MimeType   string    `bson:"mimeType"`
	Thumbnail  string    `bson:"thumbnail,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func toPrintableDoc(p *domain.PrintableDiary) printableDoc {
	pages := make([]pageDoc, 0, len(p.Pages))
	for _, pg := range p.Pages {
		pages = append(pages, pageDoc{PageNumber: pg.PageNumber, ImageData: pg.ImageData})
	}
	return printableDoc{
		ID:         storedKey(p.ID),
		DiaryID:    p.DiaryID,
		UserID:     p.UserID,
		Pages:      pages,
		TotalPages: p.TotalPages,
		MimeType:   p.MimeType,
		Thumbnail:  p.Thumbnail,
		CreatedAt:  p.CreatedAt,
	}
}

func (d printableDoc) toDomain() *domain.PrintableDiary {
	pages := make([]domain.PrintablePage, 0, len(d.Pages))
	for _, pg := range d.Pages {
		pages = append(pages, domain.PrintablePage{PageNumber: pg.PageNumber, ImageData: pg.ImageData})
	}
	return &domain.PrintableDiary{
		ID:         idString(d.ID),
		DiaryID:    d.DiaryID,
		UserID:     d.UserID,
		Pages:      pages,
		TotalPages: d.TotalPages,
		MimeType:   d.MimeType,
		Thumbnail:  d.Thumbnail,
		CreatedAt:  d.CreatedAt,
	}
}

type selectionDoc struct {
	DiaryID     string    `bson:"_id"`
	LayoutID    string    `bson:"layoutId"`
	LayoutIndex int       `bson:"layoutIndex"`
	SelectedAt  time.Time `bson:"selectedAt"`
}
