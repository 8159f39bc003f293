package exif

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func TestDMSToDecimal(t *testing.T) {
	cases := []struct {
		deg, min, sec float64
		ref           string
		want          float64
	}{
		{37, 33, 59.4, "N", 37.5665},
		{126, 58, 40.8, "E", 126.978},
		{33, 52, 4.8, "S", -33.868},
		{118, 14, 34.8, "W", -118.243},
		{10, 30, 0, "", 10.5},
	}
	for _, tc := range cases {
		got := DMSToDecimal(tc.deg, tc.min, tc.sec, tc.ref)
		if math.Abs(got-tc.want) > 1e-4 {
			t.Fatalf("DMSToDecimal(%v,%v,%v,%q) = %v, want %v", tc.deg, tc.min, tc.sec, tc.ref, got, tc.want)
		}
	}
}

func TestExtractUnreadable(t *testing.T) {
	e := NewExtractor(time.UTC)
	for _, data := range [][]byte{nil, []byte("not an image"), {0xFF, 0xD8, 0xFF, 0xD9}} {
		res := e.Extract(data)
		if res.Success {
			t.Fatalf("expected failure for %q", data)
		}
		if res.Msg != UnreadableMessage {
			t.Fatalf("unexpected message %q", res.Msg)
		}
		if res.HasGPS || res.Date != nil || res.Latitude != nil {
			t.Fatalf("expected empty metadata, got %+v", res)
		}
	}
}

func TestExtractGPSAndCaptureTime(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	data := jpegWithExif(buildTIFF(nil,
		subIFD{pointer: tagExifPointer, entries: []ifdEntry{ascii(tagDateTimeOriginal, "2024:05:01 16:30:00")}},
		subIFD{pointer: tagGPSPointer, entries: southWestGPS()},
	))

	res := NewExtractor(seoul).Extract(data)
	if !res.Success || !res.HasGPS {
		t.Fatalf("expected gps metadata, got %+v", res)
	}
	if math.Abs(*res.Latitude-(-33.5)) > 1e-9 {
		t.Fatalf("expected latitude -33.5, got %v", *res.Latitude)
	}
	if math.Abs(*res.Longitude-(-70.25)) > 1e-9 {
		t.Fatalf("expected longitude -70.25, got %v", *res.Longitude)
	}
	want := time.Date(2024, 5, 1, 16, 30, 0, 0, seoul)
	if res.Date == nil || !res.Date.Equal(want) {
		t.Fatalf("expected capture time %v, got %v", want, res.Date)
	}
	if got := res.Date.In(seoul).Hour(); got != 16 {
		t.Fatalf("expected capture hour 16 in Seoul, got %d", got)
	}
}

func TestExtractWithoutGPS(t *testing.T) {
	data := jpegWithExif(buildTIFF([]ifdEntry{ascii(tagDateTime, "2023:12:24 08:05:00")}))

	res := NewExtractor(time.UTC).Extract(data)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.HasGPS || res.Latitude != nil || res.Longitude != nil {
		t.Fatalf("expected no coordinates, got %+v", res)
	}
	want := time.Date(2023, 12, 24, 8, 5, 0, 0, time.UTC)
	if res.Date == nil || !res.Date.Equal(want) {
		t.Fatalf("expected DateTime fallback %v, got %v", want, res.Date)
	}
}

func TestExtractKeepsTagsBesideBrokenSubIFD(t *testing.T) {
	// The interop pointer leads past the end of the data.
	data := jpegWithExif(buildTIFF(
		[]ifdEntry{long(tagInteropPointer, 0xFFFF)},
		subIFD{pointer: tagGPSPointer, entries: southWestGPS()},
	))

	res := NewExtractor(time.UTC).Extract(data)
	if !res.Success || !res.HasGPS {
		t.Fatalf("expected gps to survive a broken interop directory, got %+v", res)
	}
	if *res.Latitude >= 0 || *res.Longitude >= 0 {
		t.Fatalf("expected south-west coordinates, got %v,%v", *res.Latitude, *res.Longitude)
	}
}

const (
	tagDateTime         = 0x0132
	tagExifPointer      = 0x8769
	tagGPSPointer       = 0x8825
	tagDateTimeOriginal = 0x9003
	tagInteropPointer   = 0xA005

	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

type subIFD struct {
	pointer uint16
	entries []ifdEntry
}

func ascii(tag uint16, s string) ifdEntry {
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(s) + 1), data: append([]byte(s), 0)}
}

func long(tag uint16, v uint32) ifdEntry {
	return ifdEntry{tag: tag, typ: typeLong, count: 1, data: binary.LittleEndian.AppendUint32(nil, v)}
}

func rational(tag uint16, pairs ...[2]uint32) ifdEntry {
	var data []byte
	for _, p := range pairs {
		data = binary.LittleEndian.AppendUint32(data, p[0])
		data = binary.LittleEndian.AppendUint32(data, p[1])
	}
	return ifdEntry{tag: tag, typ: typeRational, count: uint32(len(pairs)), data: data}
}

// southWestGPS is 33°30'S 70°15'W.
func southWestGPS() []ifdEntry {
	return []ifdEntry{
		ascii(0x1, "S"),
		rational(0x2, [2]uint32{33, 1}, [2]uint32{30, 1}, [2]uint32{0, 1}),
		ascii(0x3, "W"),
		rational(0x4, [2]uint32{70, 1}, [2]uint32{15, 1}, [2]uint32{0, 1}),
	}
}

// encodeIFD lays out one directory at offset base, followed by the values
// that do not fit in an entry.
func encodeIFD(entries []ifdEntry, base uint32) []byte {
	le := binary.LittleEndian
	dirLen := uint32(2 + 12*len(entries) + 4)
	var dir, extra bytes.Buffer
	_ = binary.Write(&dir, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&dir, le, e.tag)
		_ = binary.Write(&dir, le, e.typ)
		_ = binary.Write(&dir, le, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			dir.Write(v)
			continue
		}
		_ = binary.Write(&dir, le, base+dirLen+uint32(extra.Len()))
		extra.Write(e.data)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}
	_ = binary.Write(&dir, le, uint32(0))
	return append(dir.Bytes(), extra.Bytes()...)
}

// buildTIFF writes a little-endian TIFF whose first directory holds ifd0
// plus one pointer entry per sub-directory.
func buildTIFF(ifd0 []ifdEntry, subs ...subIFD) []byte {
	entries := append([]ifdEntry(nil), ifd0...)
	for _, s := range subs {
		entries = append(entries, long(s.pointer, 0))
	}
	offset := uint32(8 + len(encodeIFD(entries, 0)))
	for i, s := range subs {
		entries[len(ifd0)+i] = long(s.pointer, offset)
		offset += uint32(len(encodeIFD(s.entries, 0)))
	}

	out := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	out = append(out, encodeIFD(entries, 8)...)
	for _, s := range subs {
		out = append(out, encodeIFD(s.entries, uint32(len(out)))...)
	}
	return out
}

func jpegWithExif(tiffData []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiffData...)
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, 0xFF, 0xD9)
}
