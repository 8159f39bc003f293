package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/travel-diary/internal/config"
	"github.com/kirillkom/travel-diary/internal/core/ports"
	"github.com/kirillkom/travel-diary/internal/observability/metrics"
)

const (
	serviceName  = "api"
	maxJSONBytes = 64 << 20
)

type Router struct {
	cfg        config.Config
	images     ports.ImageService
	diaries    ports.DiaryService
	layouts    ports.LayoutService
	printables ports.PrintableService
	metrics    *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	images ports.ImageService,
	diaries ports.DiaryService,
	layouts ports.LayoutService,
	printables ports.PrintableService,
) *Router {
	return &Router{
		cfg:        cfg,
		images:     images,
		diaries:    diaries,
		layouts:    layouts,
		printables: printables,
	}
}

// WithMetrics shares a metrics registry with other components, such as the
// classifier.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	if rt.metrics == nil {
		rt.metrics = metrics.NewHTTPServerMetrics(serviceName)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("GET /metrics", rt.metrics.Handler())

	mux.HandleFunc("POST /api/images", rt.uploadImage)
	mux.HandleFunc("GET /api/images/{id}/file", rt.imageFile)

	mux.HandleFunc("POST /api/diaries", rt.createDiary)
	mux.HandleFunc("GET /api/diaries", rt.listDiaries)
	mux.HandleFunc("GET /api/diaries/{id}", rt.diaryDetail)
	mux.HandleFunc("DELETE /api/diaries/{id}", rt.deleteDiary)
	mux.HandleFunc("PUT /api/diaries/{id}/content", rt.updateContent)
	mux.HandleFunc("POST /api/diaries/{id}/complete", rt.markCompleted)
	mux.HandleFunc("POST /api/diaries/{id}/ai-diary", rt.saveAIDiary)

	mux.HandleFunc("GET /api/layouts", rt.layoutCatalog)
	mux.HandleFunc("POST /api/diaries/{id}/recommend", rt.recommend)
	mux.HandleFunc("POST /api/diaries/{id}/reclassify", rt.reclassify)
	mux.HandleFunc("POST /api/diaries/{id}/layout", rt.selectLayout)
	mux.HandleFunc("GET /api/diaries/{id}/layouts/{index}/preview", rt.layoutPreview)

	mux.HandleFunc("POST /api/diaries/{id}/printable", rt.savePrintable)
	mux.HandleFunc("GET /api/diaries/{id}/printable", rt.getPrintable)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	var handler http.Handler = mux
	if rt.cfg.OpenAPIValidation {
		validated, err := openAPIValidationMiddleware(handler)
		if err != nil {
			slog.Error("openapi_validation_disabled", "error", err)
		} else {
			handler = validated
		}
	}
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.metrics)
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (rt *Router) uploadImage(w http.ResponseWriter, r *http.Request) {
	limit := rt.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	result, err := rt.images.Upload(r.Context(), ports.UploadImageInput{
		UserID:   r.FormValue("user_id"),
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Keywords: splitKeywords(r.MultipartForm.Value["keywords"]),
		TempID:   r.FormValue("temp_id"),
		Body:     file,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rt.metrics.RecordUpload(serviceName, result.Image.Size, result.Image.Exif.HasGPS)
	writeOK(w, http.StatusCreated, map[string]any{
		"image": result.Image,
		"exif":  result.Exif,
	})
}

func (rt *Router) imageFile(w http.ResponseWriter, r *http.Request) {
	img, body, err := rt.images.OpenFile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if img.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(img.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("image_stream_failed", "image_id", img.ID, "error", err)
	}
}

func (rt *Router) createDiary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string   `json:"userId"`
		Title    string   `json:"title"`
		Date     string   `json:"date"`
		ImageIDs []string `json:"imageIds"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := rt.diaries.Create(r.Context(), ports.CreateDiaryInput{
		UserID:   req.UserID,
		Title:    req.Title,
		Date:     req.Date,
		ImageIDs: req.ImageIDs,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"diary": view})
}

func (rt *Router) listDiaries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var userID string
	if err := runtime.BindQueryParameter("form", true, true, "user_id", query, &userID); err != nil {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	views, err := rt.diaries.List(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"diaries": views})
}

func (rt *Router) diaryDetail(w http.ResponseWriter, r *http.Request) {
	view, err := rt.diaries.Detail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"diary": view})
}

func (rt *Router) deleteDiary(w http.ResponseWriter, r *http.Request) {
	report, err := rt.diaries.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"deletedCounts": report})
}

func (rt *Router) updateContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	diary, err := rt.diaries.UpdateContent(r.Context(), r.PathValue("id"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"diary": diary})
}

func (rt *Router) markCompleted(w http.ResponseWriter, r *http.Request) {
	if err := rt.diaries.MarkCompleted(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (rt *Router) saveAIDiary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := rt.diaries.SaveAIDiary(r.Context(), ports.SaveAIDiaryInput{
		DiaryID: r.PathValue("id"),
		UserID:  req.UserID,
		Content: req.Content,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"aiDiary": result})
}

func writeOK(w http.ResponseWriter, status int, fields map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// splitKeywords accepts repeated form values and comma separated lists.
func splitKeywords(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
