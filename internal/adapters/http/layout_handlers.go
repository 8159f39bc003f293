package httpadapter

import (
	"net/http"
	"strconv"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

func (rt *Router) layoutCatalog(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]any{"layouts": domain.LayoutCatalog()})
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	rec, err := rt.layouts.Recommend(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rt.metrics.RecordRecommendation(serviceName, string(rec.Category), "recommend")
	writeOK(w, http.StatusOK, map[string]any{"recommendation": rec})
}

func (rt *Router) reclassify(w http.ResponseWriter, r *http.Request) {
	rec, err := rt.layouts.Reclassify(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rt.metrics.RecordRecommendation(serviceName, string(rec.Category), "reclassify")
	writeOK(w, http.StatusOK, map[string]any{"recommendation": rec})
}

func (rt *Router) selectLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LayoutID    string `json:"layoutId"`
		LayoutIndex *int   `json:"layoutIndex"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LayoutIndex == nil {
		writeError(w, http.StatusBadRequest, "layoutIndex is required")
		return
	}
	selection, err := rt.layouts.Select(r.Context(), ports.SelectLayoutInput{
		DiaryID:     r.PathValue("id"),
		LayoutID:    req.LayoutID,
		LayoutIndex: *req.LayoutIndex,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"selection": selection})
}

func (rt *Router) layoutPreview(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "layout index must be an integer")
		return
	}
	preview, err := rt.layouts.Preview(r.Context(), r.PathValue("id"), index)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"layout": preview.Layout,
		"diary":  preview.Diary,
	})
}

func (rt *Router) savePrintable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string   `json:"userId"`
		Images []string `json:"images"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	printable, err := rt.printables.Save(r.Context(), ports.SavePrintableInput{
		DiaryID: r.PathValue("id"),
		UserID:  req.UserID,
		Images:  req.Images,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{
		"printableDiaryId": printable.ID,
		"totalPages":       printable.TotalPages,
	})
}

func (rt *Router) getPrintable(w http.ResponseWriter, r *http.Request) {
	printable, err := rt.printables.GetByDiaryID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"printable": printable})
}
