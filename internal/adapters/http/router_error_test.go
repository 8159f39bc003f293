package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kirillkom/travel-diary/internal/config"
	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

type diaryErrFake struct {
	ports.DiaryService
	err error
}

func (f diaryErrFake) Detail(context.Context, string) (*domain.DiaryView, error) {
	return nil, f.err
}

func (f diaryErrFake) Delete(context.Context, string) (*domain.DeleteReport, error) {
	return nil, f.err
}

func TestErrorsMapToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", domain.Invalid("detail", "diary id is required"), http.StatusBadRequest},
		{"not found", domain.NotFound("detail", "diary", "d1"), http.StatusNotFound},
		{"temporary", domain.WrapError(domain.ErrTemporary, "detail", errors.New("mongo down")), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRouter(config.Config{}, nil, diaryErrFake{err: tc.err}, nil, nil).Handler()

			res, body := doJSON(t, handler, http.MethodGet, "/api/diaries/d1", nil)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
			if body["success"] != false {
				t.Fatalf("expected success=false, got %v", body)
			}
			if body["error"] != tc.err.Error() {
				t.Fatalf("expected error message %q, got %v", tc.err.Error(), body["error"])
			}
		})
	}
}

func TestDeleteSurfacesPersistenceFailureAs500(t *testing.T) {
	handler := NewRouter(config.Config{}, nil, diaryErrFake{err: errors.New("delete diary: disk full")}, nil, nil).Handler()
	res, _ := doJSON(t, handler, http.MethodDelete, "/api/diaries/d1", nil)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}
