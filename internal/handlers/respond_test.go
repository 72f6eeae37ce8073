package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/hierarchy"
)

func TestStatusForReason(t *testing.T) {
	tests := []struct {
		reason hierarchy.Reason
		want   int
	}{
		{hierarchy.ReasonNotFound, http.StatusNotFound},
		{hierarchy.ReasonSelfReference, http.StatusUnprocessableEntity},
		{hierarchy.ReasonEmptyName, http.StatusUnprocessableEntity},
		{hierarchy.ReasonAlreadyChild, http.StatusConflict},
		{hierarchy.ReasonChildHasChildren, http.StatusConflict},
		{hierarchy.ReasonNotAChild, http.StatusConflict},
		{hierarchy.ReasonParentIsChild, http.StatusConflict},
		{hierarchy.ReasonHasChildren, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			if got := statusForReason(tt.reason); got != tt.want {
				t.Errorf("statusForReason(%s) = %d, want %d", tt.reason, got, tt.want)
			}
			if rejectionMessage(tt.reason) == "The change was rejected." {
				t.Errorf("reason %s has no dedicated message", tt.reason)
			}
		})
	}
}

func TestWriteFailureWrappedRejection(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := errors.Join(errors.New("context"), &hierarchy.Rejection{Reason: hierarchy.ReasonAlreadyChild, ID: uuid.New()})

	writeFailure(w, r, err)

	assertError(t, w, http.StatusConflict, "already_child")
}

func TestWriteFailureInternal(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	writeFailure(w, r, errors.New("connection refused"))

	assertError(t, w, http.StatusInternalServerError, "")
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Shoes"}`, false},
		{"unknown field", `{"name":"Shoes","color":"red"}`, true},
		{"trailing data", `{"name":"Shoes"}{"name":"Hats"}`, true},
		{"not json", `name=Shoes`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := jsonRequest(t, http.MethodPost, "/", tt.body)
			var req createRequest
			err := decodeJSON(w, r, &req)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUUIDParam(t *testing.T) {
	id := uuid.New()
	w := httptest.NewRecorder()
	r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String())
	got, ok := uuidParam(w, r, "id")
	if !ok || got != id {
		t.Fatalf("uuidParam() = %v, %v; want %v, true", got, ok, id)
	}

	w = httptest.NewRecorder()
	r = withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "not-a-uuid")
	if _, ok := uuidParam(w, r, "id"); ok {
		t.Fatal("uuidParam accepted a malformed id")
	}
	assertError(t, w, http.StatusBadRequest, "")
}
