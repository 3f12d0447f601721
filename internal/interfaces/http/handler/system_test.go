package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubBucket struct {
	exists bool
	err    error
}

func (s stubBucket) BucketExists(context.Context) (bool, error) { return s.exists, s.err }
func (s stubBucket) Bucket() string                              { return "invoices" }

type stubPinger struct{ err error }

func (s stubPinger) Ping() error { return s.err }

func TestSystemHandler_Root(t *testing.T) {
	r := newEngine()
	r.GET("/", NewSystemHandler(stubBucket{exists: true}, nil).Root)

	w := doJSON(r, http.MethodGet, "/", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"invoice-renderer"}`, w.Body.String())
}

func TestSystemHandler_Healthz(t *testing.T) {
	tests := []struct {
		name   string
		bucket stubBucket
		db     Pinger
		status int
		body   string
	}{
		{"healthy", stubBucket{exists: true}, stubPinger{}, http.StatusOK, `{"ok":true,"bucket":"invoices"}`},
		{"healthy without database", stubBucket{exists: true}, nil, http.StatusOK, `{"ok":true,"bucket":"invoices"}`},
		{"missing bucket", stubBucket{}, stubPinger{}, http.StatusInternalServerError, `{"ok":false,"error":"bucket invoices does not exist"}`},
		{"storage error", stubBucket{err: errors.New("connection refused")}, stubPinger{}, http.StatusInternalServerError, `{"ok":false,"error":"connection refused"}`},
		{"database down", stubBucket{exists: true}, stubPinger{err: errors.New("closed")}, http.StatusInternalServerError, `{"ok":false,"error":"database: closed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine()
			r.GET("/healthz", NewSystemHandler(tt.bucket, tt.db).Healthz)

			w := doJSON(r, http.MethodGet, "/healthz", nil, "")

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}
