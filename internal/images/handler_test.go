package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"calc-backend/internal/shared/server/middleware"
	"calc-backend/internal/shared/telemetry"
)

func setupImageRouter(t *testing.T, repo Repo, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.BodyLimit(1<<20))
	NewHandler(&Service{Repo: repo}, maxUpload).RegisterRoutes(router)
	return router
}

func multipartRequest(t *testing.T, field, fileName string, content []byte, extra map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range extra {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if field != "" {
		fw, err := writer.CreateFormFile(field, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/image", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func decodeStored(t *testing.T, repo *MemoryRepo, resp *httptest.ResponseRecorder) []byte {
	t.Helper()
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != "success" || created.ImageID == "" {
		t.Fatalf("unexpected response %+v", created)
	}
	rec, err := repo.GetByID(context.Background(), created.ImageID)
	if err != nil {
		t.Fatalf("stored record lookup: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(rec.Image)
	if err != nil {
		t.Fatalf("stored image not base64: %v", err)
	}
	return data
}

func TestUploadMultipartFile(t *testing.T) {
	repo := NewMemoryRepo()
	router := setupImageRouter(t, repo, 0)
	content := []byte("\xff\xd8\xff\xe0 fake jpeg")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "image", "eq.jpg", content, nil))

	if got := decodeStored(t, repo, resp); !bytes.Equal(got, content) {
		t.Fatalf("expected stored bytes %q, got %q", content, got)
	}
}

func TestUploadFilePrecedesInlineField(t *testing.T) {
	repo := NewMemoryRepo()
	router := setupImageRouter(t, repo, 0)
	content := []byte("from-file")

	resp := httptest.NewRecorder()
	req := multipartRequest(t, "image", "eq.png", content, map[string]string{
		"image": base64.StdEncoding.EncodeToString([]byte("from-field")),
	})
	router.ServeHTTP(resp, req)

	if got := decodeStored(t, repo, resp); !bytes.Equal(got, content) {
		t.Fatalf("expected file bytes to win, got %q", got)
	}
}

func TestUploadMultipartInlineField(t *testing.T) {
	repo := NewMemoryRepo()
	router := setupImageRouter(t, repo, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "", "", nil, map[string]string{"image": "AAAA"}))

	if got := decodeStored(t, repo, resp); !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Fatalf("unexpected bytes %v", got)
	}
}

func TestUploadJSONDataURI(t *testing.T) {
	repo := NewMemoryRepo()
	router := setupImageRouter(t, repo, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest(t, map[string]string{"image": "data:image/png;base64,AAAA"}))

	if got := decodeStored(t, repo, resp); !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Fatalf("unexpected bytes %v", got)
	}
}

func TestUploadURLEncodedForm(t *testing.T) {
	repo := NewMemoryRepo()
	router := setupImageRouter(t, repo, 0)

	form := url.Values{"image": {"AAAA"}}
	req := httptest.NewRequest(http.MethodPost, "/image", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := decodeStored(t, repo, resp); !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Fatalf("unexpected bytes %v", got)
	}
}

func TestUploadClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		code    string
		message string
	}{
		{
			name:    "empty json",
			req:     func(t *testing.T) *http.Request { return jsonRequest(t, map[string]string{}) },
			code:    "no_image",
			message: "No image provided",
		},
		{
			name: "empty body",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/image", nil)
			},
			code:    "no_image",
			message: "No image provided",
		},
		{
			name: "multipart without image",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "", "", nil, map[string]string{"other": "x"})
			},
			code:    "no_image",
			message: "No image provided",
		},
		{
			name:    "malformed base64",
			req:     func(t *testing.T) *http.Request { return jsonRequest(t, map[string]string{"image": "***"}) },
			code:    "invalid_base64",
			message: "Invalid base64 format",
		},
		{
			name: "header without payload",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, map[string]string{"image": "data:image/png;base64,"})
			},
			code:    "invalid_image",
			message: "Invalid image data",
		},
		{
			name: "empty file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "image", "empty.png", []byte{}, nil)
			},
			code:    "invalid_image",
			message: "Invalid image data",
		},
		{
			name: "file over upload limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "image", "big.png", bytes.Repeat([]byte("x"), 64), nil)
			},
			code:    "image_too_large",
			message: "Image too large",
		},
		{
			name: "body over transport limit",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, map[string]string{"image": strings.Repeat("A", 2<<20)})
			},
			code:    "image_too_large",
			message: "Image too large",
		},
		{
			name: "wrong field type",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, map[string]int{"image": 42})
			},
			code:    "invalid_request",
			message: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupImageRouter(t, NewMemoryRepo(), 32)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, tt.req(t))

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			body := decodeError(t, resp)
			if body.Status != "error" || body.Code != tt.code || body.Message != tt.message {
				t.Fatalf("unexpected error body %+v", body)
			}
		})
	}
}

func TestUploadStoreFailureIsGeneric(t *testing.T) {
	router := setupImageRouter(t, failingRepo{err: errors.New("pq: password authentication failed")}, 0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, jsonRequest(t, map[string]string{"image": "AAAA"}))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Message != "Server error" {
		t.Fatalf("expected generic message, got %q", body.Message)
	}
	if body.Details != nil {
		t.Fatalf("store error must not leak to caller, got details %v", body.Details)
	}
}

func TestUploadOversizedInlineMultipartField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)

	router := gin.New()
	router.MaxMultipartMemory = 1
	router.Use(middleware.RequestID())
	NewHandler(&Service{Repo: NewMemoryRepo()}, 32).RegisterRoutes(router)

	// Non-file fields get maxMemory plus a fixed 10MB allowance before
	// the multipart reader gives up.
	inline := strings.Repeat("A", 11<<20)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, multipartRequest(t, "", "", nil, map[string]string{"image": inline}))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeError(t, resp)
	if body.Code != "image_too_large" || body.Message != "Image too large" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestIsTooLarge(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "max bytes", err: &http.MaxBytesError{Limit: 1}, want: true},
		{name: "multipart memory", err: multipart.ErrMessageTooLarge, want: true},
		{name: "wrapped multipart memory", err: fmt.Errorf("parse form: %w", multipart.ErrMessageTooLarge), want: true},
		{name: "flattened message", err: errors.New("http: request body too large"), want: true},
		{name: "other", err: errors.New("unexpected EOF"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTooLarge(tt.err); got != tt.want {
				t.Fatalf("isTooLarge(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
