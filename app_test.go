package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeAssetStore records uploads and deletions so handler tests can
// assert on the asset lifecycle without touching disk or the network.
type fakeAssetStore struct {
	mu         sync.Mutex
	uploads    []string // folders passed to Upload
	deletes    []string // asset ids passed to Delete
	failUpload bool
	failDelete bool
	n          int
}

func (f *fakeAssetStore) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload {
		return "", errors.New("remote store unavailable")
	}
	f.uploads = append(f.uploads, folder)
	url := fmt.Sprintf("/public/uploads/%s/fake-%d.jpg", folder, f.n)
	f.n++
	return url, nil
}

func (f *fakeAssetStore) Delete(ctx context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, assetID)
	if f.failDelete {
		return errors.New("remote store unavailable")
	}
	return nil
}

func newTestApp(t *testing.T) (*App, *fakeAssetStore) {
	t.Helper()
	dir := t.TempDir()
	assets := &fakeAssetStore{}
	a := New(Config{
		DatabasePath:  filepath.Join(dir, "cms.db"),
		StaticDir:     filepath.Join(dir, "public"),
		AdminPassword: "admin123",
		SessionSecret: "test-session-secret",
	}, WithAssetStore(assets))
	if err := a.init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, assets
}

// do runs a request through the full middleware chain and returns the
// recorder.
func do(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func httptestGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// loginAsAdmin bootstraps the admin identity and returns the session
// cookies from a successful login.
func loginAsAdmin(t *testing.T, a *App) []*http.Cookie {
	t.Helper()
	if rec := do(a, jsonRequest(http.MethodPost, "/api/init-admin", nil)); rec.Code != http.StatusOK {
		t.Fatalf("init-admin: status %d, body %s", rec.Code, rec.Body.String())
	}
	rec := do(a, jsonRequest(http.MethodPost, "/api/login", map[string]string{
		"username": "admin",
		"password": "admin123",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}
	return cookies
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// multipartRequest builds a multipart form request with the given
// fields and an optional featuredImage file.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf strings.Builder
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("featuredImage", "upload.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	w.Close()
	req := httptest.NewRequest(method, path, strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
