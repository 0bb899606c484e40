package cms

import (
	"net/http"
	"testing"
)

func TestCreatePostRequiresSession(t *testing.T) {
	a, _ := newTestApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "Nope",
		"content": "body",
	}, nil)
	rec := do(a, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rec.Code)
	}
}

func TestCreatePostWithImage(t *testing.T) {
	a, assets := newTestApp(t)
	cookies := loginAsAdmin(t, a)

	req := multipartRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "A Picture Post",
		"content": "body",
		"excerpt": "short",
	}, []byte("pretend-image-bytes"))
	rec := do(a, withCookies(req, cookies))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var post Post
	decodeBody(t, rec, &post)
	if post.Slug != "a-picture-post" {
		t.Errorf("Slug = %q", post.Slug)
	}
	if post.FeaturedImage != "/public/uploads/livingwater-blog/fake-0.jpg" {
		t.Errorf("FeaturedImage = %q", post.FeaturedImage)
	}
	if len(assets.uploads) != 1 || assets.uploads[0] != assetFolder {
		t.Errorf("uploads = %v", assets.uploads)
	}
}

func TestCreatePostUploadFailureAbortsWrite(t *testing.T) {
	a, assets := newTestApp(t)
	cookies := loginAsAdmin(t, a)
	assets.failUpload = true

	req := multipartRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "Doomed Upload",
		"content": "body",
	}, []byte("pretend-image-bytes"))
	rec := do(a, withCookies(req, cookies))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", rec.Code)
	}

	// The post was never written.
	rec = do(a, withCookies(jsonRequest(http.MethodGet, "/api/admin/posts", nil), cookies))
	var posts []Post
	decodeBody(t, rec, &posts)
	if len(posts) != 0 {
		t.Errorf("post should not exist after failed upload, got %d posts", len(posts))
	}
}

func TestCreatePostDuplicateTitleConflicts(t *testing.T) {
	a, _ := newTestApp(t)
	cookies := loginAsAdmin(t, a)

	fields := map[string]string{"title": "Same Title", "content": "body"}
	if rec := do(a, withCookies(multipartRequest(t, http.MethodPost, "/api/posts", fields, nil), cookies)); rec.Code != http.StatusCreated {
		t.Fatalf("first create: status %d", rec.Code)
	}
	rec := do(a, withCookies(multipartRequest(t, http.MethodPost, "/api/posts", fields, nil), cookies))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("second create: status %d, want 400", rec.Code)
	}
}

func TestUpdatePostLeavesSlugAlone(t *testing.T) {
	a, _ := newTestApp(t)
	cookies := loginAsAdmin(t, a)

	rec := do(a, withCookies(multipartRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "First Title",
		"content": "original",
	}, nil), cookies))
	var post Post
	decodeBody(t, rec, &post)

	// Update only the content; title and slug stay put.
	rec = do(a, withCookies(multipartRequest(t, http.MethodPut, "/api/posts/"+post.ID, map[string]string{
		"content": "revised",
	}, nil), cookies))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}
	var updated Post
	decodeBody(t, rec, &updated)
	if updated.Slug != "first-title" || updated.Title != "First Title" {
		t.Errorf("slug/title = %q / %q", updated.Slug, updated.Title)
	}
	if updated.Content != "revised" {
		t.Errorf("Content = %q", updated.Content)
	}

	// Even a changed title leaves the original slug in place.
	rec = do(a, withCookies(multipartRequest(t, http.MethodPut, "/api/posts/"+post.ID, map[string]string{
		"title": "Second Title",
	}, nil), cookies))
	decodeBody(t, rec, &updated)
	if updated.Slug != "first-title" {
		t.Errorf("Slug = %q, must not be rederived on update", updated.Slug)
	}
}

func TestDeletePostCleansUpAsset(t *testing.T) {
	a, assets := newTestApp(t)
	cookies := loginAsAdmin(t, a)

	rec := do(a, withCookies(multipartRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "Has An Image",
		"content": "body",
	}, []byte("pretend-image-bytes")), cookies))
	var post Post
	decodeBody(t, rec, &post)

	rec = do(a, withCookies(jsonRequest(http.MethodDelete, "/api/posts/"+post.ID, nil), cookies))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if len(assets.deletes) != 1 || assets.deletes[0] != "livingwater-blog/fake-0" {
		t.Errorf("deletes = %v", assets.deletes)
	}
}

func TestDeletePostSurvivesAssetFailure(t *testing.T) {
	a, assets := newTestApp(t)
	cookies := loginAsAdmin(t, a)

	rec := do(a, withCookies(multipartRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "Unreliable Store",
		"content": "body",
	}, []byte("pretend-image-bytes")), cookies))
	var post Post
	decodeBody(t, rec, &post)

	assets.failDelete = true
	rec = do(a, withCookies(jsonRequest(http.MethodDelete, "/api/posts/"+post.ID, nil), cookies))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete must not fail with the asset store down: status %d", rec.Code)
	}
	if len(assets.deletes) != 1 {
		t.Errorf("asset deletion should have been attempted, deletes = %v", assets.deletes)
	}

	// The record is gone regardless.
	rec = do(a, withCookies(jsonRequest(http.MethodGet, "/api/admin/posts/"+post.ID, nil), cookies))
	if rec.Code != http.StatusNotFound {
		t.Errorf("lookup after delete: status %d, want 404", rec.Code)
	}
}

func TestPublicListAndSlugLookup(t *testing.T) {
	a, _ := newTestApp(t)
	cookies := loginAsAdmin(t, a)

	if rec := do(a, withCookies(multipartRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title":   "Public Post",
		"content": "body",
	}, nil), cookies)); rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}

	rec := do(a, httptestGet("/api/posts"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var page PostPage
	decodeBody(t, rec, &page)
	if len(page.Posts) != 1 || page.TotalPages != 1 || page.CurrentPage != 1 {
		t.Errorf("page = %+v", page)
	}

	rec = do(a, httptestGet("/api/posts/slug/public-post"))
	if rec.Code != http.StatusOK {
		t.Fatalf("slug lookup: status %d", rec.Code)
	}

	rec = do(a, httptestGet("/api/posts/slug/missing"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing slug: status %d, want 404", rec.Code)
	}
}

func TestContactFlow(t *testing.T) {
	a, _ := newTestApp(t)

	rec := do(a, jsonRequest(http.MethodPost, "/api/contact", map[string]string{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"message": "Hello there",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d, body %s", rec.Code, rec.Body.String())
	}

	// Missing required fields are rejected.
	rec = do(a, jsonRequest(http.MethodPost, "/api/contact", map[string]string{"name": "No Message"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid submit: status %d, want 400", rec.Code)
	}

	// Reading the inbox needs a session.
	if rec := do(a, jsonRequest(http.MethodGet, "/api/contact", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous inbox read: status %d, want 401", rec.Code)
	}
	cookies := loginAsAdmin(t, a)
	rec = do(a, withCookies(jsonRequest(http.MethodGet, "/api/contact", nil), cookies))
	if rec.Code != http.StatusOK {
		t.Fatalf("inbox read: status %d", rec.Code)
	}
	var msgs []ContactMessage
	decodeBody(t, rec, &msgs)
	if len(msgs) != 1 || msgs[0].Name != "Visitor" {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	a, _ := newTestApp(t)
	cookies := loginAsAdmin(t, a)

	rec := do(a, withCookies(jsonRequest(http.MethodPost, "/api/categories", map[string]string{
		"name":        "Faith",
		"description": "Articles about faith",
	}), cookies))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	var cat Category
	decodeBody(t, rec, &cat)

	if rec := do(a, httptestGet("/api/categories/faith")); rec.Code != http.StatusOK {
		t.Errorf("public get: status %d", rec.Code)
	}
	if rec := do(a, jsonRequest(http.MethodPost, "/api/categories", map[string]string{"name": "X"})); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: status %d, want 401", rec.Code)
	}

	rec = do(a, withCookies(jsonRequest(http.MethodDelete, "/api/categories/"+cat.ID, nil), cookies))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec := do(a, httptestGet("/api/categories/faith")); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	a, _ := newTestApp(t)

	for i := 0; i < 2; i++ {
		if rec := do(a, jsonRequest(http.MethodPost, "/api/seed", nil)); rec.Code != http.StatusOK {
			t.Fatalf("seed run %d: status %d", i, rec.Code)
		}
	}
	rec := do(a, httptestGet("/api/categories"))
	var cats []Category
	decodeBody(t, rec, &cats)
	if len(cats) != 3 {
		t.Errorf("len = %d, want 3 seeded categories", len(cats))
	}
}
