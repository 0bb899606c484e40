package cms

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (a *App) handleListPosts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))
	if pageSize < 1 {
		pageSize = 10
	}
	result, err := a.Store.ListPublishedPosts(c.QueryParam("category"), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (a *App) handleGetPostBySlug(c echo.Context) error {
	post, err := a.Store.GetPostBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Post not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminListPosts(c echo.Context) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleAdminGetPost(c echo.Context) error {
	post, err := a.Store.GetPostByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Post not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// postForm parses the request body (multipart or urlencoded) and
// returns the form values. Key presence in the returned values is what
// distinguishes an omitted field from one cleared to empty.
func postForm(c echo.Context) (url.Values, error) {
	req := c.Request()
	if err := req.ParseMultipartForm(maxUploadSize); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
	}
	return req.PostForm, nil
}

// uploadImage reads the optional featuredImage part and pushes it to
// the asset store. Returns "" when no file was supplied. An upload
// failure aborts the enclosing create/update.
func (a *App) uploadImage(c echo.Context) (string, error) {
	file, err := c.FormFile("featuredImage")
	if err != nil {
		// no file part in the request
		return "", nil
	}
	if file.Size > maxUploadSize {
		return "", echo.NewHTTPError(http.StatusBadRequest, "File too large (max 10MB)")
	}
	data, err := readMultipartFile(file)
	if err != nil {
		return "", err
	}
	imageURL, err := a.Assets.Upload(c.Request().Context(), data, assetFolder)
	if err != nil {
		return "", errors.Join(ErrAssetUpstream, err)
	}
	return imageURL, nil
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func (a *App) handleCreatePost(c echo.Context) error {
	form, err := postForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	title := form.Get("title")
	content := form.Get("content")
	if title == "" || content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Title and content are required"})
	}

	imageURL, err := a.uploadImage(c)
	if err != nil {
		return err
	}

	post, err := a.Store.CreatePost(Post{
		Title:         title,
		Content:       content,
		Excerpt:       form.Get("excerpt"),
		CategoryID:    form.Get("category"),
		Author:        form.Get("author"),
		FeaturedImage: imageURL,
		Published:     true,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

func (a *App) handleUpdatePost(c echo.Context) error {
	form, err := postForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	// Only fields present in the form are written; absent keys leave the
	// stored values untouched. Note the slug is never rederived from an
	// updated title.
	var patch PostPatch
	if v, ok := formValue(form, "title"); ok {
		patch.Title = &v
	}
	if v, ok := formValue(form, "content"); ok {
		patch.Content = &v
	}
	if v, ok := formValue(form, "excerpt"); ok {
		patch.Excerpt = &v
	}
	if v, ok := formValue(form, "category"); ok {
		patch.CategoryID = &v
	}
	if v, ok := formValue(form, "author"); ok {
		patch.Author = &v
	}
	if v, ok := formValue(form, "published"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			patch.Published = &b
		}
	}

	// A replacement image only swaps the reference; the previous asset
	// stays in the store until the post itself is deleted.
	imageURL, err := a.uploadImage(c)
	if err != nil {
		return err
	}

	post, err := a.Store.UpdatePost(c.Param("id"), patch, imageURL)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Post not found"})
		case errors.Is(err, ErrConflict):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func formValue(form url.Values, key string) (string, bool) {
	vals, ok := form[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (a *App) handleDeletePost(c echo.Context) error {
	id := c.Param("id")
	post, err := a.Store.GetPostByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Post not found"})
		}
		return err
	}

	// Best-effort asset cleanup. A failing asset store must never block
	// removal of the post record.
	if post.FeaturedImage != "" {
		assetID := AssetPublicID(post.FeaturedImage, assetFolder)
		if err := a.Assets.Delete(c.Request().Context(), assetID); err != nil {
			c.Logger().Warnf("delete asset %s: %v", assetID, err)
		}
	}

	if err := a.Store.DeletePost(id); err != nil {
		return err
	}
	if sess, ok := requestSession(c); ok {
		c.Logger().Infof("post %s deleted by %s", id, sess.Username)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted"})
}
