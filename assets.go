package cms

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth  = 1200
	maxImageHeight = 800
	jpegQuality    = 80
	maxUploadSize  = 10 << 20 // 10MB

	// assetFolder namespaces every uploaded image inside the asset store.
	assetFolder = "livingwater-blog"
)

// AssetStore stores binary media and returns stable retrieval URLs.
// Upload failures abort the enclosing write; Delete is best-effort and
// callers swallow its errors.
type AssetStore interface {
	Upload(ctx context.Context, data []byte, folder string) (url string, err error)
	Delete(ctx context.Context, assetID string) error
}

// DiskAssetStore implements AssetStore on the local filesystem under
// root/uploads, serving files below urlPrefix. Images are decoded,
// downscaled to fit within maxImageWidth x maxImageHeight, and
// re-encoded as JPEG before being written.
type DiskAssetStore struct {
	root      string
	urlPrefix string
}

// NewDiskAssetStore creates a DiskAssetStore writing under
// staticDir/uploads and returning URLs below /public/uploads.
func NewDiskAssetStore(staticDir string) *DiskAssetStore {
	return &DiskAssetStore{
		root:      filepath.Join(staticDir, "uploads"),
		urlPrefix: "/public/uploads",
	}
}

// Upload processes the image bytes and writes them to disk. The
// returned URL's trailing segment (extension stripped) combined with
// folder is the asset identifier accepted by Delete.
func (d *DiskAssetStore) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := processImage(data)
	if err != nil {
		return "", err
	}
	name := uuid.NewString()
	dir := filepath.Join(d.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".jpg"), out, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return d.urlPrefix + "/" + folder + "/" + name + ".jpg", nil
}

// Delete removes the stored file for assetID (folder/name, no
// extension). A missing file is not an error.
func (d *DiskAssetStore) Delete(ctx context.Context, assetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(d.root, filepath.FromSlash(assetID)+".jpg")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// processImage decodes an image, downscales it to fit within the
// configured bounds without ever enlarging, and encodes it as JPEG.
func processImage(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth || h > maxImageHeight {
		scaleW := float64(maxImageWidth) / float64(w)
		scaleH := float64(maxImageHeight) / float64(h)
		scale := scaleW
		if scaleH < scale {
			scale = scaleH
		}
		newW := int(float64(w) * scale)
		newH := int(float64(h) * scale)
		if newW < 1 {
			newW = 1
		}
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
