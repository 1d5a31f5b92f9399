// Package storage keeps uploaded recipe images on local disk.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"recipebox/internal/config"
	"recipebox/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "/vol/web/media"
	DefaultImageMaxUploadSizeMB = 10
	DefaultMediaURLPrefix       = "/media"

	// RecipeImageDir is the reference prefix of every stored recipe image.
	RecipeImageDir = "uploads/recipe"

	MasterMaxSize = 2048
	PreviewSize   = 640
	JPEGQuality   = 82
	WebPQuality   = 70
)

// ImageUpload is one uploaded file as received from the client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageStore turns uploaded bytes into an opaque reference and back.
type ImageStore interface {
	Save(ctx context.Context, in ImageUpload) (string, error)
	Remove(ctx context.Context, ref string) error
	URL(ref string) string
}

// LocalImageStore writes a normalized JPEG master and a WebP preview under
// root/uploads/recipe. References are slash-separated paths relative to root.
type LocalImageStore struct {
	root               string
	urlPrefix          string
	maxUploadSizeBytes int64
}

func NewLocalImageStore(cfg *config.Config) *LocalImageStore {
	root := DefaultImageUploadDir
	prefix := DefaultMediaURLPrefix
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			root = cfg.ImageUploadDir
		}
		if cfg.MediaURLPrefix != "" {
			prefix = cfg.MediaURLPrefix
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &LocalImageStore{
		root:               root,
		urlPrefix:          strings.TrimRight(prefix, "/"),
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Root is the directory served under the media URL prefix.
func (s *LocalImageStore) Root() string { return s.root }

func invalidImage(msg string) error {
	return models.NewFieldValidationError(map[string]string{"image": msg})
}

func (s *LocalImageStore) Save(_ context.Context, in ImageUpload) (string, error) {
	if len(in.Content) == 0 {
		return "", invalidImage("No file was submitted.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", invalidImage(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", invalidImage("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", invalidImage("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, decodedFormatToMime(format)) {
		return "", invalidImage("Image content type mismatch.")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	masterJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return "", err
	}
	previewWebP, err := encodeWebP(resizeToFit(master, PreviewSize, PreviewSize), WebPQuality)
	if err != nil {
		return "", err
	}

	name := uuid.NewString()
	ref := path.Join(RecipeImageDir, name+".jpg")
	written := []string{s.abs(ref), s.abs(previewRef(ref))}

	if err := writeBytesToFile(written[0], masterJPG); err != nil {
		return "", err
	}
	if err := writeBytesToFile(written[1], previewWebP); err != nil {
		cleanupImageFiles(written)
		return "", err
	}
	return ref, nil
}

// Remove deletes the master and preview for ref. Missing files are not an error.
func (s *LocalImageStore) Remove(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if !isValidRef(ref) {
		return fmt.Errorf("invalid image reference %q", ref)
	}
	for _, p := range []string{s.abs(ref), s.abs(previewRef(ref))} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// URL returns the public URL of ref, or "" when ref is empty.
func (s *LocalImageStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.urlPrefix + "/" + ref
}

func (s *LocalImageStore) abs(ref string) string {
	return filepath.Join(s.root, filepath.FromSlash(ref))
}

func previewRef(ref string) string {
	return strings.TrimSuffix(ref, path.Ext(ref)) + ".webp"
}

// isValidRef only accepts references this store produced, so Remove can
// never escape the upload directory.
func isValidRef(ref string) bool {
	if !strings.HasPrefix(ref, RecipeImageDir+"/") {
		return false
	}
	base := strings.TrimSuffix(strings.TrimPrefix(ref, RecipeImageDir+"/"), ".jpg")
	_, err := uuid.Parse(base)
	return err == nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	if provided == detected {
		return true
	}
	return provided == "image/jpg" && detected == "image/jpeg"
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(format) {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
