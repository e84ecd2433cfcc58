package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// URL prefix the upload directory is served under
	UploadURLPrefix = "/uploads"
	// Edge length of the square thumbnails
	ThumbnailSize = 300
)

// StoredImage is an uploaded image and its thumbnail, as public URLs.
type StoredImage struct {
	URL          string
	ThumbnailURL string
}

// SaveImage validates and stores an uploaded image under baseDir/subDir with
// a random name, and writes a square JPEG thumbnail next to it.
func SaveImage(baseDir, subDir, filename string, data []byte) (*StoredImage, error) {
	if err := ValidateImage(filename, int64(len(data))); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	dir := filepath.Join(baseDir, subDir)
	thumbDir := filepath.Join(dir, "thumbnails")
	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %v", thumbDir, err)
	}

	name := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(filename))
	if err := os.WriteFile(filepath.Join(dir, name+ext), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write file: %v", err)
	}

	thumb := imaging.Fill(img, ThumbnailSize, ThumbnailSize, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %v", err)
	}
	if err := os.WriteFile(filepath.Join(thumbDir, name+".jpg"), buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to save thumbnail: %v", err)
	}

	sub := filepath.ToSlash(subDir)
	return &StoredImage{
		URL:          fmt.Sprintf("%s/%s/%s%s", UploadURLPrefix, sub, name, ext),
		ThumbnailURL: fmt.Sprintf("%s/%s/thumbnails/%s.jpg", UploadURLPrefix, sub, name),
	}, nil
}

// RemoveUpload deletes a file previously returned by SaveImage. URLs outside
// the upload prefix are ignored.
func RemoveUpload(baseDir, url string) error {
	rel := strings.TrimPrefix(url, UploadURLPrefix+"/")
	if rel == url || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(baseDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
