// Package images normalizes uploaded photos: fixed dimensions, JPEG output.
package images

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const jpegQuality = 90

var ErrNotAnImage = errors.New("not an image, please upload only images")

// saveResized decodes an uploaded file, crops it to cover width x height and
// writes it as a JPEG under dir.
func saveResized(file *multipart.FileHeader, dir, filename string, width, height int) error {
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image") {
		return ErrNotAnImage
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	img = imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(img, filepath.Join(dir, filename), imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// SaveUserPhoto stores a 500x500 profile photo and returns its filename
func SaveUserPhoto(file *multipart.FileHeader, userID int64, dir string) (string, error) {
	filename := fmt.Sprintf("user-%d-%s.jpeg", userID, uuid.NewString())
	if err := saveResized(file, dir, filename, 500, 500); err != nil {
		return "", err
	}
	return filename, nil
}

// SaveTourCover stores a 2000x1333 tour cover image and returns its filename
func SaveTourCover(file *multipart.FileHeader, tourID int64, dir string) (string, error) {
	filename := fmt.Sprintf("tour-%d-%s-cover.jpeg", tourID, uuid.NewString())
	if err := saveResized(file, dir, filename, 2000, 1333); err != nil {
		return "", err
	}
	return filename, nil
}

// SaveTourImage stores a 2000x1333 tour gallery image and returns its filename
func SaveTourImage(file *multipart.FileHeader, tourID int64, index int, dir string) (string, error) {
	filename := fmt.Sprintf("tour-%d-%s-%d.jpeg", tourID, uuid.NewString(), index+1)
	if err := saveResized(file, dir, filename, 2000, 1333); err != nil {
		return "", err
	}
	return filename, nil
}
