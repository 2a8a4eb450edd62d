package recipe

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

// MaxImageSize bounds an upload-image request body.
const MaxImageSize = 10 << 20

const imageDir = "uploads/recipe"

const invalidImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// detectImage returns the decoded format name ("jpeg", "png", "gif").
func detectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", types.NewValidationError("image", "The submitted file is empty.")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", types.NewValidationError("image", invalidImageMessage)
	}
	return format, nil
}

// imageKey builds uploads/recipe/<uuid>.<ext>, keeping the client's extension
// when it has one.
func imageKey(filename, format string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(filename)), "."))
	if ext == "" || strings.ContainsAny(ext, `/\ `) {
		ext = format
		if ext == "jpeg" {
			ext = "jpg"
		}
	}
	return path.Join(imageDir, uuid.NewString()+"."+ext)
}
