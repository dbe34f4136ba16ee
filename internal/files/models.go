package files

// UploadURLRequest asks for a presigned upload URL for one media file.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	MaxSize     int64  `json:"max_size,omitempty"`
}

// UploadURLResponse carries the presigned upload URL. The client PUTs the
// bytes to UploadURL and attaches FileKey to its post.
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresAt int64  `json:"expires_at"`
}

// DownloadURLRequest asks for a presigned download URL for a stored key.
type DownloadURLRequest struct {
	FileKey string `json:"file_key" binding:"required"`
}

// DownloadURLResponse carries the presigned download URL.
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   int64  `json:"expires_at"`
}

// ErrorResponse is the error envelope for all files endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	MaxFilenameLength = 255
	MaxFileSize       = 100 * 1024 * 1024
)

// AllowedContentTypes is the whitelist of media types a post may attach.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"video/webm": true,
	"audio/mpeg": true,
}
