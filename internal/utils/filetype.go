package utils

import (
	"path/filepath"
	"strings"
)

var extContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".avif": "image/avif",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
}

// ContentTypeFromExt guesses a MIME type from the key's extension.
func ContentTypeFromExt(key string) string {
	if t, ok := extContentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return t
	}
	return "application/octet-stream"
}

// TypeTag is the lowercase text after the last ".", or the whole key
// lowercased when there is none.
func TypeTag(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return strings.ToLower(key[i+1:])
	}
	return strings.ToLower(key)
}

// PreviewKind names the inline viewer for a content type, or "" when the
// file can only be downloaded.
func PreviewKind(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	case contentType == "application/pdf":
		return "pdf"
	case isTextType(contentType):
		return "text"
	default:
		return ""
	}
}

func isTextType(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		contentType == "application/json" ||
		contentType == "application/xml" ||
		contentType == "application/javascript"
}
