package headers

import (
	"path"
	"strings"
)

// extToMIME is the fixed extension→MIME mapping of §4.6. Unknown
// extensions fall back to application/octet-stream.
var extToMIME = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".xml":  "application/xml",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".json": "application/json",
	".map":  "application/json",
	".wasm": "application/wasm",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".avif": "image/avif",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".eot":   "application/vnd.ms-fontobject",
	".xhtml": "application/xhtml+xml",
	".rss":   "application/rss+xml",
	".atom":  "application/atom+xml",
}

// ContentType returns the MIME type for name's extension, appending
// "; charset=utf-8" for text types, per §4.6.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	ct, ok := extToMIME[ext]
	if !ok {
		return "application/octet-stream"
	}
	if strings.HasPrefix(ct, "text/") {
		return ct + "; charset=utf-8"
	}
	return ct
}
