package torch

// mimeTypes maps lowercased filename extensions to MIME types for static
// file serving.
var mimeTypes = map[string]string{
	".css":   "text/css",
	".csv":   "text/csv",
	".gif":   "image/gif",
	".gz":    "application/gzip",
	".htm":   "text/html",
	".html":  "text/html",
	".ico":   "image/x-icon",
	".jpeg":  "image/jpeg",
	".jpg":   "image/jpeg",
	".js":    "application/javascript",
	".json":  "application/json",
	".md":    "text/markdown",
	".mjs":   "application/javascript",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
	".otf":   "font/otf",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".svg":   "image/svg+xml",
	".toml":  "application/toml",
	".ttf":   "font/ttf",
	".txt":   "text/plain",
	".wasm":  "application/wasm",
	".webp":  "image/webp",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".xml":   "application/xml",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".zip":   "application/zip",
}

// mimeTypeByExtension returns the MIME type of the lowercased ext. Unknown
// extensions map to application/octet-stream.
func mimeTypeByExtension(ext string) string {
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}

	return "application/octet-stream"
}
