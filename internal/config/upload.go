package config

import "time"

// UploadConfig holds the server-side upload policy.
type UploadConfig struct {
	MaxFileSize      int64
	MaxFiles         int
	AllowedMimeTypes []string
	AllowedFolders   []string
	DefaultFolder    string
	SignedURLTTL     time.Duration
}

// LoadUploadConfig reads UPLOAD_* variables.  The defaults allow 5MB images
// (jpeg, png, webp) and PDFs into the fixed folder set.
func LoadUploadConfig() UploadConfig {
	return UploadConfig{
		MaxFileSize:      envInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024),
		MaxFiles:         envInt("UPLOAD_MAX_FILES", 10),
		AllowedMimeTypes: splitList(envStr("UPLOAD_ALLOWED_TYPES", "image/jpeg,image/png,image/webp,application/pdf")),
		AllowedFolders:   splitList(envStr("UPLOAD_FOLDERS", "spaces,leads,users,documents,uploads")),
		DefaultFolder:    envStr("UPLOAD_DEFAULT_FOLDER", "uploads"),
		SignedURLTTL:     envDur("UPLOAD_SIGNED_URL_TTL", time.Hour),
	}
}
