package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/config"
	"github.com/coworkdir/admin-api/internal/storage"
)

const maxPresignTTL = 7 * 24 * time.Hour

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// UploadFile is one file taken from a multipart request.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

type UploadResult struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimeType"`
	OriginalName string `json:"originalName"`
}

type SignedURL struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}

type PresignedUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}

// UploadService checks files against the upload policy and stores them in
// the bucket.  A nil store makes every call fail with "Storage is not
// configured".
type UploadService struct {
	store storage.BlobStore
	cfg   config.UploadConfig
	log   *zap.Logger
	now   func() time.Time
}

func NewUploadService(store storage.BlobStore, cfg config.UploadConfig, log *zap.Logger) *UploadService {
	return &UploadService{store: store, cfg: cfg, log: log, now: time.Now}
}

func (s *UploadService) ready() error {
	if s.store == nil {
		return &apperr.Error{Kind: apperr.KindUnexpected, Message: "Storage is not configured", Err: storage.ErrNotConfigured}
	}
	return nil
}

// Upload sniffs the content type from the bytes, never from the client's
// header, and stores the file under folder.
func (s *UploadService) Upload(ctx context.Context, folder string, f UploadFile) (UploadResult, error) {
	if err := s.ready(); err != nil {
		return UploadResult{}, err
	}
	folder, err := s.folder(folder)
	if err != nil {
		return UploadResult{}, err
	}
	return s.put(ctx, folder, f)
}

// UploadMany stores every file or none: on failure the files already
// stored are removed again.
func (s *UploadService) UploadMany(ctx context.Context, folder string, files []UploadFile) ([]UploadResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	folder, err := s.folder(folder)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.Validation("No files uploaded")
	}
	if len(files) > s.cfg.MaxFiles {
		return nil, apperr.Validation(fmt.Sprintf("Too many files. Maximum is %d", s.cfg.MaxFiles))
	}

	out := make([]UploadResult, 0, len(files))
	for _, f := range files {
		res, err := s.put(ctx, folder, f)
		if err != nil {
			for _, done := range out {
				if derr := s.store.Delete(ctx, done.Key); derr != nil {
					s.log.Warn("rollback delete failed", zap.String("key", done.Key), zap.Error(derr))
				}
			}
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *UploadService) put(ctx context.Context, folder string, f UploadFile) (UploadResult, error) {
	if f.Size <= 0 {
		return UploadResult{}, apperr.Validation(fmt.Sprintf("File %q is empty", f.Name))
	}
	if f.Size > s.cfg.MaxFileSize {
		return UploadResult{}, apperr.Validation(fmt.Sprintf("File too large. Maximum size is %dMB", s.cfg.MaxFileSize/(1024*1024)))
	}
	mt, err := mimetype.DetectReader(f.Content)
	if err != nil {
		return UploadResult{}, apperr.Unexpected(fmt.Errorf("sniff %s: %w", f.Name, err))
	}
	if !s.allowed(mt) {
		return UploadResult{}, apperr.Validation("Invalid file type. Allowed types: " + strings.Join(s.cfg.AllowedMimeTypes, ", "))
	}
	if _, err := f.Content.Seek(0, io.SeekStart); err != nil {
		return UploadResult{}, apperr.Unexpected(err)
	}

	key, err := s.objectKey(folder, f.Name)
	if err != nil {
		return UploadResult{}, apperr.Unexpected(err)
	}
	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	url, err := s.store.Put(ctx, key, f.Content, f.Size, contentType)
	if err != nil {
		return UploadResult{}, apperr.Unexpected(err)
	}
	s.log.Info("file uploaded", zap.String("key", key), zap.Int64("size", f.Size))
	return UploadResult{Key: key, URL: url, Size: f.Size, MimeType: contentType, OriginalName: f.Name}, nil
}

func (s *UploadService) allowed(mt *mimetype.MIME) bool {
	for _, a := range s.cfg.AllowedMimeTypes {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

func (s *UploadService) Delete(ctx context.Context, key string) error {
	if err := s.ready(); err != nil {
		return err
	}
	key, err := s.checkKey(key)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return apperr.Unexpected(err)
	}
	return nil
}

func (s *UploadService) DeleteMany(ctx context.Context, keys []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return apperr.Validation("At least one file key is required")
	}
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		k, err := s.checkKey(k)
		if err != nil {
			return err
		}
		clean = append(clean, k)
	}
	for _, k := range clean {
		if err := s.store.Delete(ctx, k); err != nil {
			return apperr.Unexpected(err)
		}
	}
	return nil
}

// SignedURL presigns a GET for key.  A zero ttl uses the configured
// default.
func (s *UploadService) SignedURL(ctx context.Context, key string, ttl time.Duration) (SignedURL, error) {
	if err := s.ready(); err != nil {
		return SignedURL{}, err
	}
	key, err := s.checkKey(key)
	if err != nil {
		return SignedURL{}, err
	}
	ttl, err = s.ttl(ttl)
	if err != nil {
		return SignedURL{}, err
	}
	u, err := s.store.SignedURL(ctx, key, ttl)
	if err != nil {
		return SignedURL{}, apperr.Unexpected(err)
	}
	return SignedURL{URL: u, ExpiresIn: int64(ttl / time.Second)}, nil
}

// PresignedPut reserves a key and returns a URL the browser uploads to
// directly.
func (s *UploadService) PresignedPut(ctx context.Context, folder, fileName, contentType string, ttl time.Duration) (PresignedUpload, error) {
	if err := s.ready(); err != nil {
		return PresignedUpload{}, err
	}
	folder, err := s.folder(folder)
	if err != nil {
		return PresignedUpload{}, err
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return PresignedUpload{}, apperr.Validation("Validation failed", apperr.FieldError{Field: "fileName", Message: "File name is required"})
	}
	if contentType == "" {
		return PresignedUpload{}, apperr.Validation("Validation failed", apperr.FieldError{Field: "contentType", Message: "Content type is required"})
	}
	if !slices.Contains(s.cfg.AllowedMimeTypes, contentType) {
		return PresignedUpload{}, apperr.Validation("Invalid file type. Allowed types: " + strings.Join(s.cfg.AllowedMimeTypes, ", "))
	}
	ttl, err = s.ttl(ttl)
	if err != nil {
		return PresignedUpload{}, err
	}
	key, err := s.objectKey(folder, fileName)
	if err != nil {
		return PresignedUpload{}, apperr.Unexpected(err)
	}
	u, err := s.store.PresignedPut(ctx, key, ttl)
	if err != nil {
		return PresignedUpload{}, apperr.Unexpected(err)
	}
	return PresignedUpload{Key: key, UploadURL: u, URL: s.store.ObjectURL(key), ExpiresIn: int64(ttl / time.Second)}, nil
}

func (s *UploadService) folder(f string) (string, error) {
	f = strings.Trim(strings.TrimSpace(f), "/")
	if f == "" {
		return s.cfg.DefaultFolder, nil
	}
	if !slices.Contains(s.cfg.AllowedFolders, f) {
		return "", apperr.Validation("Invalid folder. Allowed folders: " + strings.Join(s.cfg.AllowedFolders, ", "))
	}
	return f, nil
}

// checkKey only admits keys inside one of the upload folders.
func (s *UploadService) checkKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", apperr.Validation("Validation failed", apperr.FieldError{Field: "key", Message: "File key is required"})
	}
	dir, _, ok := strings.Cut(key, "/")
	if !ok || strings.Contains(key, "..") || !slices.Contains(s.cfg.AllowedFolders, dir) {
		return "", apperr.Validation("Invalid file key")
	}
	return key, nil
}

func (s *UploadService) ttl(d time.Duration) (time.Duration, error) {
	if d == 0 {
		d = s.cfg.SignedURLTTL
	}
	if d < time.Second || d > maxPresignTTL {
		return 0, apperr.Validation("expiresIn must be between 1 second and 7 days")
	}
	return d, nil
}

// objectKey renders <folder>/<name>_<unix millis>_<16 hex><ext>, with every
// non-alphanumeric character of the base name replaced by "_".
func (s *UploadService) objectKey(folder, original string) (string, error) {
	ext := path.Ext(original)
	base := strings.TrimSuffix(path.Base(original), ext)
	base = unsafeNameChars.ReplaceAllString(base, "_")
	ext = strings.ToLower(unsafeNameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), ""))
	if ext != "" {
		ext = "." + ext
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s_%d_%s%s", folder, base, s.now().UnixMilli(), hex.EncodeToString(buf), ext), nil
}
