package config

import "strings"

// StorageConfig describes the S3-compatible bucket (Cloudflare R2 or MinIO).
// PublicURL, when set, is used to build permanent object URLs; otherwise
// the endpoint-style URL is returned.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string
}

// Configured reports whether enough settings exist to build a client.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

// LoadStorageConfig reads STORAGE_* variables, falling back to R2_* names.
func LoadStorageConfig() StorageConfig {
	endpoint := envStr("STORAGE_ENDPOINT", envStr("R2_ENDPOINT", ""))
	useSSL := envBool("STORAGE_USE_SSL", !strings.HasPrefix(endpoint, "http://"))
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return StorageConfig{
		Endpoint:  strings.TrimRight(endpoint, "/"),
		AccessKey: envStr("STORAGE_ACCESS_KEY", envStr("R2_ACCESS_KEY_ID", "")),
		SecretKey: envStr("STORAGE_SECRET_KEY", envStr("R2_SECRET_ACCESS_KEY", "")),
		Bucket:    envStr("STORAGE_BUCKET", envStr("R2_BUCKET_NAME", "")),
		Region:    envStr("STORAGE_REGION", "auto"),
		UseSSL:    useSSL,
		PublicURL: strings.TrimRight(envStr("STORAGE_PUBLIC_URL", envStr("R2_PUBLIC_URL", "")), "/"),
	}
}
