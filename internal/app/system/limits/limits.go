// internal/app/system/limits/limits.go
package limits

// Request body size limits. These keep an oversized body from being read
// into memory.
const (
	// MaxJSONBodySize caps every JSON request body.
	MaxJSONBodySize = 1 << 20 // 1 MB
)
