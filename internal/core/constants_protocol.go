package core

// Default config constants
const (
	DefaultPort      = "3001"
	DefaultGinMode   = "release"
	DefaultRateLimit = 120
	CORSMaxAge       = "86400"
)

// Content type and header constants
const (
	ContentTypeEventStream = "text/event-stream"
	ContentTypeJSON        = "application/json"
	ContentTypeHTML        = "text/html; charset=utf-8"
	CacheControlNoCache    = "no-cache"
	ConnectionKeepAlive    = "keep-alive"
	HeaderContentType      = "Content-Type"
	HeaderAuthorization    = "Authorization"
	HeaderAccept           = "Accept"
	HeaderCacheControl     = "Cache-Control"
	HeaderConnection       = "Connection"
	HeaderXAPIKey          = "x-api-key"
	AuthBearerPrefix       = "Bearer "
)

// SSE stream constants
const (
	StreamChunkDoneMessage = "[DONE]"
	StreamChunkPrefix      = "data: "
)

// Role constants
const (
	RoleUser   = "user"
	RoleSystem = "system"
)
