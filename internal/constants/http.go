package constants

import "time"

// HTTP Server Timeouts
const (
	HTTPIdleTimeoutSecs = 120
	HTTPIdleTimeout     = HTTPIdleTimeoutSecs * time.Second
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// HTTP Header Names
const (
	HeaderContentType  = "Content-Type"
	HeaderCacheControl = "Cache-Control"
	HeaderRequestID    = "X-Request-ID"
)

// Route path values
const (
	PathValueProject = "project"
	PathValueFolder  = "folder"
	PathValueTask    = "task"
)

// Request parameters
const (
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamTokenSelect  = "token_select"
	ParamTokenVerify  = "token_verify"
	ParamTokenRenew   = "token_renew"
	ParamTitle        = "title"
	ParamDescription  = "description"
	ParamDatetimeFrom = "datetime_from"
	ParamDatetimeDue  = "datetime_due"
)

// Rate limiting
const (
	DefaultTokenRateLimit = "30-M"
)
