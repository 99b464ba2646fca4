package http

const (
	HeaderContentType   = "Content-Type"
	HeaderValueJson     = "application/json"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-Id"
	HeaderSessionID     = "X-Session-Id"
	CookieSessionID     = "storefront_session"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
