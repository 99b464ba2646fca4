package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeySessionID          = "sessionId"
	KeyProcess            = "process"
	KeyToken              = "token"
	KeyEmail              = "email"
	KeyTag                = "tag"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyResponseStatus     = "responseStatus"
	KeyConfig             = "config"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyPathValues         = "pathValues"
	KeyStorageKey         = "storageKey"
	KeyCacheKey           = "cacheKey"
	KeyDbURL              = "dbUrl"
	KeyUserID             = "userId"
	KeyCart               = "cart"
	KeyCartItems          = "cartItems"
	KeyCartTotalItems     = "cartTotalItems"
	KeyCartTotalPrice     = "cartTotalPrice"
	KeyProductID          = "productId"
	KeyQuantity           = "quantity"
	KeyOrderID            = "orderId"
	KeyOrder              = "order"
	KeyOrders             = "orders"
	KeyOrderStatus        = "orderStatus"
	KeyPricing            = "pricing"
)
