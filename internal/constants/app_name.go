package constants

const (
	AppStorefront        = "storefront"
	AppStorefrontJanitor = "storefront-janitor"
	AppBackend           = "backend"
	AppMain              = "main storefront"
	AudienceUser         = "audience-user"
	AudienceAdmin        = "audience-admin"
	IssuerStorefront     = "storefront"
	IssuerBackend        = "backend"
)
