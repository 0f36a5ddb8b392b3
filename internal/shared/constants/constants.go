package constants

const (
	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	DefaultCurrency = "USD"
	DefaultTier     = "free"

	HeaderAuthorization   = "Authorization"
	HeaderStripeSignature = "Stripe-Signature"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"

	// Database table names
	TableUsers         = "users"
	TablePlans         = "plans"
	TableSubscriptions = "subscriptions"
)
