package constants

// Change feed providers
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Keys persisted in the local durable store. Nothing else is stored locally.
const (
	LocalKeyFavorites          = "favorites"
	LocalKeyActiveConversation = "active_conversation"
	LocalKeyLanguage           = "language"
)

// DefaultCurrency is applied to listings stored without a currency code
const DefaultCurrency = "€"
