// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeySessionCreated   = "auth.session_created"
	KeyAccessDenied     = "auth.access_denied"

	// User
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"

	// Drafts / assets
	KeyDraftSaved      = "draft.saved"
	KeyDraftDeleted    = "draft.deleted"
	KeyDraftNotFound   = "draft.not_found"
	KeyAssetNotFound   = "asset.not_found"
	KeyAssetRegistered = "asset.registered"
	KeyFavoriteToggled = "asset.favorite_toggled"

	// Registration
	KeyRegistrationFailed   = "registration.failed"
	KeyRegistrationForked   = "registration.forked"
	KeyRegistrationConflict = "registration.already_registered"

	// Marketplace
	KeyListingCreated    = "listing.created"
	KeyListingCancelled  = "listing.cancelled"
	KeyListingNotFound   = "listing.not_found"
	KeyListingNotActive  = "listing.not_active"
	KeyListingPurchased  = "listing.purchased"
	KeyListingNotOwner   = "listing.not_owner"
	KeyListingSelfPurchase = "listing.self_purchase"

	// Generation
	KeyGenerationFailed = "generation.failed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// External services
	KeyExternalServiceFailed = "external.service_failed"
)
