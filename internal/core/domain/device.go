package domain

// DeviceRegistration records the push tokens a single device holds for a
// user, keyed by push provider (e.g. "fcm", "apns").
type DeviceRegistration struct {
	ID             string            `json:"id" bson:"_id"`
	UserID         string            `json:"user_id" bson:"user_id"`
	ProviderTokens map[string]string `json:"provider_tokens" bson:"provider_tokens"`
}

// SharesTokenWith reports whether any (provider, token) pair of d is already
// present on other. Used during guest merge to detect a redundant
// registration that can be dropped instead of reassigned.
func (d *DeviceRegistration) SharesTokenWith(other *DeviceRegistration) bool {
	for provider, token := range d.ProviderTokens {
		if t, ok := other.ProviderTokens[provider]; ok && t == token {
			return true
		}
	}
	return false
}
