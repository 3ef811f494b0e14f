package plans

// Entitlements are the feature flags a subscription tier unlocks. Other
// services cache these from plan events; keep the shape small and stable.
type Entitlements struct {
	Tier             string `json:"tier"`
	MaxLinks         int    `json:"max_links"` // <= 0 means unlimited
	BookingEnabled   bool   `json:"booking_enabled"`
	MessagingEnabled bool   `json:"messaging_enabled"`
	VerifiedBadge    bool   `json:"verified_badge"`
}

func ForTier(tier string) Entitlements {
	switch tier {
	case "pro":
		return Entitlements{
			Tier:             "pro",
			MaxLinks:         25,
			BookingEnabled:   true,
			MessagingEnabled: true,
		}
	case "creator":
		return Entitlements{
			Tier:             "creator",
			MaxLinks:         0,
			BookingEnabled:   true,
			MessagingEnabled: true,
			VerifiedBadge:    true,
		}
	default:
		return Entitlements{
			Tier:     "free",
			MaxLinks: 5,
		}
	}
}
