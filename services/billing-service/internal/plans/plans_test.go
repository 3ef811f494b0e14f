package plans

import "testing"

func TestForTier(t *testing.T) {
	free := ForTier("free")
	if free.Tier != "free" || free.BookingEnabled || free.MaxLinks != 5 {
		t.Fatalf("unexpected free entitlements: %+v", free)
	}

	pro := ForTier("pro")
	if !pro.BookingEnabled || pro.MaxLinks != 25 || pro.VerifiedBadge {
		t.Fatalf("unexpected pro entitlements: %+v", pro)
	}

	creator := ForTier("creator")
	if !creator.BookingEnabled || creator.MaxLinks > 0 || !creator.VerifiedBadge {
		t.Fatalf("unexpected creator entitlements: %+v", creator)
	}

	// Unknown tiers fall back to free.
	if got := ForTier("enterprise"); got.Tier != "free" {
		t.Fatalf("unknown tier should resolve to free, got %+v", got)
	}
}
