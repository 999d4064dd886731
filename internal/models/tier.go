package models

// TierInfo is the display form of a content tier.
type TierInfo struct {
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

func tierIcon(id string) *string {
	url := "https://media.valorant-api.com/contenttiers/" + id + "/displayicon.png"
	return &url
}

var tiers = map[string]TierInfo{
	"0cebb8be-46d7-c12a-d306-e9907bfc5a25": {Name: "Deluxe Edition", Icon: tierIcon("0cebb8be-46d7-c12a-d306-e9907bfc5a25")},
	"e046854e-406c-37f4-6607-19a9ba8426fc": {Name: "Exclusive Edition", Icon: tierIcon("e046854e-406c-37f4-6607-19a9ba8426fc")},
	"60bca009-4182-7998-dee7-b8a2558dc369": {Name: "Premium Edition", Icon: tierIcon("60bca009-4182-7998-dee7-b8a2558dc369")},
	"12683d76-48d7-84a3-4e09-6985794f0445": {Name: "Select Edition", Icon: tierIcon("12683d76-48d7-84a3-4e09-6985794f0445")},
	"411e4a55-4e59-7757-41f0-86a53f101bb5": {Name: "Ultra Edition", Icon: tierIcon("411e4a55-4e59-7757-41f0-86a53f101bb5")},
}

// LookupTier maps a tier id to its display form. Unknown ids have no icon.
func LookupTier(id string) TierInfo {
	if info, ok := tiers[id]; ok {
		return info
	}
	return TierInfo{Name: UnknownTier}
}
