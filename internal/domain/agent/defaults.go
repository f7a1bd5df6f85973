package agent

// DefaultProfiles returns the built-in agent templates without referral codes.
// Referral codes are injected from configuration at startup.
func DefaultProfiles() []Profile {
	return []Profile{
		{ID: "cnfans", DisplayName: "CNFans", BaseURL: "https://cnfans.com", Kind: KindQueryIDType, ReferralParam: "ref"},
		{ID: "mulebuy", DisplayName: "Mulebuy", BaseURL: "https://mulebuy.com", Kind: KindQueryIDType, ReferralParam: "ref"},
		{ID: "litbuy", DisplayName: "LitBuy", BaseURL: "https://www.litbuy.com", Kind: KindQueryIDType, ReferralParam: "ref"},
		{ID: "orientdig", DisplayName: "OrientDig", BaseURL: "https://orientdig.com", Kind: KindQueryIDType, ReferralParam: "ref"},
		{
			ID: "joyagoo", DisplayName: "JoyaGoo", BaseURL: "https://joyagoo.com", Kind: KindQueryIDType,
			Path: "/index/item/index.html", PlatformParam: "tp", ReferralParam: "ref",
		},
		{ID: "kakobuy", DisplayName: "KakoBuy", BaseURL: "https://www.kakobuy.com", Kind: KindEncodedSourceURL, ReferralParam: "aff"},
		{
			ID: "superbuy", DisplayName: "Superbuy", BaseURL: "https://www.superbuy.com", Kind: KindEncodedSourceURL,
			Path: "/en/page/buy?nTag=Home-search&from=search-input", ReferralParam: "partnercode",
		},
		{
			ID: "sugargoo", DisplayName: "Sugargoo", BaseURL: "https://www.sugargoo.com", Kind: KindEncodedSourceURL,
			Path: "/#/home/productDetail?", URLParam: "productLink", ReferralParam: "memberId",
		},
	}
}
