package dashboard

// CSS selectors for the analytics dashboard. The vendor ships generated
// class names, so most selectors match the full class attribute exactly.
const (
	// Login page
	SelectorEmailInput    = `input[name="email"]`
	SelectorPasswordInput = `input[name="password"]`
	SelectorLoginButton   = `button[type="submit"]`

	// Domain overview
	SelectorKeywordsHeader = `h4[class="css-a5m6co-text css-p8ym46-fontFamily css-11397xj-fontSize css-1wmho6b-fontWeight css-mun6jo-color css-15qzf5r-display"]`

	// Countries dropdown
	SelectorCountriesToggle = `div[class="css-1m3jbw6-dropdown css-mkifqh-dropdownMenuWidth css-1sspey-dropdownWithControl"] > button`
	SelectorCountryRow      = `div[class="css-131jr5s-row css-13wqkl7-row css-13n3pes-rowLayout css-87ebjr-rowAlign"]`
	SelectorCountryName     = `div[class="css-a5m6co-text css-p8ym46-fontFamily css-11397xj-fontSize css-15qzf5r-display"]`
	// Counts are rendered as a badge for most rows and as plain text for the
	// rest.
	SelectorCountBadge = `div[class="css-1ckph53-badge css-z4csn1-ghost css-m40bx0-rounded css-1wh4hpic-padding css-xtgw0q-height-medium"]`
	SelectorCountText  = `div[class="css-a5m6co-text css-10st79w-fontFamily css-1s1cif8-fontSize css-15qzf5r-display"]`
)

// LimitReachedPattern is the JS regex matched against the page body when the
// account has used its daily quota.
const LimitReachedPattern = `Sorry! your daily`
