package amazon

import (
	"net/url"
	"regexp"
	"strings"
)

const affiliateTag = "booktokviral-20"

// AffiliateLink returns the amazon.com product page for an ASIN with the
// affiliate tag attached.
func AffiliateLink(asin string) string {
	params := url.Values{
		"tag":      {affiliateTag},
		"linkCode": {"as2"},
		"camp":     {"1789"},
		"creative": {"9325"},
	}
	return "https://www.amazon.com/dp/" + asin + "?" + params.Encode()
}

// SearchLink returns an amazon.com search URL with the affiliate tag.
func SearchLink(term string) string {
	params := url.Values{
		"k":        {term},
		"tag":      {affiliateTag},
		"linkCode": {"as2"},
	}
	return "https://www.amazon.com/s?" + params.Encode()
}

// IsAmazonURL reports whether raw points at amazon.com or the amzn.to
// shortener.
func IsAmazonURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return strings.Contains(host, "amazon.com") || strings.Contains(host, "amzn.to")
}

var extractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)/asin/([A-Z0-9]{10})`),
	regexp.MustCompile(`(?i)asin=([A-Z0-9]{10})`),
}

// ExtractASIN pulls an ASIN out of an Amazon URL, or accepts a bare ASIN.
// Returns "" when nothing matches.
func ExtractASIN(input string) string {
	if ValidASIN(input) {
		return input
	}
	for _, p := range extractPatterns {
		if m := p.FindStringSubmatch(input); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}
