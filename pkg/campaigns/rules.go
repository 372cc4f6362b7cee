package campaigns

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	MinTarget            = 100
	MaxTarget            = 1_000_000
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
)

const (
	PlatformYouTube   = "YouTube"
	PlatformInstagram = "Instagram"
	PlatformTikTok    = "TikTok"
	PlatformTwitter   = "Twitter/X"
	PlatformFacebook  = "Facebook"
	PlatformLinkedIn  = "LinkedIn"
	PlatformWebsite   = "Website"
	PlatformOther     = "Other"
)

var linkPattern = regexp.MustCompile(`^https?://.+\..+`)

// rates is the reward per action, in naira.
var rates = map[string]int64{
	"clicks":   5,
	"likes":    5,
	"views":    5,
	"follows":  15,
	"comments": 15,
	"shares":   15,
}

var platforms = map[string]bool{
	PlatformYouTube: true, PlatformInstagram: true, PlatformTikTok: true, PlatformTwitter: true,
	PlatformFacebook: true, PlatformLinkedIn: true, PlatformWebsite: true, PlatformOther: true,
}

var categories = map[string]bool{
	"entertainment": true, "education": true, "business": true,
	"lifestyle": true, "technology": true, "other": true,
}

// domains maps a host suffix to its platform.
var domains = []struct {
	suffix   string
	platform string
}{
	{"youtube.com", PlatformYouTube},
	{"youtu.be", PlatformYouTube},
	{"instagram.com", PlatformInstagram},
	{"tiktok.com", PlatformTikTok},
	{"twitter.com", PlatformTwitter},
	{"x.com", PlatformTwitter},
	{"facebook.com", PlatformFacebook},
	{"fb.com", PlatformFacebook},
	{"linkedin.com", PlatformLinkedIn},
}

// RateFor returns the per-action reward of an action type.
func RateFor(actionType string) (int64, bool) {
	rate, ok := rates[actionType]
	return rate, ok
}

// ComputeCost is the total budget of a campaign.
func ComputeCost(costPerAction, targetAmount int64) int64 {
	return costPerAction * targetAmount
}

// DetectPlatform infers the social platform from a link. Unknown hosts are
// websites and unparseable links are Other.
func DetectPlatform(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return PlatformOther
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		if host == d.suffix || strings.HasSuffix(host, "."+d.suffix) {
			return d.platform
		}
	}
	return PlatformWebsite
}

// ProofLink is the public profile URL an engagement's proof username points to.
func ProofLink(platform, username string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return ""
	}
	switch platform {
	case PlatformTwitter:
		return "https://x.com/" + url.PathEscape(username)
	case PlatformInstagram:
		return "https://instagram.com/" + url.PathEscape(username)
	case PlatformTikTok:
		return "https://tiktok.com/@" + url.PathEscape(username)
	default:
		return ""
	}
}
