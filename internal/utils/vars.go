package utils

const (
	DownloaderName     = "yt-dlp"
	DefaultHistoryJSON = ".yt-dlp-downloads.json"
	DefaultHistoryDB   = ".yt-dlp-history.db"
	DefaultConfigDir   = ".config/bingo"
)

const (
	PlatformYouTube   = "YouTube"
	PlatformBilibili  = "Bilibili"
	PlatformTwitter   = "Twitter/X"
	PlatformTikTok    = "TikTok/Douyin"
	PlatformVimeo     = "Vimeo"
	PlatformTwitch    = "Twitch"
	PlatformFacebook  = "Facebook"
	PlatformInstagram = "Instagram"
	PlatformUnknown   = "Unknown"
)

// platformHosts maps registrable domains to platform names. Matching is on
// the host itself or any subdomain of it.
var platformHosts = []struct {
	domain   string
	platform string
}{
	{"youtube.com", PlatformYouTube},
	{"youtu.be", PlatformYouTube},
	{"youtube-nocookie.com", PlatformYouTube},
	{"bilibili.com", PlatformBilibili},
	{"b23.tv", PlatformBilibili},
	{"twitter.com", PlatformTwitter},
	{"x.com", PlatformTwitter},
	{"tiktok.com", PlatformTikTok},
	{"douyin.com", PlatformTikTok},
	{"vimeo.com", PlatformVimeo},
	{"twitch.tv", PlatformTwitch},
	{"facebook.com", PlatformFacebook},
	{"fb.watch", PlatformFacebook},
	{"instagram.com", PlatformInstagram},
}
