package utils

import (
	"net/url"
	"path/filepath"
	"strings"
)

// DetectPlatform infers the hosting site from the URL host.
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return PlatformUnknown
	}
	host := strings.ToLower(u.Hostname())
	for _, entry := range platformHosts {
		if host == entry.domain || strings.HasSuffix(host, "."+entry.domain) {
			return entry.platform
		}
	}
	return PlatformUnknown
}

// TitleFromPath derives a display title from a downloaded file path.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NormalizeJobType maps the section names accepted in batch files onto
// download modes. Unknown names return an empty string.
func NormalizeJobType(jobType string) string {
	typeMap := map[string]string{
		"video":     "video",
		"videos":    "video",
		"yt":        "video",
		"youtube":   "video",
		"audio":     "audio",
		"music":     "audio",
		"mp3":       "audio",
		"subs":      "video+subtitles",
		"subtitles": "video+subtitles",
	}
	return typeMap[strings.ToLower(strings.TrimSpace(jobType))]
}
