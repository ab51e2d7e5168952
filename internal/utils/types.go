package utils

// BatchEntry is a single line item of a batch YAML file.
type BatchEntry struct {
	Link          string `yaml:"link"`
	OutputPath    string `yaml:"op,omitempty"`
	Quality       string `yaml:"quality,omitempty"`
	AudioFormat   string `yaml:"format,omitempty"`
	SubtitleLangs string `yaml:"langs,omitempty"`
	CookieSource  string `yaml:"cookies,omitempty"`
}

// BatchFile groups entries by job type (video, audio, subs).
type BatchFile map[string][]BatchEntry
