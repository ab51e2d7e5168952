package downloader

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tanq16/bingo/internal/validate"
	"github.com/tanq16/bingo/internal/ytdlp"
)

var (
	AudioFormats  = []string{"mp3", "wav", "m4a", "flac", "aac", "opus"}
	CookieSources = []string{"chrome", "firefox", "safari", "edge", "brave", "opera", "chromium", "vivaldi", ytdlp.NoCookies}
	Qualities     = []string{"best", "1080", "720", "480", "360"}
)

// Request is one caller request. It is passed by value and never modified
// after validation.
type Request struct {
	URL           string     `json:"url" validate:"required"`
	Mode          ytdlp.Mode `json:"mode" validate:"required,oneof=video audio video+subtitles list-formats"`
	Quality       string     `json:"quality,omitempty" validate:"omitempty,alphanum,max=16"`
	AudioFormat   string     `json:"audio_format,omitempty" validate:"omitempty,oneof=mp3 wav m4a flac aac opus"`
	SubtitleLangs string     `json:"subtitle_langs,omitempty" validate:"omitempty,max=128,langs"`
	CookieSource  string     `json:"cookie_source,omitempty" validate:"omitempty,oneof=chrome firefox safari edge brave opera chromium vivaldi none"`
	Destination   string     `json:"destination_path,omitempty"`
}

var langsPattern = regexp.MustCompile(`^[A-Za-z0-9_,.*-]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("langs", func(fl validator.FieldLevel) bool {
		return langsPattern.MatchString(fl.Field().String())
	})
	return v
}

// check applies the struct rules and the URL rules. The first failure is
// returned as a *validate.Error.
func (s *Service) check(req Request) error {
	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &validate.Error{Field: fe.Field(), Reason: reason(fe)}
		}
		return err
	}
	return validate.URL(req.URL)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "oneof":
		return fmt.Sprintf("%q is not one of [%s]", fe.Value(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("%q must be alphanumeric", fe.Value())
	case "max":
		return fmt.Sprintf("longer than %s characters", fe.Param())
	case "langs":
		return fmt.Sprintf("%q must be a comma separated list of language codes", fe.Value())
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}
