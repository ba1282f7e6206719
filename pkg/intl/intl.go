package intl

import (
	"encoding/json"
	"sort"

	"golang.org/x/text/language"
)

type SupportedLanguage struct {
	Code        string
	VerboseName string
	Tag         language.Tag
}

var (
	PT = language.MustParse("pt-PT")
	EN = language.MustParse("en-GB")

	// SupportedLanguages is also the fallback order used by LocalizedString.Get.
	SupportedLanguages = []SupportedLanguage{
		{
			Code:        PT.String(),
			VerboseName: "Português",
			Tag:         PT,
		},
		{
			Code:        EN.String(),
			VerboseName: "English",
			Tag:         EN,
		},
	}
)

// LocalizedString maps a BCP 47 tag (pt-PT, en-GB) to its content.
type LocalizedString map[string]string

func NewLocalizedString() LocalizedString {
	return LocalizedString{}
}

// With returns a copy of s with content set for tag.
func (s LocalizedString) With(tag language.Tag, content string) LocalizedString {
	out := make(LocalizedString, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[tag.String()] = content
	return out
}

func (s LocalizedString) Content(tag language.Tag) (string, bool) {
	v, ok := s[tag.String()]
	return v, ok
}

// Get returns the content for the first tag present, trying the preferred tags
// and then SupportedLanguages in order.
func (s LocalizedString) Get(preferred ...language.Tag) string {
	for _, tag := range preferred {
		if v, ok := s.Content(tag); ok {
			return v
		}
	}
	for _, lang := range SupportedLanguages {
		if v, ok := s.Content(lang.Tag); ok {
			return v
		}
	}
	return ""
}

func (s LocalizedString) IsEmpty() bool {
	return len(s) == 0
}

func (s LocalizedString) Tags() []string {
	tags := make([]string, 0, len(s))
	for k := range s {
		tags = append(tags, k)
	}
	sort.Strings(tags)
	return tags
}

// JSON renders s the way it is logged, e.g. {"pt-PT":"Piso"}.
func (s LocalizedString) JSON() string {
	if s == nil {
		return "{}"
	}
	b, err := json.Marshal(map[string]string(s))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// GetSupportedLanguages returns a filtered list of supported languages based on the whitelist.
// If whitelist is nil or empty, returns all supported languages.
func GetSupportedLanguages(whitelist []string) []SupportedLanguage {
	if len(whitelist) == 0 {
		return SupportedLanguages
	}

	whitelistMap := make(map[string]bool)
	for _, code := range whitelist {
		whitelistMap[code] = true
	}

	filtered := make([]SupportedLanguage, 0, len(whitelist))
	for _, lang := range SupportedLanguages {
		if whitelistMap[lang.Code] {
			filtered = append(filtered, lang)
		}
	}

	return filtered
}
