package generation

import "strings"

// KeywordStop ends generation once any keyword has been produced.
type KeywordStop struct {
	keywords []string
}

func NewKeywordStop(keywords ...string) KeywordStop {
	kept := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			kept = append(kept, k)
		}
	}
	return KeywordStop{keywords: kept}
}

func (k KeywordStop) Keywords() []string {
	return k.keywords
}

func (k KeywordStop) ShouldStop(text string) bool {
	_, ok := k.Cut(text)
	return ok
}

// Cut truncates text just after the earliest keyword.
func (k KeywordStop) Cut(text string) (string, bool) {
	end := -1
	for _, kw := range k.keywords {
		if i := strings.Index(text, kw); i >= 0 && (end < 0 || i+len(kw) < end) {
			end = i + len(kw)
		}
	}
	if end < 0 {
		return text, false
	}
	return text[:end], true
}

// TrimStop strips surrounding whitespace and exactly one trailing stop
// string.
func TrimStop(text, stop string) string {
	text = strings.TrimSpace(text)
	if stop != "" {
		text = strings.TrimSuffix(text, stop)
	}
	return strings.TrimSpace(text)
}
