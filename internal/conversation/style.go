package conversation

import (
	"fmt"
	"strings"
)

// SeparatorStyle selects how a template joins turns into a prompt.
type SeparatorStyle int

const (
	SeparatorSingle SeparatorStyle = iota
	SeparatorTwo
	SeparatorMPT
	SeparatorPlain
	SeparatorLlama2
	SeparatorLlama3
)

var styleNames = map[SeparatorStyle]string{
	SeparatorSingle: "single",
	SeparatorTwo:    "two",
	SeparatorMPT:    "mpt",
	SeparatorPlain:  "plain",
	SeparatorLlama2: "llama_2",
	SeparatorLlama3: "llama_3",
}

func (s SeparatorStyle) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SeparatorStyle(%d)", int(s))
}

func (s SeparatorStyle) Valid() bool {
	_, ok := styleNames[s]
	return ok
}

func ParseSeparatorStyle(v string) (SeparatorStyle, error) {
	want := strings.ToLower(strings.TrimSpace(v))
	for style, name := range styleNames {
		if name == want {
			return style, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStyle, v)
}

func (s SeparatorStyle) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStyle, int(s))
	}
	return []byte(s.String()), nil
}

func (s *SeparatorStyle) UnmarshalText(text []byte) error {
	style, err := ParseSeparatorStyle(string(text))
	if err != nil {
		return err
	}
	*s = style
	return nil
}
