package conversation

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultTemplate = "llama_3"

const (
	vicunaSystem = "A chat between a curious user and an artificial intelligence assistant. " +
		"The assistant gives helpful, detailed, and polite answers to the user's questions."
	humanSystem = "A chat between a curious human and an artificial intelligence assistant. " +
		"The assistant gives helpful, detailed, and polite answers to the human's questions."
	visionSystem = "You are a helpful language and vision assistant. " +
		"You are able to understand the visual content that the user provides, " +
		"and assist the user with a variety of tasks using natural language."
)

func builtinTemplates() []Template {
	return []Template{
		{
			Name:   "llama_3",
			System: "<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n" + visionSystem,
			Roles: [2]string{
				"<|start_header_id|>user<|end_header_id|>\n\n",
				"<|start_header_id|>assistant<|end_header_id|>\n\n",
			},
			Style: SeparatorLlama3,
			Sep:   "<|eot_id|>",
		},
		{
			Name:   "vicuna_v1",
			System: vicunaSystem,
			Roles:  [2]string{"USER", "ASSISTANT"},
			Style:  SeparatorTwo,
			Sep:    " ",
			Sep2:   "</s>",
		},
		{
			Name:   "llava_v1",
			System: humanSystem,
			Roles:  [2]string{"USER", "ASSISTANT"},
			Style:  SeparatorTwo,
			Sep:    " ",
			Sep2:   "</s>",
		},
		{
			Name:   "llava_v0",
			System: humanSystem,
			Roles:  [2]string{"Human", "Assistant"},
			Style:  SeparatorSingle,
			Sep:    "###",
		},
		{
			Name:   "llava_llama_2",
			System: visionSystem,
			Roles:  [2]string{"USER", "ASSISTANT"},
			Style:  SeparatorLlama2,
			Sep:    "<s>",
			Sep2:   "</s>",
		},
		{
			Name:   "mpt",
			System: "<|im_start|>system\nA conversation between a user and an LLM-based AI assistant. The assistant gives helpful and honest answers.",
			Roles:  [2]string{"<|im_start|>user\n", "<|im_start|>assistant\n"},
			Style:  SeparatorMPT,
			Sep:    "<|im_end|>",
		},
		{
			Name:  "plain",
			Style: SeparatorPlain,
			Sep:   "\n",
		},
	}
}

var aliases = map[string]string{
	"v0":      "llava_v0",
	"v1":      "llava_v1",
	"llama_2": "llava_llama_2",
}

type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	for _, t := range builtinTemplates() {
		r.templates[t.Name] = t
	}
	for alias, name := range aliases {
		t := r.templates[name]
		t.Name = alias
		r.templates[alias] = t
	}
	return r
}

func (r *Registry) Register(t Template) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("template %q: %w", t.Name, err)
	}
	r.mu.Lock()
	r.templates[t.Name] = t
	r.mu.Unlock()
	return nil
}

func (r *Registry) Get(name string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return t, nil
}

// New returns an empty conversation bound to a copy of the named template.
func (r *Registry) New(name string) (*Conversation, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return New(t), nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) List() []Template {
	names := r.Names()
	out := make([]Template, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		out = append(out, r.templates[name])
	}
	return out
}

type templateFile struct {
	Templates []struct {
		Name     string   `yaml:"name"`
		System   string   `yaml:"system"`
		Roles    []string `yaml:"roles"`
		SepStyle string   `yaml:"sep_style"`
		Sep      string   `yaml:"sep"`
		Sep2     string   `yaml:"sep2"`
	} `yaml:"templates"`
}

// LoadFile registers every template in a YAML file, replacing builtins with
// the same name. Nothing is registered if any entry is invalid.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read templates: %w", err)
	}
	return r.Load(data)
}

func (r *Registry) Load(data []byte) (int, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse templates: %w", err)
	}

	parsed := make([]Template, 0, len(file.Templates))
	for _, entry := range file.Templates {
		style, err := ParseSeparatorStyle(entry.SepStyle)
		if err != nil {
			return 0, fmt.Errorf("template %q: %w", entry.Name, err)
		}
		if len(entry.Roles) != 2 {
			return 0, fmt.Errorf("template %q: %w: need exactly two roles", entry.Name, ErrInvalidTemplate)
		}
		t := Template{
			Name:   entry.Name,
			System: entry.System,
			Roles:  [2]string{entry.Roles[0], entry.Roles[1]},
			Style:  style,
			Sep:    entry.Sep,
			Sep2:   entry.Sep2,
		}
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("template %q: %w", entry.Name, err)
		}
		parsed = append(parsed, t)
	}

	r.mu.Lock()
	for _, t := range parsed {
		r.templates[t.Name] = t
	}
	r.mu.Unlock()
	return len(parsed), nil
}
