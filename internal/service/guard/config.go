package guard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the guard's matching policy. Pattern order matters: the first
// pattern contained in the input wins.
type Config struct {
	Patterns  []string `yaml:"patterns"`
	Responses []string `yaml:"responses"`
}

var defaultPatterns = []string{
	"ignore all previous instructions",
	"ignore previous instructions",
	"disregard all previous",
	"forget everything",
	"new instructions",
	"you are now",
	"act as",
	"pretend to be",
	"roleplay as",
	"ignore your programming",
	"override your",
	"system prompt",
	"forget your instructions",
	"new personality",
	"change your personality",
	"you are chatgpt",
	"you are claude",
	"you are gpt",
	"become a",
	"transform into",
	"ignore all",
	"disregard previous",
	"previous instructions don't matter",
	"forget what you were told",
	"new directive",
	"override directive",
	"jailbreak",
	"developer mode",
	"sudo mode",
	"admin mode",
	"god mode",
	"unrestricted mode",
	"do anything now",
	"dan mode",
}

var defaultResponses = []string{
	"I'm sorry, but I can't change my core instructions. I am Mareen and I'll stay that way. Is there something else I can help with?",
	"No, I can't change my personality. I'm Mareen. What do you actually need help with?",
	"I'm Mareen and my identity doesn't change. Is there a genuine question I can help you with?",
	"Sorry, but I can't ignore my instructions. I'll always be Mareen. What else can I do for you?",
}

func DefaultConfig() Config {
	return Config{
		Patterns:  append([]string(nil), defaultPatterns...),
		Responses: append([]string(nil), defaultResponses...),
	}
}

// LoadConfig reads an optional YAML policy file. A missing file yields the
// defaults; an empty list in the file keeps the default for that list.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read guard config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse guard config: %w", err)
	}

	return cfg.normalize(), nil
}

// normalize lower-cases patterns, drops blanks and fills empty lists with
// the defaults.
func (c Config) normalize() Config {
	out := Config{}

	for _, p := range c.Patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out.Patterns = append(out.Patterns, p)
		}
	}
	for _, r := range c.Responses {
		r = strings.TrimSpace(r)
		if r != "" {
			out.Responses = append(out.Responses, r)
		}
	}

	def := DefaultConfig()
	if len(out.Patterns) == 0 {
		out.Patterns = def.Patterns
	}
	if len(out.Responses) == 0 {
		out.Responses = def.Responses
	}
	return out
}
