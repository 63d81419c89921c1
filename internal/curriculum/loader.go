// Package curriculum loads per-topic wizard configuration from YAML files.
package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches topic configuration from the filesystem.
type Loader struct {
	rootDir     string
	topics      map[string]TopicConfig
	promptNotes map[string]string
	mu          sync.RWMutex
}

// NewLoader creates a loader and reads every config under rootDir.
// An empty rootDir yields a loader that returns defaults for every topic.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:     rootDir,
		topics:      make(map[string]TopicConfig),
		promptNotes: make(map[string]string),
	}
	if rootDir == "" {
		return l, nil
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "topics", len(l.topics), "prompt_notes", len(l.promptNotes))
	return l, nil
}

// Topic returns the config for a topic id, falling back to defaults when none exists.
func (l *Loader) Topic(id string) TopicConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if t, ok := l.topics[id]; ok {
		return t
	}
	return TopicConfig{ID: id}.withDefaults()
}

// HasTopic reports whether a config file exists for id.
func (l *Loader) HasTopic(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.topics[id]
	return ok
}

// PromptNotes returns the extra tutor instructions for a topic id.
func (l *Loader) PromptNotes(id string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.promptNotes[id]
	return n, ok
}

// AllTopics returns all loaded configs.
func (l *Loader) AllTopics() []TopicConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TopicConfig, 0, len(l.topics))
	for _, t := range l.topics {
		out = append(out, t)
	}
	return out
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, ".prompt.md"):
			return l.loadPromptNotes(path)
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			return l.loadTopic(path)
		}
		return nil
	})
}

func (l *Loader) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg TopicConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}

	if cfg.ID == "" {
		return nil // Not a topic file
	}

	for i, s := range cfg.Menu {
		if strings.TrimSpace(s.Section) == "" || len(s.Options) == 0 {
			slog.Warn("skipping topic with incomplete menu section", "path", path, "section_index", i)
			return nil
		}
	}

	l.mu.Lock()
	l.topics[cfg.ID] = cfg.withDefaults()
	l.mu.Unlock()

	return nil
}

func (l *Loader) loadPromptNotes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Derive topic ID from the matching YAML file.
	yamlPath := strings.TrimSuffix(path, ".prompt.md") + ".yaml"
	yamlData, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil // No matching YAML, skip
	}

	var partial struct {
		ID string `yaml:"id"`
	}
	if err := yaml.Unmarshal(yamlData, &partial); err != nil || partial.ID == "" {
		return nil
	}

	l.mu.Lock()
	l.promptNotes[partial.ID] = strings.TrimSpace(string(data))
	l.mu.Unlock()

	return nil
}
