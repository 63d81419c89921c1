package curriculum

import "strings"

// DefaultParty is the role used when the learner does not pick one.
const DefaultParty = "考生"

// Wizard modes.
const (
	ModeLeveled = "leveled"
	ModeFlat    = "flat"
	ModeMenu    = "menu"
)

// TopicConfig describes how the selection wizard behaves for one topic.
type TopicConfig struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Mode         string        `yaml:"mode"`
	HideParties  bool          `yaml:"hide_parties"`
	DefaultParty string        `yaml:"default_party"`
	ExamPrep     bool          `yaml:"exam_prep"`
	Menu         []MenuSection `yaml:"menu"`
	MenuRoles    []string      `yaml:"menu_roles"`
}

// MenuSection is one section of an explicit menu, e.g. a part of a speaking exam.
type MenuSection struct {
	Section string   `yaml:"section"`
	Options []string `yaml:"options"`
}

// withDefaults fills in the mode and default party.
func (c TopicConfig) withDefaults() TopicConfig {
	if strings.TrimSpace(c.DefaultParty) == "" {
		c.DefaultParty = DefaultParty
	}
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	switch {
	case len(c.Menu) > 0:
		c.Mode = ModeMenu
	case c.Mode == ModeFlat:
	default:
		c.Mode = ModeLeveled
	}
	if c.Mode == ModeMenu && len(c.MenuRoles) == 0 {
		c.MenuRoles = []string{c.DefaultParty}
	}
	return c
}
