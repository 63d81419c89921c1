// Package selector implements the practice selection wizard.
//
// The wizard walks a learner through three steps. On the level track these are
// difficulty level, conversation topic and conversational role. On the menu track
// they are section, option and role. The machine is a pure transition function over
// State values; Session adds locking, the options fetch and change notification.
package selector

import (
	"net/url"

	"github.com/p-n-ai/pai-speak/internal/topics"
)

// Step is the position within a track, 1 through 3.
type Step int

const (
	StepLevel Step = 1
	StepTopic Step = 2
	StepParty Step = 3

	StepSection = StepLevel
	StepOption  = StepTopic
	StepRole    = StepParty
)

// Track selects which sequence of steps a wizard runs.
type Track int

const (
	TrackLevel Track = iota
	TrackMenu
)

func (t Track) String() string {
	if t == TrackMenu {
		return "menu"
	}
	return "level"
}

// Mode configures how subtopic data is turned into per-level entries.
type Mode int

const (
	ModeLeveled Mode = iota // separate starter/intermediate/advanced lists
	ModeFlat                // one list shared by every level
	ModeMenu                // explicit sections and options, no fetch
)

// ParseMode maps a config string to a Mode. Unknown values are leveled.
func ParseMode(s string) Mode {
	switch s {
	case "flat":
		return ModeFlat
	case "menu":
		return ModeMenu
	default:
		return ModeLeveled
	}
}

func (m Mode) String() string {
	switch m {
	case ModeFlat:
		return "flat"
	case ModeMenu:
		return "menu"
	default:
		return "leveled"
	}
}

// Status is the load status of a wizard.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "loading"
	}
}

// ProblemKind classifies a user-visible problem.
type ProblemKind int

const (
	ProblemNone ProblemKind = iota
	// ProblemFetchFailure means the options catalogue could not be loaded.
	ProblemFetchFailure
	// ProblemNotFound means no subtopic matched the wizard's identity.
	ProblemNotFound
	// ProblemEmptyLevel means the chosen level has no entries.
	ProblemEmptyLevel
)

func (k ProblemKind) String() string {
	switch k {
	case ProblemFetchFailure:
		return "fetch_failure"
	case ProblemNotFound:
		return "not_found"
	case ProblemEmptyLevel:
		return "empty_level"
	default:
		return "none"
	}
}

// Problem is reported to the learner. Level is set for ProblemEmptyLevel.
type Problem struct {
	Kind  ProblemKind
	Level topics.Level
}

// Subtopic is the optional subtopic context passed through to the live page.
type Subtopic struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// MenuSection is one section of an explicit menu.
type MenuSection struct {
	Section string
	Options []string
}

// Config is fixed for the lifetime of one wizard identity.
type Config struct {
	TopicID      string
	TopicName    string
	Subtopic     *Subtopic
	Mode         Mode
	HideParties  bool
	DefaultParty string
	ExamPrep     bool
	Menu         []MenuSection
	MenuRoles    []string
	SampleSize   int
}

// Track returns the track a config runs. Only a supplied menu selects the menu track.
func (c Config) Track() Track {
	if len(c.Menu) > 0 {
		return TrackMenu
	}
	return TrackLevel
}

// Identity is the key that triggers a re-fetch when it changes.
func (c Config) Identity() string {
	id := c.TopicID
	if c.Subtopic != nil && c.Subtopic.ID != "" {
		id += "/" + c.Subtopic.ID
	}
	return id
}

// State is the accumulated progress of one wizard. Values are never mutated in place.
// Generation counts retargets of the owning session, so a repeated identity still
// tells fetches apart.
type State struct {
	Identity   string
	Generation uint64
	Track    Track
	Status   Status
	Step     Step
	Problem  Problem

	Index   topics.LevelIndex
	Level   topics.Level
	Offered []topics.Entry
	Topic   *topics.Entry
	Party   string

	Section string
	Option  string
}

// Handoff is the terminal result of a wizard: the parameters for the live page.
type Handoff struct {
	Path   string
	Params url.Values
}

// LivePath is where handoffs point.
const LivePath = "/live"

// Handoff parameter keys.
const (
	ParamTopicID             = "topicId"
	ParamLevel               = "level"
	ParamConversationTopic   = "conversationTopic"
	ParamConversationParty   = "conversationParty"
	ParamSubtopicID          = "subtopicId"
	ParamSubtopicName        = "subtopicName"
	ParamSubtopicDescription = "subtopicDescription"
	ParamSection             = "section"
	ParamCustomOption        = "customOption"
)

// URL renders the handoff as a relative URL.
func (h Handoff) URL() string {
	return h.Path + "?" + h.Params.Encode()
}

// Map flattens the parameters.
func (h Handoff) Map() map[string]string {
	out := make(map[string]string, len(h.Params))
	for k := range h.Params {
		out[k] = h.Params.Get(k)
	}
	return out
}
