package selector

import (
	"net/url"
	"slices"

	"github.com/p-n-ai/pai-speak/internal/curriculum"
	"github.com/p-n-ai/pai-speak/internal/topics"
)

// Event is an input to the machine.
type Event interface {
	event()
}

// SelectLevel picks a difficulty level (level track, step 1).
type SelectLevel struct{ Level topics.Level }

// SelectTopic picks an offered entry by its Raw key (level track, step 2).
type SelectTopic struct{ Raw string }

// SelectParty picks a role (step 3 of either track).
type SelectParty struct{ Party string }

// SelectSection picks a menu section (menu track, step 1).
type SelectSection struct{ Section string }

// SelectOption picks an option of the chosen section (menu track, step 2).
type SelectOption struct{ Option string }

// Proceed asks to move on from the current step.
type Proceed struct{}

// Back returns to the previous step.
type Back struct{}

// Loaded delivers the per-level index fetched for Identity.
type Loaded struct {
	Identity   string
	Generation uint64
	Index      topics.LevelIndex
}

// LoadFailed reports that the fetch for Identity did not produce an index.
type LoadFailed struct {
	Identity   string
	Generation uint64
	Kind       ProblemKind
}

func (SelectLevel) event()   {}
func (SelectTopic) event()   {}
func (SelectParty) event()   {}
func (SelectSection) event() {}
func (SelectOption) event()  {}
func (Proceed) event()       {}
func (Back) event()          {}
func (Loaded) event()        {}
func (LoadFailed) event()    {}

// Machine applies events to states for one Config.
type Machine struct {
	cfg Config
	rng topics.IntN
}

// NewMachine creates a machine. A nil rng uses the process-wide generator.
func NewMachine(cfg Config, rng topics.IntN) *Machine {
	if cfg.DefaultParty == "" {
		cfg.DefaultParty = curriculum.DefaultParty
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = topics.SampleSize
	}
	switch {
	case len(cfg.Menu) > 0:
		cfg.Mode = ModeMenu
	case cfg.Mode == ModeMenu:
		cfg.Mode = ModeLeveled
	}
	if cfg.Track() == TrackMenu && len(cfg.MenuRoles) == 0 {
		cfg.MenuRoles = []string{cfg.DefaultParty}
	}
	if rng == nil {
		rng = topics.DefaultRand
	}
	return &Machine{cfg: cfg, rng: rng}
}

// Config returns the normalised config.
func (m *Machine) Config() Config { return m.cfg }

// Initial returns the starting state. Menu wizards need no fetch and start ready.
func (m *Machine) Initial() State {
	s := State{
		Identity: m.cfg.Identity(),
		Track:    m.cfg.Track(),
		Status:   StatusLoading,
		Step:     StepLevel,
	}
	if s.Track == TrackMenu {
		s.Status = StatusReady
	}
	return s
}

// Apply returns the state after ev, and a handoff when ev completes the wizard.
// Events that are not valid in s leave it unchanged.
func (m *Machine) Apply(s State, ev Event) (State, *Handoff) {
	switch e := ev.(type) {
	case Loaded:
		if s.Status != StatusLoading || e.Identity != s.Identity || e.Generation != s.Generation {
			return s, nil
		}
		s.Status = StatusReady
		s.Index = e.Index
		s.Problem = Problem{}
		return s, nil
	case LoadFailed:
		if s.Status != StatusLoading || e.Identity != s.Identity || e.Generation != s.Generation {
			return s, nil
		}
		s.Status = StatusError
		s.Problem = Problem{Kind: e.Kind}
		return s, nil
	}

	if s.Status != StatusReady {
		return s, nil
	}
	if s.Track == TrackMenu {
		return m.applyMenu(s, ev)
	}
	return m.applyLevel(s, ev)
}

func (m *Machine) applyLevel(s State, ev Event) (State, *Handoff) {
	switch e := ev.(type) {
	case SelectLevel:
		if s.Step != StepLevel {
			return s, nil
		}
		if _, ok := topics.ParseLevel(string(e.Level)); !ok {
			return s, nil
		}
		all := s.Index.Entries(e.Level)
		s.Step = StepTopic
		s.Level = e.Level
		s.Offered = topics.Sample(all, m.cfg.SampleSize, m.rng)
		s.Topic = nil
		s.Party = ""
		s.Problem = Problem{}
		if len(all) == 0 {
			s.Problem = Problem{Kind: ProblemEmptyLevel, Level: e.Level}
		}
		return s, nil

	case SelectTopic:
		if s.Step != StepTopic {
			return s, nil
		}
		i := slices.IndexFunc(s.Offered, func(en topics.Entry) bool { return en.Raw == e.Raw })
		if i < 0 {
			return s, nil
		}
		picked := s.Offered[i]
		s.Topic = &picked
		s.Party = ""
		if m.cfg.HideParties {
			s.Party = m.cfg.DefaultParty
			return s, m.levelHandoff(s)
		}
		return s, nil

	case SelectParty:
		if s.Step != StepParty || s.Topic == nil || !s.Topic.HasParty(e.Party) {
			return s, nil
		}
		s.Party = e.Party
		return s, nil

	case Proceed:
		switch {
		case s.Step == StepTopic && s.Topic != nil:
			if m.cfg.HideParties {
				s.Party = m.cfg.DefaultParty
				return s, m.levelHandoff(s)
			}
			s.Step = StepParty
			return s, nil
		case s.Step == StepParty && s.Topic != nil && s.Party != "":
			return s, m.levelHandoff(s)
		}
		return s, nil

	case Back:
		if s.Step > StepLevel {
			s.Step--
		}
		if s.Step == StepLevel {
			s.Problem = Problem{}
		}
		return s, nil
	}
	return s, nil
}

func (m *Machine) applyMenu(s State, ev Event) (State, *Handoff) {
	switch e := ev.(type) {
	case SelectSection:
		if s.Step != StepSection || m.section(e.Section) == nil {
			return s, nil
		}
		s.Section = e.Section
		s.Option = ""
		s.Party = ""
		s.Step = StepOption
		return s, nil

	case SelectOption:
		sec := m.section(s.Section)
		if s.Step != StepOption || sec == nil || !slices.Contains(sec.Options, e.Option) {
			return s, nil
		}
		s.Option = e.Option
		s.Party = ""
		if m.menuRoleImplicit() {
			s.Party = m.implicitMenuRole()
			return s, m.menuHandoff(s)
		}
		s.Step = StepRole
		return s, nil

	case SelectParty:
		if s.Step != StepRole || !slices.Contains(m.cfg.MenuRoles, e.Party) {
			return s, nil
		}
		s.Party = e.Party
		return s, nil

	case Proceed:
		if s.Step == StepRole && s.Option != "" && s.Party != "" {
			return s, m.menuHandoff(s)
		}
		return s, nil

	case Back:
		switch s.Step {
		case StepOption:
			s.Step = StepSection
			s.Section = ""
		case StepRole:
			s.Step = StepOption
		}
		return s, nil
	}
	return s, nil
}

// MenuRoles lists the roles offered in the menu track's role step.
func (m *Machine) MenuRoles() []string { return m.cfg.MenuRoles }

func (m *Machine) menuRoleImplicit() bool {
	return m.cfg.HideParties || len(m.cfg.MenuRoles) <= 1
}

func (m *Machine) implicitMenuRole() string {
	if !m.cfg.HideParties && len(m.cfg.MenuRoles) == 1 {
		return m.cfg.MenuRoles[0]
	}
	return m.cfg.DefaultParty
}

func (m *Machine) section(name string) *MenuSection {
	for i := range m.cfg.Menu {
		if m.cfg.Menu[i].Section == name {
			return &m.cfg.Menu[i]
		}
	}
	return nil
}

func (m *Machine) levelHandoff(s State) *Handoff {
	p := url.Values{}
	p.Set(ParamTopicID, m.cfg.TopicID)
	p.Set(ParamLevel, string(s.Level))
	p.Set(ParamConversationTopic, s.Topic.Topic)
	p.Set(ParamConversationParty, s.Party)
	m.addSubtopic(p)
	return &Handoff{Path: LivePath, Params: p}
}

func (m *Machine) menuHandoff(s State) *Handoff {
	p := url.Values{}
	p.Set(ParamTopicID, m.cfg.TopicID)
	p.Set(ParamSection, s.Section)
	p.Set(ParamCustomOption, s.Option)
	p.Set(ParamConversationParty, s.Party)
	m.addSubtopic(p)
	return &Handoff{Path: LivePath, Params: p}
}

func (m *Machine) addSubtopic(p url.Values) {
	st := m.cfg.Subtopic
	if st == nil {
		return
	}
	if st.ID != "" {
		p.Set(ParamSubtopicID, st.ID)
	}
	if st.Name != "" {
		p.Set(ParamSubtopicName, st.Name)
	}
	if st.Description != "" {
		p.Set(ParamSubtopicDescription, st.Description)
	}
}
