package web

import (
	"golang.org/x/text/message"

	"github.com/p-n-ai/pai-speak/internal/i18n"
	"github.com/p-n-ai/pai-speak/internal/options"
	"github.com/p-n-ai/pai-speak/internal/selector"
	"github.com/p-n-ai/pai-speak/internal/topics"
)

// wizardView is the JSON shape of a wizard sent to browsers, localised for one language.
type wizardView struct {
	ID         string        `json:"id"`
	Identity   string        `json:"identity"`
	Track      string        `json:"track"`
	Status     string        `json:"status"`
	Step       int           `json:"step"`
	Heading    string        `json:"heading"`
	Topic      topicView     `json:"topic"`
	Levels     []levelView   `json:"levels,omitempty"`
	Offered    []entryView   `json:"offered,omitempty"`
	Parties    []string      `json:"parties,omitempty"`
	Sections   []sectionView `json:"sections,omitempty"`
	Level      string        `json:"level,omitempty"`
	Selected   string        `json:"selectedTopic,omitempty"`
	Party      string        `json:"party,omitempty"`
	Section    string        `json:"section,omitempty"`
	Option     string        `json:"option,omitempty"`
	Problem    *problemView  `json:"problem,omitempty"`
	CanProceed bool          `json:"canProceed"`
	CanBack    bool          `json:"canBack"`
	Labels     labelsView    `json:"labels"`
}

type topicView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji,omitempty"`
}

type levelView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type entryView struct {
	Raw     string   `json:"raw"`
	Topic   string   `json:"topic"`
	Parties []string `json:"parties"`
}

type sectionView struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type problemView struct {
	Kind    string `json:"kind"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

type labelsView struct {
	Next  string `json:"next"`
	Back  string `json:"back"`
	Start string `json:"start"`
}

type handoffView struct {
	URL    string            `json:"url"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params"`
}

type eventResponse struct {
	Wizard     wizardView   `json:"wizard"`
	Handoff    *handoffView `json:"handoff,omitempty"`
	PracticeID string       `json:"practiceId,omitempty"`
}

func newHandoffView(h *selector.Handoff) *handoffView {
	if h == nil {
		return nil
	}
	return &handoffView{URL: h.URL(), Path: h.Path, Params: h.Map()}
}

// renderWizard builds the view of sess, localised by p.
func renderWizard(sess *selector.Session, p *message.Printer) wizardView {
	snap := sess.Snapshot()
	st, cfg, topic := snap.State, snap.Config, snap.Topic

	v := wizardView{
		ID:       sess.ID,
		Identity: st.Identity,
		Track:    st.Track.String(),
		Status:   st.Status.String(),
		Step:     int(st.Step),
		Topic:    newTopicView(topic, cfg),
		Level:    string(st.Level),
		Party:    st.Party,
		Section:  st.Section,
		Option:   st.Option,
		CanBack:  st.Status == selector.StatusReady && st.Step > selector.StepLevel,
		Labels: labelsView{
			Next:  p.Sprintf(i18n.KeyNext),
			Back:  p.Sprintf(i18n.KeyBack),
			Start: p.Sprintf(i18n.KeyStart),
		},
	}
	if st.Topic != nil {
		v.Selected = st.Topic.Raw
	}
	v.Problem = newProblemView(st.Problem, p)

	if st.Track == selector.TrackMenu {
		renderMenu(&v, st, cfg, p)
	} else {
		renderLevel(&v, st, cfg, p)
	}
	return v
}

func renderLevel(v *wizardView, st selector.State, cfg selector.Config, p *message.Printer) {
	switch st.Step {
	case selector.StepLevel:
		v.Heading = p.Sprintf(i18n.KeyStepLevel)
		for _, l := range topics.Levels {
			v.Levels = append(v.Levels, levelView{
				ID:          string(l),
				Title:       i18n.LevelTitle(p, l),
				Description: i18n.LevelDescription(p, l),
			})
		}
	case selector.StepTopic:
		if cfg.ExamPrep {
			v.Heading = p.Sprintf(i18n.KeyStepExam)
		} else {
			v.Heading = p.Sprintf(i18n.KeyStepTopic)
		}
		v.Offered = make([]entryView, 0, len(st.Offered))
		for _, e := range st.Offered {
			v.Offered = append(v.Offered, entryView{Raw: e.Raw, Topic: e.Topic, Parties: e.Parties})
		}
		v.CanProceed = st.Topic != nil
	case selector.StepParty:
		v.Heading = p.Sprintf(i18n.KeyStepParty)
		if st.Topic != nil {
			v.Parties = st.Topic.Parties
		}
		v.CanProceed = st.Topic != nil && st.Party != ""
	}
}

func renderMenu(v *wizardView, st selector.State, cfg selector.Config, p *message.Printer) {
	switch st.Step {
	case selector.StepSection:
		v.Heading = p.Sprintf(i18n.KeyStepSection)
		for _, sec := range cfg.Menu {
			v.Sections = append(v.Sections, sectionView{Name: sec.Section, Options: sec.Options})
		}
	case selector.StepOption:
		v.Heading = p.Sprintf(i18n.KeyStepOption)
		for _, sec := range cfg.Menu {
			if sec.Section == st.Section {
				v.Sections = []sectionView{{Name: sec.Section, Options: sec.Options}}
			}
		}
	case selector.StepRole:
		v.Heading = p.Sprintf(i18n.KeyStepParty)
		v.Parties = cfg.MenuRoles
		v.CanProceed = st.Option != "" && st.Party != ""
	}
}

func newTopicView(t options.Topic, cfg selector.Config) topicView {
	name := t.DisplayName()
	if name == "" {
		name = cfg.TopicName
	}
	id := t.ID
	if id == "" {
		id = cfg.TopicID
	}
	return topicView{ID: id, Name: name, Emoji: t.Emoji}
}

func newProblemView(pr selector.Problem, p *message.Printer) *problemView {
	switch pr.Kind {
	case selector.ProblemNotFound:
		return &problemView{Kind: pr.Kind.String(), Message: p.Sprintf(i18n.KeyProblemNotFound)}
	case selector.ProblemFetchFailure:
		return &problemView{Kind: pr.Kind.String(), Message: p.Sprintf(i18n.KeyProblemFetchFailure)}
	case selector.ProblemEmptyLevel:
		return &problemView{Kind: pr.Kind.String(), Level: string(pr.Level), Message: i18n.EmptyLevel(p, pr.Level)}
	default:
		return nil
	}
}
