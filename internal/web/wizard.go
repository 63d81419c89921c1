package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-speak/internal/i18n"
	"github.com/p-n-ai/pai-speak/internal/practice"
	"github.com/p-n-ai/pai-speak/internal/selector"
	"github.com/p-n-ai/pai-speak/internal/topics"
)

// errBadEvent is returned for malformed wizard events.
var errBadEvent = errors.New("invalid wizard event")

type wizardRequest struct {
	TopicID   string             `json:"topicId"`
	TopicName string             `json:"topicName,omitempty"`
	Subtopic  *selector.Subtopic `json:"subtopic,omitempty"`
	Mode      string             `json:"mode,omitempty"`
}

type eventRequest struct {
	Type    string `json:"type"`
	Level   string `json:"level,omitempty"`
	Raw     string `json:"raw,omitempty"`
	Party   string `json:"party,omitempty"`
	Section string `json:"section,omitempty"`
	Option  string `json:"option,omitempty"`
}

// errNoMenu is returned when a request asks for the menu track on a topic without a menu.
var errNoMenu = errors.New("mode menu requires a topic with a configured menu")

// wizardConfig merges the topic's curriculum config with the request.
func (s *Server) wizardConfig(req wizardRequest) (selector.Config, error) {
	tc := s.Curriculum.Topic(req.TopicID)

	cfg := selector.Config{
		TopicID:      req.TopicID,
		TopicName:    req.TopicName,
		Subtopic:     req.Subtopic,
		Mode:         selector.ParseMode(tc.Mode),
		HideParties:  tc.HideParties,
		DefaultParty: tc.DefaultParty,
		ExamPrep:     tc.ExamPrep,
		MenuRoles:    tc.MenuRoles,
		SampleSize:   s.SampleSize,
	}
	if cfg.TopicName == "" {
		cfg.TopicName = tc.Name
	}
	if req.Mode != "" {
		cfg.Mode = selector.ParseMode(req.Mode)
	}
	for _, sec := range tc.Menu {
		cfg.Menu = append(cfg.Menu, selector.MenuSection{Section: sec.Section, Options: sec.Options})
	}
	if cfg.Mode == selector.ModeMenu && len(cfg.Menu) == 0 {
		return selector.Config{}, fmt.Errorf("%w: %s", errNoMenu, req.TopicID)
	}
	if cfg.Subtopic != nil && *cfg.Subtopic == (selector.Subtopic{}) {
		cfg.Subtopic = nil
	}
	return cfg, nil
}

func decodeWizardRequest(w http.ResponseWriter, r *http.Request) (wizardRequest, error) {
	var req wizardRequest
	if err := decodeBody(w, r, maxBodyBytes, &req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	req.TopicID = strings.TrimSpace(req.TopicID)
	if req.TopicID == "" {
		return req, errors.New("topicId is required")
	}
	return req, nil
}

func (s *Server) handleCreateWizard(w http.ResponseWriter, r *http.Request) {
	req, err := decodeWizardRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := s.wizardConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := s.Wizards.Create(r.Context(), cfg)
	s.Logger.Info("wizard created", "wizard_id", sess.ID, "identity", sess.Config().Identity())
	writeJSON(w, http.StatusCreated, renderWizard(sess, i18n.Printer(i18n.ResolveTag(r))))
}

func (s *Server) handleGetWizard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizards.Get(r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderWizard(sess, i18n.Printer(i18n.ResolveTag(r))))
}

// handleRetargetWizard points an existing wizard at a new topic or subtopic.
func (s *Server) handleRetargetWizard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizards.Get(r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	req, err := decodeWizardRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := s.wizardConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.Retarget(r.Context(), cfg)
	writeJSON(w, http.StatusOK, renderWizard(sess, i18n.Printer(i18n.ResolveTag(r))))
}

func (s *Server) handleDeleteWizard(w http.ResponseWriter, r *http.Request) {
	s.Wizards.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWizardEvent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizards.Get(r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	var req eventRequest
	if err := decodeBody(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ev, err := toEvent(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, handoff := sess.Dispatch(ev)
	resp := eventResponse{
		Wizard:  renderWizard(sess, i18n.Printer(i18n.ResolveTag(r))),
		Handoff: newHandoffView(handoff),
	}
	if handoff != nil {
		id, err := s.startPractice(r.Context(), sess, handoff)
		if err != nil {
			s.Logger.Error("practice session create failed", "wizard_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start practice session")
			return
		}
		resp.PracticeID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) startPractice(ctx context.Context, sess *selector.Session, h *selector.Handoff) (string, error) {
	params := h.Map()
	id, err := s.Practice.CreateSession(ctx, practice.SessionFromParams(params))
	if err != nil {
		return "", err
	}
	data := make(map[string]any, len(params)+1)
	for k, v := range params {
		data[k] = v
	}
	data["wizard_id"] = sess.ID
	s.logEvent(practice.Event{SessionID: id, EventType: practice.EventWizardHandoff, Data: data})
	s.Logger.Info("wizard handoff", "wizard_id", sess.ID, "practice_id", id, "topic_id", params[selector.ParamTopicID])
	return id, nil
}

func toEvent(req eventRequest) (selector.Event, error) {
	switch req.Type {
	case "select_level":
		l, ok := topics.ParseLevel(req.Level)
		if !ok {
			return nil, fmt.Errorf("%w: unknown level %q", errBadEvent, req.Level)
		}
		return selector.SelectLevel{Level: l}, nil
	case "select_topic":
		return selector.SelectTopic{Raw: req.Raw}, nil
	case "select_party":
		return selector.SelectParty{Party: req.Party}, nil
	case "select_section":
		return selector.SelectSection{Section: req.Section}, nil
	case "select_option":
		return selector.SelectOption{Option: req.Option}, nil
	case "proceed":
		return selector.Proceed{}, nil
	case "back":
		return selector.Back{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", errBadEvent, req.Type)
	}
}

// handleWizardSocket pushes a fresh view every time the wizard changes. Only the latest
// state is sent when the client falls behind.
func (s *Server) handleWizardSocket(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizards.Get(r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	printer := i18n.Printer(i18n.ResolveTag(r))

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		s.Logger.Warn("websocket accept failed", "wizard_id", sess.ID, "error", err)
		return
	}
	defer c.CloseNow()

	ctx := c.CloseRead(r.Context())
	updates, cancel := sess.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := wsjson.Write(ctx, c, renderWizard(sess, printer)); err != nil {
				s.Logger.Debug("websocket write failed", "wizard_id", sess.ID, "error", err)
				return
			}
		}
	}
}
