package web

import (
	"net/http"

	"github.com/p-n-ai/pai-speak/internal/ai"
	"github.com/p-n-ai/pai-speak/internal/practice"
)

// sessionFailure is the only error body browsers ever see from /api/session.
const sessionFailure = "Failed to fetch session data"

type sessionRequest struct {
	SelectedAvatar string       `json:"selectedAvatar"`
	Scenario       *ai.Scenario `json:"scenario,omitempty"`
	PracticeID     string       `json:"practiceId,omitempty"`
	TopicID        string       `json:"topicId,omitempty"`
}

// handleSession issues an ephemeral realtime session for the browser. The upstream
// response is relayed unchanged.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sessionRequest
	if err := decodeBody(w, r, maxBodyBytes, &req); err != nil {
		s.Logger.Error("session request decode failed", "error", err)
		writeError(w, http.StatusInternalServerError, sessionFailure)
		return
	}

	var scenario ai.Scenario
	if req.Scenario != nil {
		scenario = *req.Scenario
	}
	topicID := req.TopicID
	if req.PracticeID != "" {
		ps, err := s.Practice.GetSession(ctx, req.PracticeID)
		if err != nil {
			s.Logger.Error("practice session lookup failed", "practice_id", req.PracticeID, "error", err)
			writeError(w, http.StatusInternalServerError, sessionFailure)
			return
		}
		if req.Scenario == nil {
			scenario = scenarioFromPractice(ps)
		}
		topicID = ps.TopicID
	}
	if topicID != "" && !scenario.IsZero() {
		if notes, ok := s.Curriculum.PromptNotes(topicID); ok {
			scenario.Notes = notes
		}
	}

	voice := ai.VoiceForAvatar(req.SelectedAvatar)
	sess, err := s.Realtime.CreateSession(ctx, ai.SessionConfig{
		Voice:        voice,
		Instructions: ai.Instructions(scenario),
	})
	if err != nil {
		s.Logger.Error("realtime session failed", "avatar", req.SelectedAvatar, "error", err)
		writeError(w, http.StatusInternalServerError, sessionFailure)
		return
	}

	if req.PracticeID != "" {
		if err := s.Practice.AttachRealtime(ctx, req.PracticeID, sess.ID, voice); err != nil {
			s.Logger.Warn("attach realtime session failed", "practice_id", req.PracticeID, "error", err)
		}
		s.logEvent(practice.Event{
			SessionID: req.PracticeID,
			EventType: practice.EventRealtimeSessionCreated,
			Data:      map[string]any{"realtime_session_id": sess.ID, "voice": voice},
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(sess.Raw)
}

func scenarioFromPractice(ps *practice.Session) ai.Scenario {
	return ai.Scenario{
		Level:               ps.Level,
		ConversationTopic:   ps.ConversationTopic,
		ConversationParty:   ps.ConversationParty,
		Section:             ps.Section,
		CustomOption:        ps.CustomOption,
		SubtopicName:        ps.SubtopicName,
		SubtopicDescription: ps.SubtopicDescription,
	}
}

func (s *Server) logEvent(ev practice.Event) {
	if err := s.Events.LogEvent(ev); err != nil {
		s.Logger.Warn("event log failed", "event", ev.EventType, "session_id", ev.SessionID, "error", err)
	}
}
