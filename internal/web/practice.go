package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/p-n-ai/pai-speak/internal/practice"
	"github.com/p-n-ai/pai-speak/internal/transcript"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type appendRequest struct {
	Messages []json.RawMessage `json:"messages"`
}

type messagesResponse struct {
	Types    []string           `json:"types"`
	Messages []practice.Message `json:"messages"`
}

func (s *Server) handleGetPractice(w http.ResponseWriter, r *http.Request) {
	ps, err := s.Practice.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handleEndPractice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := s.Practice.EndSession(ctx, id); err != nil {
		s.writeLookupError(w, err)
		return
	}
	ps, err := s.Practice.GetSession(ctx, id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// handleAppendMessages records a batch of realtime events sent by the live page.
func (s *Server) handleAppendMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req appendRequest
	if err := decodeBody(w, r, maxMessagesBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	parsed, err := transcript.ParseAll(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs := make([]practice.Message, len(parsed))
	for i, m := range parsed {
		msgs[i] = practice.Message{Type: m.Type, Raw: m.Raw}
	}

	stored, err := s.Practice.AppendMessages(r.Context(), id, msgs)
	if err != nil {
		if errors.Is(err, practice.ErrInvalidMessage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeLookupError(w, err)
		return
	}
	if len(stored) > 0 {
		s.logEvent(practice.Event{
			SessionID: id,
			EventType: practice.EventMessagesAppended,
			Data:      map[string]any{"count": len(stored), "last_seq": stored[len(stored)-1].Seq},
		})
	}
	writeJSON(w, http.StatusCreated, map[string]any{"appended": len(stored), "messages": stored})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	all, filtered, err := s.filteredMessages(r)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messagesResponse{Types: transcript.Types(toTranscript(all)), Messages: filtered})
}

func (s *Server) handleExportMessages(w http.ResponseWriter, r *http.Request) {
	_, filtered, err := s.filteredMessages(r)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := transcript.Export(&buf, toTranscript(filtered)); err != nil {
		s.Logger.Error("transcript export failed", "practice_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="practice-%s.xlsx"`, r.PathValue("id")))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// filteredMessages loads a session's messages and applies the type and q filters.
func (s *Server) filteredMessages(r *http.Request) (all, filtered []practice.Message, err error) {
	all, err = s.Practice.ListMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, nil, err
	}
	q := r.URL.Query()
	typeFilter, query := q.Get("type"), q.Get("q")

	filtered = make([]practice.Message, 0, len(all))
	for _, m := range all {
		if len(transcript.Filter([]transcript.Message{m.Transcript()}, typeFilter, query)) == 1 {
			filtered = append(filtered, m)
		}
	}
	return all, filtered, nil
}

func toTranscript(msgs []practice.Message) []transcript.Message {
	out := make([]transcript.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Transcript()
	}
	return out
}
