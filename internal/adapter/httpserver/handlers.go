package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Engine     *usecase.Engine
	Candidates domain.CandidateRepository
	Messages   domain.MessageRepository
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, engine *usecase.Engine, candidates domain.CandidateRepository, messages domain.MessageRepository, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Engine: engine, Candidates: candidates, Messages: messages, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type profileView struct {
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Experience string   `json:"experience,omitempty"`
	Position   string   `json:"position,omitempty"`
	TechStack  []string `json:"tech_stack,omitempty"`
	Complete   bool     `json:"complete"`
}

func viewProfile(p domain.Profile) profileView {
	return profileView{
		Name:       p.Name,
		Email:      p.Email,
		Experience: p.Experience,
		Position:   p.Position,
		TechStack:  p.TechStack,
		Complete:   p.Complete(),
	}
}

// StartSessionHandler creates a new interview session and returns the
// greeting.
func (s *Server) StartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Engine.StartSession(r.Context())
		if err != nil {
			writeError(w, r, fmt.Errorf("start session: %w", err), nil)
			return
		}
		observability.SessionsStartedTotal.Inc()
		writeJSON(w, http.StatusCreated, map[string]any{
			"session_id": c.SessionID,
			"stage":      c.Stage.String(),
			"message":    c.History[len(c.History)-1].Content,
		})
	}
}

// SubmitMessageHandler processes one conversation turn.
func (s *Server) SubmitMessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if res := ValidateSessionID(id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid session id", domain.ErrInvalidArgument), res.Errors)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Message string `json:"message" validate:"max=10000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		if res := ValidateMessage(req.Message, s.Cfg.MessageMaxLen); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: message rejected", domain.ErrInvalidArgument), res.Errors)
			return
		}

		ctx := r.Context()
		reply, err := s.Engine.SubmitMessage(ctx, id, SanitizeText(req.Message))
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				observability.RateLimitedTurnsTotal.Inc()
				writeJSON(w, http.StatusTooManyRequests, errorEnvelope{Error: apiError{
					Code:    "RATE_LIMITED",
					Message: reply,
				}})
				return
			}
			writeError(w, r, err, nil)
			return
		}

		snap, err := s.Engine.GetContext(ctx, id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		observability.TurnsProcessedTotal.WithLabelValues(snap.Stage.String()).Inc()
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": id,
			"stage":      snap.Stage.String(),
			"reply":      reply,
			"profile":    viewProfile(snap.Profile),
		})
	}
}

// GetSessionHandler returns a snapshot of the session state.
func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if res := ValidateSessionID(id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid session id", domain.ErrInvalidArgument), res.Errors)
			return
		}
		snap, err := s.Engine.GetContext(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":      snap.SessionID,
			"stage":           snap.Stage.String(),
			"profile":         viewProfile(snap.Profile),
			"message_count":   len(snap.History),
			"questions_asked": len(snap.AskedQuestions),
			"created_at":      snap.CreatedAt,
			"last_updated":    snap.LastUpdated,
		})
	}
}

type transcriptRow struct {
	SequenceID int       `json:"sequence_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Stage      string    `json:"stage"`
	CreatedAt  time.Time `json:"created_at"`
}

// TranscriptHandler returns the full ordered transcript for a session. The
// durable store is preferred; sessions running without one fall back to the
// in-memory history.
func (s *Server) TranscriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if res := ValidateSessionID(id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid session id", domain.ErrInvalidArgument), res.Errors)
			return
		}
		ctx := r.Context()

		var msgs []domain.Message
		if s.Messages != nil {
			var err error
			msgs, err = s.Messages.ListBySession(ctx, id)
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
		}
		if len(msgs) == 0 {
			snap, err := s.Engine.GetContext(ctx, id)
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			msgs = snap.History
		}

		rows := make([]transcriptRow, 0, len(msgs))
		for _, m := range msgs {
			rows = append(rows, transcriptRow{
				SequenceID: m.SequenceID,
				Role:       m.Role,
				Content:    m.Content,
				Stage:      m.Stage.String(),
				CreatedAt:  m.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "messages": rows})
	}
}

// StatsHandler reports operational counts. Behind the admin guard.
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		out := map[string]any{
			"active_sessions":   s.Engine.SessionCount(),
			"sessions_by_stage": s.Engine.StageCounts(),
		}
		if s.Candidates != nil {
			if n, err := s.Candidates.Count(ctx); err == nil {
				out["candidates_total"] = n
			}
		}
		if s.Messages != nil {
			if n, err := s.Messages.Count(ctx); err == nil {
				out["messages_total"] = n
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HealthzHandler is a trivial liveness probe.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the DB and Redis dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
