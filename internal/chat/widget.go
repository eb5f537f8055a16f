package chat

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"ragbot/internal/models"
	"ragbot/internal/util"

	"github.com/google/uuid"
)

const (
	DefaultTitle   = "New chat"
	WelcomeMessage = "Hello! I'm the ABS Developers assistant. Ask me about our projects, apartments, prices or payment plans."
	titleRunes     = 40
)

var (
	// ErrSessionLimit is returned when an anonymous user asks for a second session.
	// It is a UX limit, not an access control.
	ErrSessionLimit   = errors.New("sign in to start more than one chat")
	ErrUnknownSession = errors.New("unknown session")
	ErrBusy           = errors.New("a message is already being sent")
	ErrEmptyMessage   = errors.New("message is empty")
)

// Asker answers a question. *Client implements it.
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Widget is the chat session state machine. It holds the session list in memory
// and writes the whole list to the store after every mutation.
type Widget struct {
	mu            sync.Mutex
	store         SessionStore
	asker         Asker
	authenticated bool
	sessions      []models.ChatSession
	active        string
	busy          bool
	now           func() time.Time
}

func NewWidget(store SessionStore, asker Asker, authenticated bool) *Widget {
	return &Widget{store: store, asker: asker, authenticated: authenticated, now: time.Now}
}

// Open loads the stored sessions. An unreadable or empty store yields one new
// session holding the welcome message. The first session becomes active.
func (w *Widget) Open(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sessions, err := w.store.Load(ctx)
	if err != nil {
		log.Printf("chat sessions unreadable, starting fresh: %v", err)
		sessions = nil
	}
	w.sessions = sessions
	w.active = ""
	if len(w.sessions) == 0 {
		s := w.newSession()
		s.Messages = append(s.Messages, w.newMessage(WelcomeMessage, false))
		w.sessions = []models.ChatSession{s}
		w.active = s.ID
		return w.persist(ctx)
	}
	w.active = w.sessions[0].ID
	return nil
}

// Sessions returns a copy of all sessions, newest first.
func (w *Widget) Sessions() []models.ChatSession {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.ChatSession, len(w.sessions))
	for i, s := range w.sessions {
		out[i] = cloneSession(s)
	}
	return out
}

func (w *Widget) Active() (models.ChatSession, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(w.active)
	if i < 0 {
		return models.ChatSession{}, false
	}
	return cloneSession(w.sessions[i]), true
}

// CreateSession prepends a new empty session and makes it active. Anonymous
// users may only do this while no session exists.
func (w *Widget) CreateSession(ctx context.Context) (models.ChatSession, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.authenticated && len(w.sessions) > 0 {
		return models.ChatSession{}, ErrSessionLimit
	}
	s := w.newSession()
	w.sessions = append([]models.ChatSession{s}, w.sessions...)
	w.active = s.ID
	if err := w.persist(ctx); err != nil {
		return models.ChatSession{}, err
	}
	return cloneSession(s), nil
}

func (w *Widget) SelectSession(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.indexOf(id) < 0 {
		return ErrUnknownSession
	}
	w.active = id
	return nil
}

// SendMessage appends text to the active session, asks the backend and appends the
// answer, or an error text, to the same session. Both appends are persisted. Only
// one send may be in flight.
func (w *Widget) SendMessage(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return models.Message{}, ErrBusy
	}
	w.busy = true
	if w.indexOf(w.active) < 0 {
		s := w.newSession()
		w.sessions = append([]models.ChatSession{s}, w.sessions...)
		w.active = s.ID
	}
	sessionID := w.active
	w.appendMessage(sessionID, w.newMessage(text, true))
	w.persistOrLog(ctx)
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	reply, err := w.asker.Ask(ctx, text)
	if err != nil {
		log.Printf("chat query failed: %v", err)
		reply = ErrorText(err)
	}

	w.mu.Lock()
	msg := w.newMessage(reply, false)
	w.appendMessage(sessionID, msg)
	w.persistOrLog(context.WithoutCancel(ctx))
	w.mu.Unlock()
	return msg, nil
}

func (w *Widget) appendMessage(sessionID string, m models.Message) {
	i := w.indexOf(sessionID)
	if i < 0 {
		return
	}
	s := &w.sessions[i]
	s.Messages = append(s.Messages, m)
	s.UpdatedAt = m.Timestamp
	if m.IsUser && s.Title == DefaultTitle {
		s.Title = DeriveTitle(m.Text)
	}
}

// DeriveTitle returns the first 40 characters of the trimmed message.
func DeriveTitle(text string) string {
	t := strings.TrimSpace(util.TruncateRunes(strings.TrimSpace(text), titleRunes))
	if t == "" {
		return DefaultTitle
	}
	return t
}

func (w *Widget) newSession() models.ChatSession {
	now := w.now()
	ms := now.UnixMilli()
	for w.indexOf(strconv.FormatInt(ms, 10)) >= 0 {
		ms++
	}
	return models.ChatSession{
		ID:        strconv.FormatInt(ms, 10),
		Title:     DefaultTitle,
		Messages:  []models.Message{},
		UpdatedAt: now,
	}
}

func (w *Widget) newMessage(text string, fromUser bool) models.Message {
	return models.Message{ID: uuid.NewString(), Text: text, IsUser: fromUser, Timestamp: w.now()}
}

func (w *Widget) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range w.sessions {
		if w.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (w *Widget) persist(ctx context.Context) error {
	return w.store.Save(ctx, w.sessions)
}

func (w *Widget) persistOrLog(ctx context.Context) {
	if err := w.persist(ctx); err != nil {
		log.Printf("chat sessions not saved: %v", err)
	}
}

func cloneSession(s models.ChatSession) models.ChatSession {
	msgs := make([]models.Message, len(s.Messages))
	copy(msgs, s.Messages)
	s.Messages = msgs
	return s
}
