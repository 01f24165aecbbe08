package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"exam-portal/internal/app"
	"exam-portal/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler drives one exam session per socket. The server owns the countdown
// ticker; closing the socket stops it.
type WSHandler struct {
	service  *app.PortalService
	upgrader websocket.Upgrader
	tick     time.Duration
}

func NewWSHandler(service *app.PortalService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tick: time.Second,
	}
}

// WithTickInterval shortens the countdown period, for tests.
func (h *WSHandler) WithTickInterval(d time.Duration) *WSHandler {
	h.tick = d
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Name string `json:"name"`
}

type answerPayload struct {
	Question int `json:"question"`
	Option   int `json:"option"`
}

type navigatePayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// examPayload is the exam as shown to students: no answer key.
type examPayload struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Duration    int               `json:"duration"`
	Questions   []questionPayload `json:"questions"`
}

type questionPayload struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

func newExamPayload(exam domain.Exam) examPayload {
	questions := make([]questionPayload, len(exam.Questions))
	for i, q := range exam.Questions {
		questions[i] = questionPayload{Text: q.Text, Options: q.Options}
	}
	return examPayload{
		ID:          exam.ID,
		Title:       exam.Title,
		Description: exam.Description,
		Duration:    exam.Duration,
		Questions:   questions,
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into an exam session.
// Query: scheduleId+studentId for a scheduled sitting, or examId for a direct one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	session, err := h.openSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer h.service.CloseSession(session.ID())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := newOutbox(16)
	closeSignals := make(chan struct{})
	watcherDone := make(chan struct{})

	go func() {
		defer close(out.writerDone)
		for msg := range out.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Forwards the terminal event whether it came from the student or the clock.
	go func() {
		defer close(watcherDone)
		select {
		case <-session.Done():
			outcome, _ := session.Outcome()
			if out.push(outboundMessage[any]{Type: "submitted", Payload: outcome}, closeSignals) {
				out.push(outboundMessage[any]{Type: "state", Payload: session.State()}, closeSignals)
			}
		case <-closeSignals:
		}
	}()

	connected := out.push(outboundMessage[any]{Type: "exam", Payload: newExamPayload(session.Exam())}, nil) &&
		out.push(outboundMessage[any]{Type: "state", Payload: session.State()}, nil)

	for connected {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, session, inbound); err != nil {
			connected = out.push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}, nil)
			continue
		}
		if inbound.Type != "submit" {
			connected = out.push(outboundMessage[any]{Type: "state", Payload: session.State()}, nil)
		}
	}

	// Stop the clock before anything else so a torn-down view can never auto-submit.
	cancel()
	close(closeSignals)
	<-watcherDone
	close(out.send)
	<-out.writerDone
}

// outbox queues frames for the single writer goroutine. Pushes give up once the
// writer has died so a broken socket never blocks the reader.
type outbox struct {
	send       chan outboundMessage[any]
	writerDone chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		send:       make(chan outboundMessage[any], size),
		writerDone: make(chan struct{}),
	}
}

// push reports whether msg was queued. A nil stop never fires.
func (o *outbox) push(msg outboundMessage[any], stop <-chan struct{}) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.writerDone:
		return false
	case <-stop:
		return false
	}
}

func (h *WSHandler) openSession(r *http.Request) (*app.Session, error) {
	q := r.URL.Query()
	if scheduleID := q.Get("scheduleId"); scheduleID != "" {
		viewer := domain.Viewer{StudentID: q.Get("studentId")}
		return h.service.EnterSchedule(r.Context(), viewer, scheduleID)
	}
	if examID := q.Get("examId"); examID != "" {
		return h.service.OpenExam(r.Context(), examID)
	}
	return nil, errMissingTarget
}

func (h *WSHandler) dispatch(ctx context.Context, session *app.Session, inbound inboundMessage) error {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		if err := session.Start(payload.Name); err != nil {
			return err
		}
		ticker := time.NewTicker(h.tick)
		go func() {
			defer ticker.Stop()
			session.RunClock(ctx, ticker.C)
		}()
		return nil
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.Answer(payload.Question, payload.Option)
	case "navigate":
		var payload navigatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.Navigate(payload.Index)
	case "next":
		return session.Next()
	case "prev":
		return session.Prev()
	case "submit":
		_, err := session.Submit(ctx)
		return err
	default:
		return errUnsupportedMessage
	}
}
