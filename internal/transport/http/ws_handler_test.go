package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exam-portal/internal/app"
	"exam-portal/internal/domain"
	"exam-portal/internal/infra/memory"
	"github.com/gorilla/websocket"
)

type testEnv struct {
	store   *memory.Store
	service *app.PortalService
	server  *httptest.Server
	exam    domain.Exam
}

func newTestEnv(t *testing.T, tick time.Duration) *testEnv {
	t.Helper()
	store := memory.NewStore()
	exam, err := store.CreateExam(context.Background(), sampleExam())
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	service := app.NewPortalService(store, memory.NewExamCache(store, time.Minute), memory.NewSessionStore())
	ws := NewWSHandler(service).WithTickInterval(tick)
	server := httptest.NewServer(NewRouter(NewAPI(service), ws, nil))
	t.Cleanup(server.Close)
	return &testEnv{store: store, service: service, server: server, exam: exam}
}

func (e *testEnv) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketExamFlow(t *testing.T) {
	env := newTestEnv(t, time.Second)
	conn := env.dial(t, "examId="+env.exam.ID)

	_, exam := readNext(conn, t, "exam")
	questions, _ := exam["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %v", exam["questions"])
	}
	if _, leaked := questions[0].(map[string]any)["correctAnswer"]; leaked {
		t.Fatalf("answer key must not be sent to students")
	}
	_, state := readNext(conn, t, "state")
	if state["status"] != string(domain.SessionNotStarted) {
		t.Fatalf("expected NOT_STARTED, got %v", state["status"])
	}

	send(t, conn, "start", map[string]any{"name": "Alice"})
	_, state = readNext(conn, t, "state")
	if state["status"] != string(domain.SessionInProgress) || state["remainingSeconds"] != float64(60) {
		t.Fatalf("unexpected state after start: %v", state)
	}

	send(t, conn, "answer", map[string]any{"question": 0, "option": 1})
	readNext(conn, t, "state")
	send(t, conn, "answer", map[string]any{"question": 1, "option": 0})
	readNext(conn, t, "state")

	send(t, conn, "submit", nil)
	_, outcome := readNext(conn, t, "submitted")
	if outcome["score"] != float64(50) || outcome["correctAnswers"] != float64(1) {
		t.Fatalf("unexpected outcome %v", outcome)
	}
	_, state = readNext(conn, t, "state")
	if state["status"] != string(domain.SessionSubmitted) {
		t.Fatalf("expected SUBMITTED, got %v", state["status"])
	}

	results, _ := env.store.ResultsByExam(context.Background(), env.exam.ID)
	if len(results) != 1 || results[0].StudentName != "Alice" {
		t.Fatalf("expected one stored result for Alice, got %+v", results)
	}
}

func TestWebSocketReportsCommandErrors(t *testing.T) {
	env := newTestEnv(t, time.Second)
	conn := env.dial(t, "examId="+env.exam.ID)
	readNext(conn, t, "exam")
	readNext(conn, t, "state")

	send(t, conn, "answer", map[string]any{"question": 0, "option": 1})
	readNext(conn, t, "error")

	send(t, conn, "start", map[string]any{"name": " "})
	readNext(conn, t, "error")

	send(t, conn, "dance", nil)
	_, payload := readNext(conn, t, "error")
	if payload["message"] != errUnsupportedMessage.Error() {
		t.Fatalf("unexpected error %v", payload)
	}
}

func TestWebSocketAutoSubmitsWhenTimeRunsOut(t *testing.T) {
	env := newTestEnv(t, time.Millisecond)
	conn := env.dial(t, "examId="+env.exam.ID)
	readNext(conn, t, "exam")
	readNext(conn, t, "state")

	send(t, conn, "start", map[string]any{"name": "Bob"})
	send(t, conn, "answer", map[string]any{"question": 1, "option": 0})

	for {
		typ, payload := readNext(conn, t, "")
		if typ == "submitted" {
			if payload["totalQuestions"] != float64(2) {
				t.Fatalf("unexpected outcome %v", payload)
			}
			break
		}
	}

	results, _ := env.store.ResultsByExam(context.Background(), env.exam.ID)
	if len(results) != 1 {
		t.Fatalf("expected exactly one auto-submitted result, got %d", len(results))
	}
}

func TestWebSocketClosingStopsTheClock(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond)
	conn := env.dial(t, "examId="+env.exam.ID)
	readNext(conn, t, "exam")
	readNext(conn, t, "state")
	send(t, conn, "start", map[string]any{"name": "Carol"})
	readNext(conn, t, "state")

	conn.Close()
	// 60 ticks at 10ms would auto-submit well within this wait.
	time.Sleep(time.Second)

	results, _ := env.store.ResultsByExam(context.Background(), env.exam.ID)
	if len(results) != 0 {
		t.Fatalf("closed socket must not auto-submit, got %d results", len(results))
	}
}

func TestWebSocketRejectsBadTargets(t *testing.T) {
	env := newTestEnv(t, time.Second)
	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"

	cases := map[string]int{
		"":                                  http.StatusBadRequest,
		"?examId=missing":                   http.StatusConflict,
		"?scheduleId=missing&studentId=st1": http.StatusNotFound,
		"?scheduleId=missing":               http.StatusBadRequest,
	}
	for query, want := range cases {
		_, resp, err := websocket.DefaultDialer.Dial(u+query, nil)
		if err == nil {
			t.Fatalf("%q: expected handshake failure", query)
		}
		if resp == nil || resp.StatusCode != want {
			t.Fatalf("%q: expected status %d, got %+v", query, want, resp)
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func sampleExam() domain.Exam {
	return domain.Exam{
		Title:    "Arithmetic",
		Duration: 1,
		IsActive: true,
		Questions: []domain.Question{
			{Text: "2 + 2", Options: []string{"3", "4", "5"}, CorrectAnswer: 1},
			{Text: "3 * 3", Options: []string{"6", "9"}, CorrectAnswer: 1},
		},
	}
}

func dialRaw(env *testEnv, query string) (*websocket.Conn, *http.Response, error) {
	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?" + query
	return websocket.DefaultDialer.Dial(u, nil)
}

func TestOutboxGivesUpWhenWriterDies(t *testing.T) {
	out := newOutbox(1)
	msg := outboundMessage[any]{Type: "state"}

	if !out.push(msg, nil) {
		t.Fatalf("expected first message queued")
	}
	close(out.writerDone)

	pushed := make(chan bool, 1)
	go func() { pushed <- out.push(msg, nil) }()
	select {
	case ok := <-pushed:
		if ok {
			t.Fatalf("full queue with a dead writer must not report success")
		}
	case <-time.After(time.Second):
		t.Fatalf("push blocked after the writer died")
	}
}

func TestOutboxStopsOnSignal(t *testing.T) {
	out := newOutbox(0)
	stop := make(chan struct{})
	close(stop)

	if out.push(outboundMessage[any]{Type: "submitted"}, stop) {
		t.Fatalf("expected push to give up once stopped")
	}
}
