package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"exam-portal/internal/app"
	"exam-portal/internal/domain"
	"github.com/gorilla/mux"
)

var (
	errMissingTarget      = errors.New("missing scheduleId or examId")
	errInvalidPayload     = errors.New("invalid payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)

// API exposes the teacher and student dashboards over JSON.
type API struct {
	service *app.PortalService
}

func NewAPI(service *app.PortalService) *API {
	return &API{service: service}
}

// NewRouter mounts the REST API, the session socket and, when given, the metrics handler.
func NewRouter(api *API, ws *WSHandler, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws", ws.ServeWS)

	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/students/{studentID}/schedules", api.studentSchedules).Methods(http.MethodGet)
	s.HandleFunc("/schedules", api.teacherSchedules).Methods(http.MethodGet)
	s.HandleFunc("/schedules", api.createSchedule).Methods(http.MethodPost)
	s.HandleFunc("/schedules/{scheduleID}", api.updateSchedule).Methods(http.MethodPut)
	s.HandleFunc("/schedules/{scheduleID}", api.deleteSchedule).Methods(http.MethodDelete)
	s.HandleFunc("/sessions/{sessionID}", api.sessionState).Methods(http.MethodGet)
	s.HandleFunc("/exams", api.listExams).Methods(http.MethodGet)
	s.HandleFunc("/exams", api.createExam).Methods(http.MethodPost)
	s.HandleFunc("/exams/{examID}", api.updateExam).Methods(http.MethodPut)
	s.HandleFunc("/exams/{examID}", api.deleteExam).Methods(http.MethodDelete)
	s.HandleFunc("/exams/{examID}/active", api.setExamActive).Methods(http.MethodPatch)
	s.HandleFunc("/exams/{examID}/results", api.examResults).Methods(http.MethodGet)
	s.HandleFunc("/courses", api.listCourses).Methods(http.MethodGet)
	s.HandleFunc("/courses", api.createCourse).Methods(http.MethodPost)
	s.HandleFunc("/courses/{courseID}", api.deleteCourse).Methods(http.MethodDelete)
	s.HandleFunc("/classes", api.listClasses).Methods(http.MethodGet)
	s.HandleFunc("/classes", api.createClass).Methods(http.MethodPost)
	s.HandleFunc("/students", api.createStudent).Methods(http.MethodPost)
	s.HandleFunc("/teachers", api.createTeacher).Methods(http.MethodPost)
	s.HandleFunc("/teachers/{teacherID}", api.getTeacher).Methods(http.MethodGet)
	return r
}

func (a *API) studentSchedules(w http.ResponseWriter, r *http.Request) {
	viewer := domain.Viewer{StudentID: mux.Vars(r)["studentID"]}
	views, err := a.service.StudentSchedules(r.Context(), viewer)
	respond(w, http.StatusOK, views, err)
}

func (a *API) teacherSchedules(w http.ResponseWriter, r *http.Request) {
	views, err := a.service.TeacherSchedules(r.Context())
	respond(w, http.StatusOK, views, err)
}

func (a *API) createSchedule(w http.ResponseWriter, r *http.Request) {
	var draft app.ScheduleDraft
	if !decode(w, r, &draft) {
		return
	}
	schedule, err := a.service.ScheduleExam(r.Context(), draft)
	respond(w, http.StatusCreated, schedule, err)
}

func (a *API) updateSchedule(w http.ResponseWriter, r *http.Request) {
	var draft app.ScheduleDraft
	if !decode(w, r, &draft) {
		return
	}
	schedule, err := a.service.RescheduleExam(r.Context(), mux.Vars(r)["scheduleID"], draft)
	respond(w, http.StatusOK, schedule, err)
}

func (a *API) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := a.service.CancelSchedule(r.Context(), mux.Vars(r)["scheduleID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionState reports an open session, e.g. for a proctor checking the countdown.
func (a *API) sessionState(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.Session(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (a *API) listExams(w http.ResponseWriter, r *http.Request) {
	exams, err := a.service.ListExams(r.Context())
	respond(w, http.StatusOK, exams, err)
}

func (a *API) deleteExam(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteExam(r.Context(), mux.Vars(r)["examID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createExam(w http.ResponseWriter, r *http.Request) {
	var draft app.ExamDraft
	if !decode(w, r, &draft) {
		return
	}
	exam, err := a.service.CreateExam(r.Context(), draft)
	respond(w, http.StatusCreated, exam, err)
}

func (a *API) updateExam(w http.ResponseWriter, r *http.Request) {
	var draft app.ExamDraft
	if !decode(w, r, &draft) {
		return
	}
	exam, err := a.service.UpdateExam(r.Context(), mux.Vars(r)["examID"], draft)
	respond(w, http.StatusOK, exam, err)
}

func (a *API) setExamActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if !decode(w, r, &body) {
		return
	}
	exam, err := a.service.SetExamActive(r.Context(), mux.Vars(r)["examID"], body.Active)
	respond(w, http.StatusOK, exam, err)
}

func (a *API) examResults(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.ExamResults(r.Context(), mux.Vars(r)["examID"])
	respond(w, http.StatusOK, report, err)
}

func (a *API) createCourse(w http.ResponseWriter, r *http.Request) {
	var draft app.CourseDraft
	if !decode(w, r, &draft) {
		return
	}
	course, err := a.service.CreateCourse(r.Context(), draft)
	respond(w, http.StatusCreated, course, err)
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.service.ListCourses(r.Context())
	respond(w, http.StatusOK, courses, err)
}

func (a *API) deleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCourse(r.Context(), mux.Vars(r)["courseID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := a.service.ListClasses(r.Context())
	respond(w, http.StatusOK, classes, err)
}

func (a *API) createClass(w http.ResponseWriter, r *http.Request) {
	var draft app.ClassDraft
	if !decode(w, r, &draft) {
		return
	}
	class, err := a.service.CreateClass(r.Context(), draft)
	respond(w, http.StatusCreated, class, err)
}

func (a *API) createStudent(w http.ResponseWriter, r *http.Request) {
	var draft app.StudentDraft
	if !decode(w, r, &draft) {
		return
	}
	student, err := a.service.RegisterStudent(r.Context(), draft)
	respond(w, http.StatusCreated, student, err)
}

func (a *API) createTeacher(w http.ResponseWriter, r *http.Request) {
	var draft app.TeacherDraft
	if !decode(w, r, &draft) {
		return
	}
	teacher, err := a.service.RegisterTeacher(r.Context(), draft)
	respond(w, http.StatusCreated, teacher, err)
}

func (a *API) getTeacher(w http.ResponseWriter, r *http.Request) {
	teacher, err := a.service.Teacher(r.Context(), mux.Vars(r)["teacherID"])
	respond(w, http.StatusOK, teacher, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: errInvalidPayload.Error()})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, body any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, errMissingTarget):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrExamNotFound),
		errors.Is(err, domain.ErrScheduleNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAvailable),
		errors.Is(err, domain.ErrSessionState),
		errors.Is(err, domain.ErrDuplicateResult):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
