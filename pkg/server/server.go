// Package server exposes the dashboard views and write actions over HTTP and
// pushes recomputed views to websocket subscribers.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/coordinator"
	"github.com/harrisonrobin/taskboard/pkg/derive"
	"github.com/harrisonrobin/taskboard/pkg/extract"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/writer"
)

// maxUploadBytes bounds the size of a file sent for extraction.
const maxUploadBytes = 10 << 20

// Syncer is the coordinator surface used by the handlers.
type Syncer interface {
	View() derive.View
	Snapshot() *model.Snapshot
	Now() time.Time
	State() (coordinator.State, error)
	TriggerReload(ctx context.Context) (derive.View, error)
	SubmitWrite(ctx context.Context, action string, payload map[string]string) (writer.Result, error)
	Subscribe(fn coordinator.Observer) func()
}

// Extractor turns an uploaded document into a form suggestion.
type Extractor interface {
	Extract(ctx context.Context, file []byte, mimeType, instruction string) (*extract.Suggestion, error)
}

// CredentialStore holds the extraction API key.
type CredentialStore interface {
	Configured() bool
	SetAPIKey(key string) error
	Clear() error
}

// Server wires the handlers onto an echo instance.
type Server struct {
	echo      *echo.Echo
	sync      Syncer
	extractor Extractor
	creds     CredentialStore
	sheets    config.Sheets
	log       logrus.FieldLogger
}

// New builds a Server. sheets maps status updates to their sheet names.
func New(sync Syncer, extractor Extractor, creds CredentialStore, sheets config.Sheets, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		sync:      sync,
		extractor: extractor,
		creds:     creds,
		sheets:    sheets,
		log:       log,
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	api := e.Group("/api")
	api.GET("/view", s.getView)
	api.GET("/detail/:kind", s.getDetail)
	api.POST("/reload", s.postReload)
	api.POST("/meetings", s.postMeeting)
	api.POST("/todos", s.postTodo)
	api.POST("/status", s.postStatus)
	api.POST("/extract", s.postExtract)
	api.GET("/credential", s.getCredential)
	api.PUT("/credential", s.putCredential)
	api.DELETE("/credential", s.deleteCredential)
	api.GET("/ws", s.streamViews)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("dashboard listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	})
}

type viewResponse struct {
	State string      `json:"state"`
	Error string      `json:"error,omitempty"`
	View  derive.View `json:"view"`
}

func (s *Server) currentView() viewResponse {
	state, err := s.sync.State()
	resp := viewResponse{State: state.String(), View: s.sync.View()}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (s *Server) getView(c echo.Context) error {
	return c.JSON(http.StatusOK, s.currentView())
}

func (s *Server) getDetail(c echo.Context) error {
	kind, err := derive.ParseStatKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	detail, err := derive.ComputeDetail(s.sync.Snapshot(), kind, s.sync.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) postReload(c echo.Context) error {
	if _, err := s.sync.TriggerReload(c.Request().Context()); err != nil {
		return c.JSON(http.StatusBadGateway, s.currentView())
	}
	return c.JSON(http.StatusOK, s.currentView())
}

type writeResponse struct {
	Result      writer.Result `json:"result"`
	ReloadError string        `json:"reloadError,omitempty"`
	View        derive.View   `json:"view"`
}

func (s *Server) submit(c echo.Context, action string, payload map[string]string) error {
	result, err := s.sync.SubmitWrite(c.Request().Context(), action, payload)
	resp := writeResponse{Result: result, View: s.sync.View()}
	if !result.Success {
		return c.JSON(http.StatusBadGateway, resp)
	}
	if err != nil {
		resp.ReloadError = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) postMeeting(c echo.Context) error {
	var in writer.NewMeeting
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid meeting payload")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.AssignDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and assignDate are required")
	}
	return s.submit(c, writer.ActionAddMeeting, in.Payload())
}

func (s *Server) postTodo(c echo.Context) error {
	var in writer.NewTodo
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid todo payload")
	}
	in.Task = strings.TrimSpace(in.Task)
	if in.Task == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task is required")
	}
	return s.submit(c, writer.ActionAddTodo, in.Payload())
}

type statusRequest struct {
	Table  string `json:"table"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

var validStatuses = map[string]bool{
	model.StatusPending:    true,
	model.StatusInProgress: true,
	model.StatusReview:     true,
	model.StatusCompleted:  true,
}

func (s *Server) postStatus(c echo.Context) error {
	var in statusRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status payload")
	}
	table := model.Table(in.Table)
	if table != model.Meetings && table != model.Todos {
		return echo.NewHTTPError(http.StatusBadRequest, "table must be meetings or todos")
	}
	if in.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	if !validStatuses[in.Status] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	update := writer.StatusUpdate{ID: in.ID, Status: in.Status, Sheet: s.sheets.SheetFor(table)}
	return s.submit(c, writer.ActionUpdateStatus, update.Payload())
}

type extractResponse struct {
	Manual     bool                `json:"manual"`
	Error      string              `json:"error,omitempty"`
	Suggestion *extract.Suggestion `json:"suggestion,omitempty"`
	Form       *extract.Form       `json:"form,omitempty"`
}

func (s *Server) postExtract(c echo.Context) error {
	if !s.creds.Configured() {
		return echo.NewHTTPError(http.StatusPreconditionFailed, extract.ErrUnavailable.Error())
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	if len(data) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	suggestion, err := s.extractor.Extract(c.Request().Context(), data, fh.Header.Get(echo.HeaderContentType), c.FormValue("instruction"))
	switch {
	case errors.Is(err, extract.ErrUnavailable):
		return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, extract.ErrNoSuggestion):
		return c.JSON(http.StatusOK, extractResponse{Manual: true})
	case err != nil:
		return c.JSON(http.StatusBadGateway, extractResponse{Manual: true, Error: err.Error()})
	}
	form := suggestion.Fill(s.sync.View().Options)
	return c.JSON(http.StatusOK, extractResponse{Suggestion: suggestion, Form: &form})
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type credentialResponse struct {
	Configured bool `json:"configured"`
}

func (s *Server) getCredential(c echo.Context) error {
	return c.JSON(http.StatusOK, credentialResponse{Configured: s.creds.Configured()})
}

func (s *Server) putCredential(c echo.Context) error {
	var in credentialRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid credential payload")
	}
	if err := s.creds.SetAPIKey(in.APIKey); err != nil {
		s.log.WithError(err).Error("saving api key")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save api key")
	}
	return c.JSON(http.StatusOK, credentialResponse{Configured: s.creds.Configured()})
}

func (s *Server) deleteCredential(c echo.Context) error {
	if err := s.creds.Clear(); err != nil {
		s.log.WithError(err).Error("clearing api key")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not clear api key")
	}
	return c.JSON(http.StatusOK, credentialResponse{Configured: false})
}
