package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"proposal_assistant/exporter"
	"proposal_assistant/generator"
	"proposal_assistant/session"
)

type refineReq struct {
	Instruction string `json:"instruction"`
}

type exportResp struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

func (s *Server) healthCheck(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

// createSession opens a session. A non-empty body is taken as the intake and
// submitted straight away.
func (s *Server) createSession(c *gin.Context) {
	in, present, err := bindIntake(c)
	if err != nil {
		s.reject(c, "create", err)
		return
	}
	sess := s.registry.Create()
	s.log.Info("session created", "session_id", sess.ID)
	if !present {
		c.JSON(http.StatusCreated, sess.Snapshot())
		return
	}
	p, err := sess.SubmitIntake(c.Request.Context(), in)
	if err != nil {
		_ = s.registry.Delete(c.Request.Context(), sess.ID)
		s.reject(c, "create", err)
		return
	}
	s.respondPending(c, sess, p)
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c, "get")
	if !ok {
		return
	}
	RespondOK(c, sess.Snapshot())
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.registry.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.reject(c, "delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) submitIntake(c *gin.Context) {
	sess, ok := s.lookup(c, "intake")
	if !ok {
		return
	}
	in, present, err := bindIntake(c)
	if err == nil && !present {
		err = generator.ErrInvalidIntake
	}
	if err != nil {
		s.reject(c, "intake", err)
		return
	}
	p, err := sess.SubmitIntake(c.Request.Context(), in)
	if err != nil {
		s.reject(c, "intake", err)
		return
	}
	s.respondPending(c, sess, p)
}

func (s *Server) advance(c *gin.Context) {
	sess, ok := s.lookup(c, "advance")
	if !ok {
		return
	}
	p, err := sess.Advance(c.Request.Context())
	if err != nil {
		s.reject(c, "advance", err)
		return
	}
	s.respondPending(c, sess, p)
}

func (s *Server) refine(c *gin.Context) {
	sess, ok := s.lookup(c, "refine")
	if !ok {
		return
	}
	stage, err := generator.ParseStage(c.Param("stage"))
	if err != nil {
		s.reject(c, "refine", errors.Join(session.ErrStageLocked, err))
		return
	}
	var req refineReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := sess.Refine(c.Request.Context(), stage, req.Instruction)
	if err != nil {
		s.reject(c, "refine", err)
		return
	}
	s.respondPending(c, sess, p)
}

func (s *Server) reset(c *gin.Context) {
	sess, ok := s.lookup(c, "reset")
	if !ok {
		return
	}
	sess.Reset()
	RespondOK(c, sess.Snapshot())
}

// export serves the proposal as a text attachment, rendered HTML, or the whole
// framework as markdown.
func (s *Server) export(c *gin.Context) {
	sess, ok := s.lookup(c, "export")
	if !ok {
		return
	}
	snap := sess.Snapshot()
	format := c.DefaultQuery("format", "txt")
	if format == "md" {
		if snap.Framework.Len() == 0 {
			s.reject(c, "export", exporter.ErrNoProposal)
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(exporter.Markdown(snap.Framework.Sections())))
		return
	}

	proposal, ok := snap.Framework.Proposal()
	if !ok {
		s.reject(c, "export", exporter.ErrNoProposal)
		return
	}
	switch format {
	case "txt":
		c.Header("Content-Disposition", `attachment; filename="`+exporter.FileName+`"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(exporter.PlainText(proposal)))
	case "html":
		out, err := exporter.HTML(proposal)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "render_failed", err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
	case "json":
		RespondOK(c, exportResp{FileName: exporter.FileName, Content: exporter.PlainText(proposal)})
	default:
		RespondError(c, http.StatusBadRequest, "bad_format", errors.New("format must be txt, html, md or json"))
	}
}

func (s *Server) lookup(c *gin.Context, op string) (*session.Session, bool) {
	sess, err := s.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.reject(c, op, err)
		return nil, false
	}
	return sess, true
}

// respondPending answers 202 with the in-flight snapshot, or with ?wait=true
// blocks until the generation settles and answers 200.
func (s *Server) respondPending(c *gin.Context, sess *session.Session, p *session.Pending) {
	wait, _ := strconv.ParseBool(c.Query("wait"))
	if !wait {
		c.JSON(http.StatusAccepted, sess.Snapshot())
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	err := p.Wait(ctx)
	switch {
	case errors.Is(err, session.ErrStale):
		s.reject(c, "wait", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusAccepted, sess.Snapshot())
	default:
		// A failed generation is part of the session state, shown via its error field.
		RespondOK(c, sess.Snapshot())
	}
}

func (s *Server) reject(c *gin.Context, op string, err error) {
	status, code := classify(err)
	s.metrics.ObserveRejection(op, code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "op", op, "error", err)
	}
	RespondError(c, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrInvalidIntake):
		return http.StatusBadRequest, "invalid_intake"
	case errors.Is(err, session.ErrEmptyInstruction):
		return http.StatusBadRequest, "empty_instruction"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, session.ErrStageLocked):
		return http.StatusConflict, "stage_locked"
	case errors.Is(err, session.ErrNotSubmitted):
		return http.StatusConflict, "not_submitted"
	case errors.Is(err, session.ErrAlreadySubmitted):
		return http.StatusConflict, "already_submitted"
	case errors.Is(err, session.ErrComplete):
		return http.StatusConflict, "complete"
	case errors.Is(err, session.ErrStale):
		return http.StatusConflict, "stale"
	case errors.Is(err, exporter.ErrNoProposal):
		return http.StatusConflict, "no_proposal"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func bindIntake(c *gin.Context) (generator.Intake, bool, error) {
	var in generator.Intake
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return in, false, nil
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, false, nil
		}
		return in, false, errors.Join(generator.ErrInvalidIntake, err)
	}
	return in, true, nil
}
