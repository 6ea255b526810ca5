// internal/api/forms.go
package api

import (
	"io"
	"net/http"

	"talent-intake/internal/intake"

	"github.com/gin-gonic/gin"
)

func respondDraft(c *gin.Context, d *intake.Draft, err error, okStatus int) {
	var state interface{}
	if d != nil {
		state = d
	}
	respondWithState(c, "draft", state, err, okStatus)
}

func (s *Server) startForm(c *gin.Context) {
	d, err := s.deps.Intake.Start(c.Request.Context())
	respondDraft(c, d, err, http.StatusCreated)
}

func (s *Server) getForm(c *gin.Context) {
	d, err := s.deps.Intake.Get(c.Request.Context(), c.Param("id"))
	respondDraft(c, d, err, http.StatusOK)
}

func (s *Server) updateForm(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		badRequest(c, "body", "unable to read request body")
		return
	}
	patch, err := intake.ParsePatch(raw)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := s.deps.Intake.Update(c.Request.Context(), c.Param("id"), patch)
	respondDraft(c, d, err, http.StatusOK)
}

func (s *Server) nextStep(c *gin.Context) {
	d, err := s.deps.Intake.Next(c.Request.Context(), c.Param("id"))
	respondDraft(c, d, err, http.StatusOK)
}

func (s *Server) prevStep(c *gin.Context) {
	d, err := s.deps.Intake.Prev(c.Request.Context(), c.Param("id"))
	respondDraft(c, d, err, http.StatusOK)
}

type toggleSkillRequest struct {
	Skill string `json:"skill" binding:"required"`
}

func (s *Server) toggleSkill(c *gin.Context) {
	var req toggleSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "skill", "skill is required")
		return
	}
	d, err := s.deps.Intake.ToggleSkill(c.Request.Context(), c.Param("id"), req.Skill)
	respondDraft(c, d, err, http.StatusOK)
}

func (s *Server) attachCV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxCVBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "cvFile", "Please upload your CV")
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, "cvFile", "unable to read the uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.config.MaxCVBytes+1))
	if err != nil {
		badRequest(c, "cvFile", "unable to read the uploaded file")
		return
	}

	d, err := s.deps.Intake.AttachCV(c.Request.Context(), c.Param("id"), intake.CVFile{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	respondDraft(c, d, err, http.StatusOK)
}

func (s *Server) submitForm(c *gin.Context) {
	d, err := s.deps.Intake.Submit(c.Request.Context(), c.Param("id"))
	respondDraft(c, d, err, http.StatusOK)
}

func (s *Server) resetForm(c *gin.Context) {
	d, err := s.deps.Intake.Reset(c.Request.Context(), c.Param("id"))
	respondDraft(c, d, err, http.StatusOK)
}
