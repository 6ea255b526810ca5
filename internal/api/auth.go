// internal/api/auth.go
package api

import (
	"net/http"
	"strings"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/models"
	"talent-intake/internal/router"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) newRouter(c *gin.Context) *router.Router {
	return router.New(s.deps.Records, sessionFrom(c), s.logger)
}

// resolveView answers which screen to show for the caller and the optional candidate id.
func (s *Server) resolveView(c *gin.Context) {
	state := s.newRouter(c).Resolve(c.Request.Context(), c.Query("candidate"))
	c.JSON(http.StatusOK, state)
}

const maxViewWait = 25 * time.Second

// watchView long-polls until a session event for the caller's user arrives or the
// wait runs out, and answers with the view the caller should move to.
func (s *Server) watchView(c *gin.Context) {
	wait := maxViewWait
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			badRequest(c, "wait", "wait must be a positive duration")
			return
		}
		if d < wait {
			wait = d
		}
	}

	sess := sessionFrom(c)
	rt := s.newRouter(c)
	state := rt.Navigate(router.ViewAdmin)

	events := make(chan models.SessionEvent, 8)
	unsubscribe := s.deps.Sessions.OnSessionChange(func(event models.SessionEvent) {
		if event.UserID != sess.UserID {
			return
		}
		select {
		case events <- event:
		default:
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case event := <-events:
		c.JSON(http.StatusOK, gin.H{"changed": true, "event": event, "state": rt.HandleSessionChange(event)})
	case <-timer.C:
		c.JSON(http.StatusOK, gin.H{"changed": false, "state": state})
	case <-c.Request.Context().Done():
		c.JSON(http.StatusOK, gin.H{"changed": false, "state": state})
	}
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "email and password are required")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "Email is required"
	}
	if req.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		respondError(c, errors.NewApplicationValidationFailedError(fields))
		return
	}

	sess, err := s.deps.Sessions.SignIn(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	state := s.newRouter(c).LoginSucceeded(sess)
	c.JSON(http.StatusOK, gin.H{
		"token":     sess.ID,
		"expiresAt": sess.ExpiresAt,
		"state":     state,
	})
}

func (s *Server) logout(c *gin.Context) {
	sess := sessionFrom(c)
	if err := s.deps.Sessions.SignOut(c.Request.Context(), sess.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.newRouter(c).Logout()})
}

func (s *Server) currentSession(c *gin.Context) {
	sess := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"session":      sess,
		"capabilities": router.CapabilitiesFor(sess.Role),
	})
}

// PublicProfile is the read-only view of an application shared by link.
type PublicProfile struct {
	ID                        string   `json:"id"`
	FullName                  string   `json:"full_name"`
	Role                      string   `json:"role"`
	OtherRoleSpecify          *string  `json:"other_role_specify,omitempty"`
	ExperienceYears           string   `json:"experience_years"`
	EducationLevel            string   `json:"education_level"`
	TopSkills                 []string `json:"top_skills"`
	HasMeasurableAchievements bool     `json:"has_measurable_achievements"`
	MeasurableAchievement     *string  `json:"measurable_achievement,omitempty"`
	WorkType                  string   `json:"work_type"`
	LinkedInURL               *string  `json:"linkedin_url,omitempty"`
	PortfolioURL              *string  `json:"portfolio_url,omitempty"`
}

func toPublicProfile(app *models.Application) PublicProfile {
	return PublicProfile{
		ID:                        app.ID,
		FullName:                  app.FullName,
		Role:                      app.Role,
		OtherRoleSpecify:          app.OtherRoleSpecify,
		ExperienceYears:           app.ExperienceYears,
		EducationLevel:            app.EducationLevel,
		TopSkills:                 app.TopSkills,
		HasMeasurableAchievements: app.HasMeasurableAchievements,
		MeasurableAchievement:     app.MeasurableAchievement,
		WorkType:                  app.WorkType,
		LinkedInURL:               app.LinkedInURL,
		PortfolioURL:              app.PortfolioURL,
	}
}

func (s *Server) publicProfile(c *gin.Context) {
	app, err := s.deps.Records.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if app == nil {
		respondError(c, errors.NewResourceNotFoundError("applications", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, toPublicProfile(app))
}

type roleRequest struct {
	Role models.UserRole `json:"role"`
}

func (s *Server) listProfiles(c *gin.Context) {
	profiles, err := s.deps.Records.ListProfiles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (s *Server) updateProfileRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Role.Valid() {
		badRequest(c, "role", "role must be super_admin, recruiter or guest")
		return
	}

	actor := sessionFrom(c)
	profile, err := s.deps.Records.UpdateProfileRole(c.Request.Context(), c.Param("id"), req.Role, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	// live sessions pick up the new role; a failure here only delays it until next sign-in
	if _, err := s.deps.Sessions.ApplyRoleChange(c.Request.Context(), profile.ID, profile.Role); err != nil {
		s.logger.Warn("failed to propagate role change", map[string]interface{}{
			"profileId": profile.ID,
			"error":     err,
		})
	}
	c.JSON(http.StatusOK, profile)
}
