// internal/api/applications.go
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/dashboard"
	"talent-intake/internal/models"

	"github.com/gin-gonic/gin"
)

func parseSort(c *gin.Context) (dashboard.SortConfig, error) {
	key := dashboard.SortKey(c.Query("sort"))
	if key == "" {
		return dashboard.SortConfig{Direction: dashboard.None}, nil
	}
	if !dashboard.ValidSortKey(key) {
		return dashboard.SortConfig{}, errors.NewInvalidFilterFormatError("unknown sort key: " + string(key))
	}

	dir := dashboard.Direction(c.DefaultQuery("direction", string(dashboard.Asc)))
	switch dir {
	case dashboard.Asc, dashboard.Desc, dashboard.None:
	default:
		return dashboard.SortConfig{}, errors.NewInvalidFilterFormatError("direction must be asc, desc or none")
	}
	return dashboard.SortConfig{Key: key, Direction: dir}, nil
}

func (s *Server) listApplications(c *gin.Context) {
	filter, err := dashboard.ParseFilterState(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	sortCfg, err := parseSort(c)
	if err != nil {
		respondError(c, err)
		return
	}

	apps, err := s.deps.Board.View(c.Request.Context(), filter, sortCfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"total":        len(apps),
		"sort":         sortCfg,
	})
}

func (s *Server) applicationStats(c *gin.Context) {
	stats, err := s.deps.Board.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// searchApplications ranks with the search index, then resolves ids against the board so
// the response carries the same records as the list.
func (s *Server) searchApplications(c *gin.Context) {
	if s.deps.Search == nil {
		respondError(c, errors.NewExternalServiceError("elasticsearch", fmt.Errorf("search is not configured")))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	ids, err := s.deps.Search.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	apps, err := s.deps.Board.Applications(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	byID := make(map[string]models.Application, len(apps))
	for _, app := range apps {
		byID[app.ID] = app
	}
	results := make([]models.Application, 0, len(ids))
	for _, id := range ids {
		if app, ok := byID[id]; ok {
			results = append(results, app)
		}
	}
	c.JSON(http.StatusOK, gin.H{"applications": results, "total": len(results)})
}

func (s *Server) loadApplication(c *gin.Context) (*models.Application, bool) {
	app, err := s.deps.Records.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if app == nil {
		respondError(c, errors.NewResourceNotFoundError("applications", c.Param("id")))
		return nil, false
	}
	return app, true
}

func (s *Server) getApplication(c *gin.Context) {
	if app, ok := s.loadApplication(c); ok {
		c.JSON(http.StatusOK, app)
	}
}

func (s *Server) applicationCV(c *gin.Context) {
	app, ok := s.loadApplication(c)
	if !ok {
		return
	}
	if app.CVFilePath == nil {
		respondError(c, errors.NewResourceNotFoundError("cvs", "application has no CV"))
		return
	}

	url, err := s.deps.CVs.SignedURL(c.Request.Context(), s.config.CVBucket, *app.CVFilePath, s.config.SignedURLTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":       url,
		"expiresIn": int(s.config.SignedURLTTL / time.Second),
	})
}

type rateRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) rateApplication(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "rating", "Rating must be between 1 and 5")
		return
	}
	res, err := s.deps.Board.Rate(c.Request.Context(), c.Param("id"), req.Rating, sessionFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type bulkStatusRequest struct {
	IDs    []string               `json:"ids"`
	Status models.ScreeningStatus `json:"status"`
}

func (s *Server) bulkStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "ids and status are required")
		return
	}
	res, err := s.deps.Board.BulkUpdateStatus(c.Request.Context(), req.IDs, req.Status, sessionFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type exportRequest struct {
	IDs    []string `json:"ids"`
	Target string   `json:"target"`
}

func (s *Server) exportApplications(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "ids are required")
		return
	}

	switch req.Target {
	case "", "csv":
		csv, err := s.deps.Board.Export(c.Request.Context(), req.IDs)
		if err != nil {
			respondError(c, err)
			return
		}
		filename := fmt.Sprintf("candidates_export_%s.csv", time.Now().UTC().Format(time.DateOnly))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))

	case "sheets":
		if s.deps.Sheets == nil || s.config.SpreadsheetID == "" {
			respondError(c, errors.NewExportFailedError("sheets", fmt.Errorf("spreadsheet export is not configured")))
			return
		}
		apps, err := s.deps.Board.Applications(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		rows, err := dashboard.ExportToSheet(c.Request.Context(), s.deps.Sheets, s.config.SpreadsheetID, s.config.SheetRange, apps, req.IDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rows": rows, "spreadsheetId": s.config.SpreadsheetID})

	default:
		badRequest(c, "target", "target must be csv or sheets")
	}
}
