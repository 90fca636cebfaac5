package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/sitegrade/cache"
	"github.com/use-agent/sitegrade/models"
	"github.com/use-agent/sitegrade/pipeline"
	"github.com/use-agent/sitegrade/progress"
	"github.com/use-agent/sitegrade/store"
)

// PostScan returns a handler for POST /api/v1/scan.
//
// It validates the target URL before any work starts, optionally serves a
// recent cached scan, then registers the job and launches the pipeline in
// the background. The response carries the scan id for polling.
func PostScan(runner *pipeline.Runner, st *store.Store, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScanResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "url is required and must be a valid URL",
				},
			})
			return
		}
		req.Defaults()

		if err := validateTarget(req.URL); err != nil {
			c.JSON(http.StatusBadRequest, models.ScanResponse{
				Error: err.ToDetail(),
			})
			return
		}

		key := cache.Key(req.URL, req.Profile)
		if req.UseCache {
			if scanID, hit := cc.Get(key, req.MaxAgeMs); hit {
				if job, ok := st.Job(scanID); ok && job.Status == models.ScanCompleted {
					c.JSON(http.StatusOK, models.ScanResponse{
						ID:          scanID,
						Status:      job.Status,
						CacheStatus: "hit",
					})
					return
				}
			}
		}

		job := &models.ScanJob{
			ID:        uuid.NewString(),
			TargetURL: req.URL,
			Status:    models.ScanPending,
			Profile:   req.Profile,
			CreatedAt: time.Now(),
		}
		st.Put(job)

		go func() {
			runner.Run(context.Background(), job)
			if done, ok := st.Job(job.ID); ok && done.Status == models.ScanCompleted {
				cc.Set(key, done.ID)
			}
		}()

		c.JSON(http.StatusAccepted, models.ScanResponse{
			ID:     job.ID,
			Status: models.ScanPending,
		})
	}
}

// GetScan returns a handler for GET /api/v1/scan/:id.
// While the scan runs, the response includes the latest progress.
func GetScan(st *store.Store, tracker *progress.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		job, ok := st.Job(id)
		if !ok {
			c.JSON(http.StatusNotFound, models.ScanResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "unknown scan id",
				},
			})
			return
		}

		resp := models.ScanStatusResponse{Job: job}
		if p, ok := tracker.Get(id); ok {
			resp.Progress = &p
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetReport returns a handler for GET /api/v1/scan/:id/report.
// 404 until the scan has completed.
func GetReport(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		job, ok := st.Job(id)
		if !ok {
			c.JSON(http.StatusNotFound, models.ScanResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "unknown scan id",
				},
			})
			return
		}

		if job.Status == models.ScanFailed {
			c.JSON(http.StatusUnprocessableEntity, models.ScanResponse{
				ID:     job.ID,
				Status: job.Status,
				Error:  job.Error,
			})
			return
		}

		report, ok := st.Report(id)
		if !ok {
			c.JSON(http.StatusNotFound, models.ScanResponse{
				ID:     job.ID,
				Status: job.Status,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "report not ready",
				},
			})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// validateTarget rejects anything that is not an absolute http(s) URL with a
// host, before any crawl work starts.
func validateTarget(target string) *models.AuditError {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewAuditError(models.ErrCodeInvalidInput, "target must be an absolute http(s) URL", err)
	}
	return nil
}
