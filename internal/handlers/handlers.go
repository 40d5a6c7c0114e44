// Package handlers exposes the submission, analytics and admin APIs over HTTP.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/ewaste-check/internal/auth"
	"github.com/example/ewaste-check/internal/geo"
	"github.com/example/ewaste-check/internal/repository"
	"github.com/example/ewaste-check/internal/usecase"
)

// MaxUploadSize is the default largest accepted image, in bytes.
const MaxUploadSize = 10 << 20

// DefaultAdminRole is required on admin routes when Config leaves it empty.
const DefaultAdminRole = "admin"

// multipartOverhead leaves room for form fields and part headers around the image.
const multipartOverhead = 1 << 20

// SubmissionService evaluates and looks up submissions.
type SubmissionService interface {
	Submit(ctx context.Context, who usecase.Submitter, req usecase.SubmitRequest) (*usecase.SubmitResponse, error)
	GetResult(ctx context.Context, userID, requestID string) (*usecase.SubmissionRecord, error)
	GetDuplicateReport(ctx context.Context, userID, requestID string) (*usecase.DuplicateReport, error)
}

// AnalyticsService summarizes stored submissions.
type AnalyticsService interface {
	GlobalAnalytics(ctx context.Context) (*usecase.GlobalAnalytics, error)
	UserAnalytics(ctx context.Context, userID string) (*usecase.UserAnalytics, error)
}

// AdminService manages bins and demo data.
type AdminService interface {
	ListBins(ctx context.Context) ([]repository.Bin, error)
	CreateBin(ctx context.Context, req usecase.CreateBinRequest) (*repository.Bin, error)
	UpdateBin(ctx context.Context, id string, patch usecase.BinPatch) error
	DeleteBin(ctx context.Context, id string) error
	Seed(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Services groups the use cases behind the routes.
type Services struct {
	Submissions SubmissionService
	Analytics   AnalyticsService
	Admin       AdminService
}

// Config tunes request handling. Zero values fall back to MaxUploadSize and DefaultAdminRole.
type Config struct {
	MaxUploadSize int64
	AdminRole     string
}

type api struct {
	svc           Services
	maxUploadSize int64
	adminRole     string
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, svc Services, authMiddleware gin.HandlerFunc, cfg Config) {
	h := &api{svc: svc, maxUploadSize: cfg.MaxUploadSize, adminRole: cfg.AdminRole}
	if h.maxUploadSize <= 0 {
		h.maxUploadSize = MaxUploadSize
	}
	if h.adminRole == "" {
		h.adminRole = DefaultAdminRole
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api", authMiddleware)
	protected.POST("/predict", h.predict)
	protected.GET("/result/:id", h.result)
	protected.GET("/reports/:id/duplicates", h.duplicates)
	protected.GET("/analytics/global", h.globalAnalytics)
	protected.GET("/analytics/user/:uid", h.userAnalytics)

	admin := protected.Group("/admin", auth.RequireRole(h.adminRole))
	admin.GET("/bins", h.listBins)
	admin.POST("/bins", h.createBin)
	admin.PUT("/bins/:id", h.updateBin)
	admin.DELETE("/bins/:id", h.deleteBin)
	admin.POST("/seed", h.seed)
	admin.POST("/reset", h.reset)
}

func (h *api) predict(c *gin.Context) {
	id, ok := auth.GetIdentity(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if file.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "file must be an image"})
		return
	}

	binID := strings.TrimSpace(c.PostForm("bin_id"))
	if binID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bin_id is required"})
		return
	}
	lat, err := parseCoordinate(c.PostForm("user_lat"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_lat must be a number"})
		return
	}
	lng, err := parseCoordinate(c.PostForm("user_lng"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_lng must be a number"})
		return
	}
	if err := (geo.Point{Lat: lat, Lng: lng}).Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	resp, err := h.svc.Submissions.Submit(c.Request.Context(),
		usecase.Submitter{UserID: id.UserID, Name: id.Name, Email: id.Email},
		usecase.SubmitRequest{BinID: binID, Latitude: lat, Longitude: lng, Image: data})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *api) result(c *gin.Context) {
	userID, _ := auth.GetUserID(c.Request.Context())
	requestID := c.Param("id")

	record, err := h.svc.Submissions.GetResult(c.Request.Context(), userID, requestID)
	if errors.Is(err, usecase.ErrProcessing) {
		c.JSON(http.StatusAccepted, gin.H{"request_id": requestID, "status": "processing"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *api) duplicates(c *gin.Context) {
	userID, _ := auth.GetUserID(c.Request.Context())

	report, err := h.svc.Submissions.GetDuplicateReport(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request":         report.Request,
		"duplicates":      report.Duplicates,
		"duplicate_count": len(report.Duplicates),
	})
}

func (h *api) globalAnalytics(c *gin.Context) {
	summary, err := h.svc.Analytics.GlobalAnalytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *api) userAnalytics(c *gin.Context) {
	id, _ := auth.GetIdentity(c.Request.Context())
	uid := c.Param("uid")
	if uid == "me" {
		uid = id.UserID
	}
	if uid != id.UserID && id.Role != h.adminRole {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's analytics"})
		return
	}

	summary, err := h.svc.Analytics.UserAnalytics(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func parseCoordinate(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}
