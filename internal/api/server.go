// Package api exposes the HTTP front end: the inbound webhook, the automation
// control endpoints and the application listing.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobpilot.local/internal/analyzer"
	"jobpilot.local/internal/ledger"
	"jobpilot.local/internal/pipeline"
)

// Processor runs the application pipeline for one notification.
type Processor interface {
	Process(ctx context.Context, subject, body, sender string) (*pipeline.Outcome, error)
}

// Server wires the routes to the pipeline and the ledger.
type Server struct {
	engine     *gin.Engine
	processor  Processor
	ledger     *ledger.Ledger
	automation *Automation
	logger     *zap.Logger
}

func New(processor Processor, led *ledger.Ledger, logger *zap.Logger) *Server {
	s := &Server{
		engine:     gin.New(),
		processor:  processor,
		ledger:     led,
		automation: NewAutomation(),
		logger:     logger,
	}

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	s.engine.Use(cors.New(config))

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.handleHealth)

	api.POST("/zapier/webhook/linkedin-email", s.handleWebhook)
	api.GET("/zapier/webhook/test", s.handleTestWebhook)
	api.POST("/zapier/webhook/test", s.handleTestWebhook)
	api.GET("/zapier/config", s.handleZapierConfig)

	api.GET("/automation/status", s.handleAutomationStatus)
	api.POST("/automation/start", s.handleAutomationStart)
	api.POST("/automation/stop", s.handleAutomationStop)
	api.GET("/automation/applications", s.handleApplications)
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("http server starting", zap.String("addr", addr))
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type webhookRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender"`
}

type webhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*pipeline.Outcome
}

// handleWebhook is the main inbound trigger. Validation failures are 400,
// pipeline failures are 500; both carry a descriptive message.
func (s *Server) handleWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("webhook received without usable payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "no data received: " + err.Error()})
		return
	}

	// `{}` and `null` bind without error; an all-empty payload must not
	// start the pipeline.
	if req.Subject == "" && req.Body == "" && req.Sender == "" {
		s.logger.Warn("webhook received an empty payload")
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "no data received"})
		return
	}

	outcome, err := s.processor.Process(c.Request.Context(), req.Subject, req.Body, req.Sender)
	if err != nil {
		s.logger.Error("pipeline failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "processing failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, webhookResponse{
		Status:  "success",
		Message: "automated application pipeline completed",
		Outcome: outcome,
	})
}

func (s *Server) handleTestWebhook(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "test webhook operational", "method": http.MethodGet})
		return
	}

	var data map[string]any
	_ = c.ShouldBindJSON(&data)
	if data == nil {
		data = map[string]any{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       "test webhook received",
		"method":        http.MethodPost,
		"data_received": data,
	})
}

func (s *Server) handleZapierConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"webhooks": gin.H{
			"linkedin_email": "/api/zapier/webhook/linkedin-email",
			"test":           "/api/zapier/webhook/test",
		},
		"job_categories":    analyzer.Categories(),
		"supported_methods": []string{http.MethodPost},
		"content_type":      "application/json",
	})
}

func (s *Server) handleAutomationStatus(c *gin.Context) {
	status, message := "stopped", "the system is paused"
	if s.automation.Running() {
		status, message = "active", "automation system operational"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "message": message})
}

func (s *Server) handleAutomationStart(c *gin.Context) {
	s.automation.Start()
	c.JSON(http.StatusOK, gin.H{"status": "started", "message": "automation started"})
}

func (s *Server) handleAutomationStop(c *gin.Context) {
	s.automation.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped", "message": "automation stopped"})
}

type applicationView struct {
	ID       string `json:"id"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Status   string `json:"status"`
	Date     string `json:"date"`
}

// handleApplications lists every tracked application, with the application
// date truncated to calendar-day precision for display.
func (s *Server) handleApplications(c *gin.Context) {
	records, err := s.ledger.List()
	if err != nil {
		s.logger.Error("listing applications failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "reading applications: " + err.Error()})
		return
	}

	views := make([]applicationView, 0, len(records))
	for _, record := range records {
		views = append(views, applicationView{
			ID:       record.JobID,
			Company:  record.Company,
			Position: record.Position,
			Status:   record.Status,
			Date:     record.DateApplied.Format("2006-01-02"),
		})
	}

	c.JSON(http.StatusOK, views)
}
