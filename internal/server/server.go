// Package server exposes the post generation pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/TobiSchelling/perspost/internal/metrics"
	"github.com/TobiSchelling/perspost/internal/pipeline"
	"github.com/TobiSchelling/perspost/internal/post"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// ArticleInput is the JSON body of POST /generate-post.
type ArticleInput struct {
	Content      string   `json:"content" binding:"required"`
	IsURL        bool     `json:"is_url"`
	Perspectives []string `json:"perspectives"`
	WordCount    *int     `json:"word_count"`
}

// PostResponse is the JSON reply of POST /generate-post.
type PostResponse struct {
	Post            string  `json:"post"`
	ConfidenceScore float64 `json:"confidence_score"`
	Error           string  `json:"error,omitempty"`
}

// Server is the HTTP server for post generation.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
	metrics  *metrics.Metrics
	pages    map[string]*template.Template
	router   *gin.Engine
}

// New creates a new Server. logger and m may be nil.
func New(p *pipeline.Pipeline, logger *zap.Logger, m *metrics.Metrics) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone so "title" and "content" don't collide.
	pageNames := []string{"index.html", "result.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		pipeline: p,
		logger:   logger,
		metrics:  m,
		pages:    pages,
		router:   gin.New(),
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() error {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(RequestLogger(s.logger))

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("loading static assets: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticSub))

	s.router.GET("/", s.handleIndex)
	s.router.POST("/preview", s.handlePreview)
	s.router.POST("/generate-post", s.handleGeneratePost)
	s.router.GET("/healthz", s.handleHealth)
	if reg := s.metrics.Registry(); reg != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	return nil
}

func (s *Server) handleGeneratePost(c *gin.Context) {
	var input ArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, PostResponse{Error: "invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(input.Content) == "" {
		c.JSON(http.StatusBadRequest, PostResponse{Error: "content must not be empty"})
		return
	}
	req := post.Request{
		Content:   input.Content,
		IsURL:     input.IsURL,
		WordCount: post.DefaultWordCount,
	}
	if input.WordCount != nil {
		if *input.WordCount <= 0 {
			c.JSON(http.StatusBadRequest, PostResponse{Error: "word_count must be a positive integer"})
			return
		}
		req.WordCount = *input.WordCount
	}

	result, err := s.pipelineFor(input.Perspectives).Generate(c.Request.Context(), req)
	if err != nil {
		s.logger.Error("generation failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, PostResponse{Error: err.Error()})
		return
	}

	resp := PostResponse{
		Post:            result.Post,
		ConfidenceScore: result.ConfidenceScore,
		Error:           result.Error,
	}
	if result.Error != "" {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleIndex(c *gin.Context) {
	s.render(c, http.StatusOK, "index.html", map[string]any{
		"WordCount":    post.DefaultWordCount,
		"Perspectives": s.pipeline.Perspectives(),
	})
}

func (s *Server) handlePreview(c *gin.Context) {
	content := strings.TrimSpace(c.PostForm("content"))
	isURL := c.PostForm("is_url") == "true"
	perspectives := splitLines(c.PostForm("perspectives"))

	wordCount := post.DefaultWordCount
	if raw := strings.TrimSpace(c.PostForm("word_count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.render(c, http.StatusBadRequest, "result.html", map[string]any{
				"Result": post.Result{Error: "word count must be a positive integer"},
			})
			return
		}
		wordCount = n
	}

	if content == "" {
		s.render(c, http.StatusBadRequest, "index.html", map[string]any{
			"WordCount":    wordCount,
			"Perspectives": perspectives,
			"IsURL":        isURL,
		})
		return
	}

	result, err := s.pipelineFor(perspectives).Generate(c.Request.Context(), post.Request{
		Content:   content,
		IsURL:     isURL,
		WordCount: wordCount,
	})
	if err != nil {
		s.logger.Error("generation failed", zap.Error(err))
		s.render(c, http.StatusBadGateway, "result.html", map[string]any{
			"Result": post.Result{Error: err.Error()},
		})
		return
	}

	status := http.StatusOK
	if result.Error != "" {
		status = http.StatusBadRequest
	}
	s.render(c, status, "result.html", map[string]any{"Result": result})
}

// pipelineFor returns a pipeline bound to perspectives, or the shared one
// when the request supplies none.
func (s *Server) pipelineFor(perspectives []string) *pipeline.Pipeline {
	if len(perspectives) == 0 {
		return s.pipeline
	}
	return s.pipeline.WithPerspectives(perspectives)
}

func (s *Server) handleHealth(c *gin.Context) {
	provider := ""
	if p := s.pipeline.Provider(); p != nil {
		provider = p.Name()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": provider})
}

func (s *Server) render(c *gin.Context, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("template not found", zap.String("template", name))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Serve runs the server on host:port until ctx is cancelled, then shuts
// down gracefully.
func Serve(ctx context.Context, s *Server, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", "http://"+addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("server exited gracefully")
	return nil
}
