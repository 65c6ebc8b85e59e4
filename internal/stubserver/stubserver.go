// Package stubserver is an in-memory stand-in for the PDF chat backend. It
// answers the same endpoints with the same JSON shapes.
package stubserver

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

// Answerer produces the reply for a chat message.
type Answerer func(message string) domain.ChatAnswer

// Server records requests and keeps a single conversation.
type Server struct {
	mu       sync.Mutex
	loaded   string
	history  []domain.ChatMessage
	hits     map[string]int
	answer   Answerer
	chatErr  string
	keySet   bool
	uploaded [][]byte
}

func New() *Server {
	return &Server{hits: make(map[string]int), answer: Echo, keySet: true}
}

// Echo answers with the question and cites the loaded document.
func Echo(message string) domain.ChatAnswer {
	return domain.ChatAnswer{
		Answer:  "You asked: " + message,
		Sources: []domain.Source{{Source: "document.pdf", ContentPreview: message}},
	}
}

// SetAnswerer replaces the reply function.
func (s *Server) SetAnswerer(a Answerer) {
	s.mu.Lock()
	s.answer = a
	s.mu.Unlock()
}

// FailChat makes every chat request report msg as an application error.
func (s *Server) FailChat(msg string) {
	s.mu.Lock()
	s.chatErr = msg
	s.mu.Unlock()
}

// SetAPIKey controls the answer of the key probe.
func (s *Server) SetAPIKey(set bool) {
	s.mu.Lock()
	s.keySet = set
	s.mu.Unlock()
}

// Load marks name as the current document without an upload.
func (s *Server) Load(name string) {
	s.mu.Lock()
	s.loaded = name
	s.mu.Unlock()
}

// SetHistory replaces the conversation.
func (s *Server) SetHistory(h []domain.ChatMessage) {
	s.mu.Lock()
	s.history = append([]domain.ChatMessage(nil), h...)
	s.mu.Unlock()
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Uploaded returns the bodies of accepted uploads.
func (s *Server) Uploaded() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.uploaded...)
}

// Handler returns the gin engine serving the backend routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.count)
	r.POST("/upload", s.upload)
	r.POST("/chat", s.chat)
	r.GET("/history", s.historyHandler)
	r.GET("/check_groq_api", s.status)
	return r
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.hits[c.Request.URL.Path]++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("pdf_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No file part"})
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No selected file"})
		return
	}
	if !strings.HasSuffix(fh.Filename, ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid file type. Please upload a PDF."})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("Server error during PDF processing: %v", err)})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("Server error during PDF processing: %v", err)})
		return
	}

	s.mu.Lock()
	s.loaded = filepath.Base(fh.Filename)
	s.history = nil
	s.uploaded = append(s.uploaded, data)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "PDF uploaded and processed successfully!"})
}

func (s *Server) chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No message provided"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please upload a PDF first."})
		return
	}
	if s.chatErr != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": s.chatErr})
		return
	}
	ans := s.answer(req.Message)
	s.history = append(s.history,
		domain.ChatMessage{Role: domain.RoleUser, Content: req.Message},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: ans.Answer},
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "response": ans})
}

func (s *Server) historyHandler(c *gin.Context) {
	s.mu.Lock()
	h := append(make([]domain.ChatMessage, 0, len(s.history)), s.history...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "history": h})
}

func (s *Server) status(c *gin.Context) {
	s.mu.Lock()
	set := s.keySet
	s.mu.Unlock()
	if set {
		c.JSON(http.StatusOK, gin.H{"status": "GROQ_API_KEY is set."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "GROQ_API_KEY is NOT set. Please set it as an environment variable."})
}
