// Package server exposes the pipeline stages over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/topicseg/caption"
	"github.com/maastricht-university/topicseg/gloss"
	"github.com/maastricht-university/topicseg/orchestrator"
	"github.com/maastricht-university/topicseg/topics"
	"github.com/maastricht-university/topicseg/transcript"
)

// Engine is the subset of the pipeline the handlers call.
type Engine interface {
	Fetch(ctx context.Context, videoURL string) (*caption.Transcript, error)
	Clean(in transcript.Input) (*transcript.Cleaned, error)
	SegmentSentences(ctx context.Context, sentences []string, numTopics int, kind topics.Kind) topics.Result
	Process(ctx context.Context, req orchestrator.Request) (*orchestrator.Report, error)
}

type Server struct {
	app *fiber.App
	eng Engine
	log logrus.FieldLogger
}

func New(eng Engine, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{eng: eng, log: log}
	s.app = fiber.New(fiber.Config{
		AppName:               "topicseg",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(cors.New())

	s.app.Post("/api/transcript", s.postTranscript)
	s.app.Post("/api/clean", s.postClean)
	s.app.Post("/api/segment", s.postSegment)
	s.app.Post("/api/gloss", s.postGloss)
	s.app.Post("/api/process", s.postProcess)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "message": "Transcript Processor API is running"})
	})
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	s.log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return fail(c, status, "Server error: "+err.Error())
}

type videoReq struct {
	VideoURL  string `json:"videoUrl"`
	NumTopics *int   `json:"numTopics"`
	Strategy  string `json:"strategy"`
	Gloss     *bool  `json:"gloss"`
}

func (s *Server) postTranscript(c *fiber.Ctx) error {
	var req videoReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid JSON")
	}
	url := strings.TrimSpace(req.VideoURL)
	if url == "" {
		return fail(c, fiber.StatusBadRequest, "Video URL is required")
	}

	tr, err := s.eng.Fetch(c.UserContext(), url)
	if err != nil {
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"videoId":       tr.VideoID,
		"segments":      tr.Segments,
		"full":          tr.Full,
		"totalSegments": tr.TotalSegments,
		"method":        tr.Method,
	})
}

func (s *Server) postClean(c *fiber.Ctx) error {
	var req struct {
		Transcript json.RawMessage `json:"transcript"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid JSON")
	}
	raw := strings.TrimSpace(string(req.Transcript))
	if raw == "" || raw == "null" || raw == `""` {
		return fail(c, fiber.StatusBadRequest, "Transcript data is required")
	}

	in, err := transcript.DecodeInput(req.Transcript)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	doc, err := s.eng.Clean(in)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"full_text":      doc.FullText,
		"sentences":      doc.Sentences,
		"word_count":     doc.WordCount,
		"sentence_count": doc.SentenceCount,
	})
}

func (s *Server) postSegment(c *fiber.Ctx) error {
	var req struct {
		Sentences []string `json:"sentences"`
		NumTopics *int     `json:"numTopics"`
		Strategy  string   `json:"strategy"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if len(req.Sentences) == 0 {
		return fail(c, fiber.StatusBadRequest, "Sentences are required")
	}
	kind, err := parseKind(req.Strategy)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	res := s.eng.SegmentSentences(c.UserContext(), req.Sentences, deref(req.NumTopics), kind)
	out := fiber.Map{
		"success":   true,
		"topics":    res.Topics,
		"numTopics": len(res.Topics),
		"strategy":  res.Strategy,
	}
	if res.Failed() {
		out["warning"] = res.Err.Error()
	}
	return c.JSON(out)
}

func (s *Server) postGloss(c *fiber.Ctx) error {
	var req map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid JSON")
	}

	if raw, ok := req["text"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil || text == "" {
			return fail(c, fiber.StatusBadRequest, "Text is required")
		}
		return c.JSON(fiber.Map{"success": true, "gloss": gloss.Convert(text)})
	}
	if raw, ok := req["topics"]; ok {
		var ts []topics.Topic
		if err := json.Unmarshal(raw, &ts); err != nil || len(ts) == 0 {
			return fail(c, fiber.StatusBadRequest, "Topics are required")
		}
		return c.JSON(fiber.Map{"success": true, "topics": gloss.ConvertTopics(ts)})
	}
	return fail(c, fiber.StatusBadRequest, `Either "text" or "topics" is required`)
}

func (s *Server) postProcess(c *fiber.Ctx) error {
	var req videoReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid JSON")
	}
	url := strings.TrimSpace(req.VideoURL)
	if url == "" {
		return fail(c, fiber.StatusBadRequest, "Video URL is required")
	}
	kind, err := parseKind(req.Strategy)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	rep, err := s.eng.Process(c.UserContext(), orchestrator.Request{
		VideoURL:  url,
		NumTopics: deref(req.NumTopics),
		Strategy:  kind,
		Gloss:     req.Gloss == nil || *req.Gloss,
	})
	var aerr *caption.AcquisitionError
	switch {
	case errors.As(err, &aerr):
		return fail(c, fiber.StatusNotFound, err.Error())
	case err != nil:
		return err
	}

	out := fiber.Map{
		"success":       true,
		"sessionId":     rep.SessionID,
		"rawTranscript": rep.Raw,
		"cleanedData":   rep.Cleaned,
		"topics":        rep.Topics,
		"stats":         rep.Stats,
		"strategy":      rep.Strategy,
	}
	if rep.Warning != "" {
		out["warning"] = rep.Warning
	}
	return c.JSON(out)
}

// parseKind leaves an empty strategy to the pipeline default.
func parseKind(s string) (topics.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return topics.ParseKind(s)
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
