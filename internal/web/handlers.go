package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"racing-setup-rag/internal/models"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

const defaultUploadName = "telemetry.csv"

// pageData feeds the form template
type pageData struct {
	Question string
	Advice   *models.Advice
	Error    string
}

// adviceJSON is the JSON request body; TelemetryCSV carries file contents inline
type adviceJSON struct {
	Question     string `json:"question"`
	TelemetryCSV string `json:"telemetry_csv,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{})
}

// handleFormSubmit serves browsers without JavaScript: the form posts back to itself
func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := s.parseAdviceRequest(w, r)
	if err != nil {
		s.renderPage(w, requestErrorStatus(err), pageData{Error: err.Error()})
		return
	}
	defer cleanup()

	advice, err := s.adviser.Advise(r.Context(), req)
	if err != nil {
		s.renderPage(w, http.StatusInternalServerError, pageData{Question: req.Question, Error: err.Error()})
		return
	}
	s.renderPage(w, http.StatusOK, pageData{Question: req.Question, Advice: advice})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := s.parseAdviceRequest(w, r)
	if err != nil {
		writeJSON(w, requestErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	defer cleanup()

	advice, err := s.adviser.Advise(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.health.Health(r.Context())
	status := http.StatusOK
	if h.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

// parseAdviceRequest accepts a multipart form (question + optional telemetry file)
// or a JSON body. An uploaded file is written to a temporary directory that
// cleanup removes.
func (s *Server) parseAdviceRequest(w http.ResponseWriter, r *http.Request) (models.AdviceRequest, func(), error) {
	noop := func() {}
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body adviceJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return models.AdviceRequest{}, noop, badRequest(fmt.Errorf("invalid JSON body: %w", err))
		}
		req := models.AdviceRequest{Question: body.Question}
		if body.TelemetryCSV == "" {
			return req, noop, nil
		}
		path, cleanup, err := saveUpload(defaultUploadName, strings.NewReader(body.TelemetryCSV))
		if err != nil {
			return models.AdviceRequest{}, noop, err
		}
		req.TelemetryPath = path
		return req, cleanup, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return models.AdviceRequest{}, noop, badRequest(fmt.Errorf("invalid form: %w", err))
		}
		req := models.AdviceRequest{Question: r.FormValue("question")}

		file, header, err := r.FormFile("telemetry")
		if errors.Is(err, http.ErrMissingFile) {
			return req, noop, nil
		}
		if err != nil {
			return models.AdviceRequest{}, noop, badRequest(fmt.Errorf("invalid telemetry upload: %w", err))
		}
		defer file.Close()
		if header.Size == 0 && header.Filename == "" {
			return req, noop, nil
		}

		path, cleanup, err := saveUpload(header.Filename, file)
		if err != nil {
			return models.AdviceRequest{}, noop, err
		}
		req.TelemetryPath = path
		return req, cleanup, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return models.AdviceRequest{}, noop, badRequest(fmt.Errorf("invalid form: %w", err))
		}
		return models.AdviceRequest{Question: r.FormValue("question")}, noop, nil

	default:
		return models.AdviceRequest{}, noop, &requestError{
			status: http.StatusUnsupportedMediaType,
			err:    fmt.Errorf("unsupported content type %q", mediaType),
		}
	}
}

// saveUpload keeps the uploaded file's base name so the telemetry summary names it
func saveUpload(name string, src io.Reader) (string, func(), error) {
	dir, err := os.MkdirTemp("", "setupqa-upload-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to store upload: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." {
		base = defaultUploadName
	}

	path := filepath.Join(dir, base)
	f, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		cleanup()
		return "", nil, badRequest(fmt.Errorf("failed to read upload: %w", err))
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return path, cleanup, nil
}

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	return &requestError{status: status, err: err}
}

func requestErrorStatus(err error) int {
	var re *requestError
	if errors.As(err, &re) {
		return re.status
	}
	return http.StatusInternalServerError
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
