// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/internal/execute"
	"github.com/pdiddy/docconv/internal/formats"
	"github.com/pdiddy/docconv/internal/httputil"
	"github.com/pdiddy/docconv/internal/workspace"
	"github.com/pdiddy/docconv/pkg/types"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

type convertRequest struct {
	InputFormat  string `json:"inputFormat"`
	OutputFormat string `json:"outputFormat"`
}

func (r convertRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.InputFormat, validation.Required, validation.Match(formats.IDPattern)),
		validation.Field(&r.OutputFormat, validation.Required, validation.Match(formats.IDPattern)),
	)
}

// convertResponse is returned instead of the artifact when the client
// asks for JSON.
type convertResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// handleConvert accepts a multipart upload with fields file, inputFormat
// and outputFormat.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	if s.cfg.MaxUploadBytes > 0 {
		if r.ContentLength > s.cfg.MaxUploadBytes {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	req := convertRequest{
		InputFormat:  strings.TrimSpace(r.FormValue("inputFormat")),
		OutputFormat: strings.TrimSpace(r.FormValue("outputFormat")),
	}
	if err := req.Validate(); err != nil {
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, "invalid conversion request",
			map[string]any{"success": false, "errors": err})
		return
	}

	job, err := s.workspace.Allocate(header.Filename)
	if err != nil {
		log.Error("allocating job", zap.Error(err))
		httputil.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	inExt := strings.ToLower(filepath.Ext(header.Filename))
	if inExt == "" {
		inExt = formats.Lookup(req.InputFormat).Extension
	}
	inPath, size, err := s.workspace.Save(job, inExt, file)
	if err != nil {
		s.workspace.Remove(job)
		log.Error("saving upload", zap.Error(err))
		httputil.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	log.Info("upload received",
		zap.String("job", job.ID),
		zap.String("input_format", req.InputFormat),
		zap.String("output_format", req.OutputFormat),
		zap.Int64("size", size),
	)

	plan := s.convert.Plan(req.InputFormat, req.OutputFormat)
	res, err := s.convert.Convert(r.Context(), types.ConversionRequest{
		InputPath:    inPath,
		OutputPath:   job.OutputPath(plan.Extension),
		InputFormat:  req.InputFormat,
		OutputFormat: req.OutputFormat,
		WorkDir:      job.Dir,
	})
	if err != nil {
		s.workspace.Remove(job)
		s.respondConversionError(w, err)
		return
	}
	s.workspace.ScheduleCleanup(job)

	name := job.OutputName(res.Extension)
	if wantsJSON(r) {
		httputil.RespondJSON(w, http.StatusOK, convertResponse{
			Success:     true,
			ID:          job.ID,
			Filename:    name,
			ContentType: res.ContentType,
			Size:        res.Size,
			URL:         "/api/download/" + job.ID + "/" + url.PathEscape(name),
		})
		return
	}
	serveFile(w, r, res.OutputPath, name, res.ContentType)
}

// respondConversionError maps a conversion failure to a problem response.
func (s *Server) respondConversionError(w http.ResponseWriter, err error) {
	extras := map[string]any{"success": false}
	var execErr *execute.Error
	if errors.As(err, &execErr) && execErr.Kind == execute.KindConversionFailed {
		extras["exitCode"] = execErr.ExitCode
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("conversion error", zap.Int("status", status), zap.Error(err))
	}
	httputil.RespondErrorWithExtras(w, status, err.Error(), extras)
}

// statusFor maps conversion errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, execute.ErrToolNotAvailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, execute.ErrConversionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, execute.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, execute.ErrCanceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, convert.ErrOutputMissing):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// serveFile streams path as an attachment named name.
func serveFile(w http.ResponseWriter, r *http.Request, path, name, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// handleDownload serves an artifact produced by an earlier JSON-mode
// conversion until its job is cleaned up.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	path, err := s.workspace.Resolve(id, name)
	switch {
	case errors.Is(err, workspace.ErrInvalidName):
		httputil.RespondError(w, http.StatusBadRequest, "invalid file path")
		return
	case err != nil:
		httputil.RespondError(w, http.StatusNotFound, "file not found or expired")
		return
	}
	serveFile(w, r, path, name, formats.ContentTypeForExtension(filepath.Ext(name)))
}

type checkResponse struct {
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.respondCheck(w, r, chi.URLParam(r, "tool"))
}

func (s *Server) checkAlias(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respondCheck(w, r, name)
	}
}

func (s *Server) respondCheck(w http.ResponseWriter, r *http.Request, name string) {
	st, ok := s.probe(r.Context(), name)
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "unknown tool "+name)
		return
	}
	if !st.Installed {
		httputil.RespondJSON(w, http.StatusInternalServerError, checkResponse{Error: st.Error})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, checkResponse{Installed: true, Version: st.Version})
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"formats": formats.All()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
