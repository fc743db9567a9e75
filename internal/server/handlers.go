package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/service"
)

// pathParam returns a decoded URL parameter. chi matches against RawPath when the
// request has one, so only then is the value still escaped.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

func (s *Server) fileName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := pathParam(r, "fileName")
	if err == nil {
		err = s.validate.Var(name, "required,filename")
	}
	if err != nil {
		renderError(w, r, NewAPIError(http.StatusBadRequest, "INVALID_FILE_NAME", "Invalid file name"))
		return "", false
	}
	return name, true
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			renderError(w, r, NewAPIError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the upload size limit"))
			return
		}
		renderError(w, r, NewAPIError(http.StatusBadRequest, "INVALID_UPLOAD", "Expected a multipart form with a file field"))
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, NewAPIError(http.StatusBadRequest, "MISSING_FILE", "No file uploaded"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		renderError(w, r, NewAPIError(http.StatusBadRequest, "INVALID_UPLOAD", "Could not read uploaded file"))
		return
	}

	resp, err := s.svc.Upload(r.Context(), hdr.Filename, data, hdr.Header.Get("Content-Type"))
	if err != nil {
		renderError(w, r, NewAPIError(http.StatusInternalServerError, "UPLOAD_FAILED", err.Error()))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.ListFiles(r.Context())
	if err != nil {
		s.logger.Error("list files", zap.Error(err))
		renderError(w, r, NewAPIError(http.StatusInternalServerError, "LIST_FAILED", err.Error()))
		return
	}
	render.JSON(w, r, files)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	name, ok := s.fileName(w, r)
	if !ok {
		return
	}
	resp := s.svc.AnalyzeFile(r.Context(), name)
	if !resp.Success {
		renderError(w, r, NewAPIError(http.StatusNotFound, "ANALYSIS_FAILED", resp.Message))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// handleGetResult always answers 200; lookup problems are reported in the envelope.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "fileName")
	if err != nil {
		name = chi.URLParam(r, "fileName")
	}
	render.JSON(w, r, s.svc.GetResult(r.Context(), name))
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes))
	if err != nil {
		renderError(w, r, NewAPIError(http.StatusBadRequest, "INVALID_BODY", "Could not read request body"))
		return
	}
	resp, err := s.svc.SendAnalysisCompleted(r.Context(), body)
	switch {
	case errors.Is(err, service.ErrInvalidPayload):
		renderError(w, r, NewAPIError(http.StatusBadRequest, "INVALID_PAYLOAD", err.Error()))
	case err != nil:
		renderError(w, r, NewAPIError(http.StatusBadGateway, "NOTIFICATION_FAILED", err.Error()))
	default:
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, resp)
	}
}
