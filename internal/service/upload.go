package service

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/storage"
	"github.com/KaramelBytes/csvsentry/internal/utils"
)

// UploadResponse is the envelope returned for a stored upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	Message  string `json:"message"`
}

var knownTypes = map[string]string{
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Upload stores data as <epoch-ms>-<base name of originalName>.
func (s *Service) Upload(ctx context.Context, originalName string, data []byte, contentType string) (UploadResponse, error) {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	if err := utils.CheckName(base); err != nil {
		return UploadResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}
	if contentType == "" {
		contentType = knownTypes[strings.ToLower(filepath.Ext(base))]
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(base))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), base)

	var url string
	err := s.withRetry(ctx, "upload", func() error {
		var perr error
		url, perr = s.store.Put(ctx, name, data, contentType)
		return perr
	})
	if err != nil {
		s.logger.Error("upload failed", zap.String("file", name), zap.Error(err))
		return UploadResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}
	s.logger.Info("file uploaded", zap.String("file", name), zap.Int("bytes", len(data)))
	return UploadResponse{Success: true, FileName: name, URL: url, Message: "File uploaded successfully"}, nil
}

// ListFiles returns every stored object, uploads and results alike.
func (s *Service) ListFiles(ctx context.Context) ([]storage.BlobInfo, error) {
	var out []storage.BlobInfo
	err := s.withRetry(ctx, "list", func() error {
		var lerr error
		out, lerr = s.store.List(ctx)
		return lerr
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []storage.BlobInfo{}
	}
	return out, nil
}
