package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
	"github.com/KaramelBytes/csvsentry/internal/metrics"
	"github.com/KaramelBytes/csvsentry/internal/parser"
	"github.com/KaramelBytes/csvsentry/internal/queue"
)

// AnalyzeResponse is the envelope returned for an analysis run.
type AnalyzeResponse struct {
	Success             bool             `json:"success"`
	AnalysisID          string           `json:"analysisId,omitempty"`
	FileName            string           `json:"fileName,omitempty"`
	URL                 string           `json:"url,omitempty"`
	Results             *analysis.Result `json:"results,omitempty"`
	NotificationWarning string           `json:"notificationWarning,omitempty"`
	Message             string           `json:"message,omitempty"`
}

// ResultResponse is the envelope returned when reading a stored result.
type ResultResponse struct {
	Success  bool            `json:"success"`
	FileName string          `json:"fileName,omitempty"`
	Results  json.RawMessage `json:"results,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// AnalyzeFile fetches name from storage, analyzes it, stores the result as
// analysis-result-<name> and sends a summary notification.
//
// Failures are reported in the envelope. A failed notification leaves Success true
// and sets NotificationWarning, since the result is already stored.
func (s *Service) AnalyzeFile(ctx context.Context, name string) AnalyzeResponse {
	start := time.Now()
	id := s.newID()
	log := s.logger.With(zap.String("analysis_id", id), zap.String("file", name))

	fail := func(err error) AnalyzeResponse {
		log.Error("analysis failed", zap.Error(err))
		s.metrics.Analysis(metrics.OutcomeFailure, time.Since(start))
		return AnalyzeResponse{Success: false, AnalysisID: id, Message: fmt.Sprintf("Error analyzing file: %v", err)}
	}

	var raw []byte
	err := s.withRetry(ctx, "fetch", func() error {
		var ferr error
		raw, ferr = s.store.Fetch(ctx, name)
		return ferr
	})
	if err != nil {
		return fail(err)
	}

	res, err := parser.Analyze(name, raw, s.decode, s.opt)
	if err != nil {
		return fail(err)
	}

	body, err := json.Marshal(res)
	if err != nil {
		return fail(fmt.Errorf("encode result: %w", err))
	}
	resultName := ResultPrefix + name
	var url string
	err = s.withRetry(ctx, "store", func() error {
		var perr error
		url, perr = s.store.Put(ctx, resultName, body, "application/json")
		return perr
	})
	if err != nil {
		return fail(err)
	}

	s.metrics.Analysis(metrics.OutcomeSuccess, time.Since(start))
	for _, f := range analysis.Fields {
		s.metrics.Anomalies(string(f), len(res.Anomalies.List(f)))
	}
	log.Info("analysis stored",
		zap.String("result", resultName),
		zap.Int("records", res.Statistics.TotalRecords),
		zap.Int("anomalies", res.Anomalies.Total()),
	)

	out := AnalyzeResponse{Success: true, AnalysisID: id, FileName: resultName, URL: url, Results: res}
	summary := analysis.Summarize(res, analysis.FileMeta{Name: name, At: s.now()})
	if err := s.notify(ctx, summary); err != nil {
		log.Error("error sending notification", zap.Error(err))
		s.metrics.NotificationFailed()
		out.NotificationWarning = fmt.Sprintf("Error sending notification: %v", err)
	}
	return out
}

func (s *Service) notify(ctx context.Context, v any) error {
	msg, err := queue.Encode(v)
	if err != nil {
		return err
	}
	return s.withRetry(ctx, "notify", func() error {
		return s.sender.Send(ctx, msg)
	})
}

// GetResult returns the stored result for the analyzed file name. It never fails;
// problems are described in the envelope.
func (s *Service) GetResult(ctx context.Context, name string) ResultResponse {
	resultName := ResultPrefix + name
	ok, err := s.store.Exists(ctx, resultName)
	if err != nil {
		return s.resultError(name, err)
	}
	if !ok {
		return ResultResponse{Success: false, Message: fmt.Sprintf("No analysis results found for file: %s", name)}
	}
	raw, err := s.store.Fetch(ctx, resultName)
	if err != nil {
		return s.resultError(name, err)
	}
	if !json.Valid(raw) {
		return s.resultError(name, fmt.Errorf("stored result is not valid JSON"))
	}
	return ResultResponse{Success: true, FileName: resultName, Results: json.RawMessage(raw)}
}

func (s *Service) resultError(name string, err error) ResultResponse {
	s.logger.Error("error retrieving analysis results", zap.String("file", name), zap.Error(err))
	return ResultResponse{Success: false, Message: fmt.Sprintf("Error retrieving analysis results: %v", err)}
}
