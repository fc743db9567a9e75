package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
)

// ErrInvalidPayload is returned when a notification request body is not JSON.
var ErrInvalidPayload = errors.New("invalid notification payload")

// CompletedSummary is the compact summary carried by an analysis_completed message.
type CompletedSummary struct {
	TotalRecords   int     `json:"totalRecords"`
	TotalAnomalies int     `json:"totalAnomalies"`
	AvgPrice       float64 `json:"avgPrice"`
	AvgQuantity    float64 `json:"avgQuantity"`
	AvgRating      float64 `json:"avgRating"`
}

// CompletedNotification is the message published by SendAnalysisCompleted.
type CompletedNotification struct {
	Type      string           `json:"type"`
	FileName  string           `json:"fileName"`
	Timestamp string           `json:"timestamp"`
	Summary   CompletedSummary `json:"summary"`
}

// NotificationResponse is the envelope returned after publishing.
type NotificationResponse struct {
	Success             bool                  `json:"success"`
	Message             string                `json:"message"`
	NotificationDetails CompletedNotification `json:"notificationDetails"`
}

// SendAnalysisCompleted publishes an analysis_completed message built from an analysis
// envelope such as the one returned by AnalyzeFile. Missing members count as zero.
func (s *Service) SendAnalysisCompleted(ctx context.Context, body []byte) (NotificationResponse, error) {
	var env struct {
		FileName string          `json:"fileName"`
		Results  json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return NotificationResponse{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	meta := analysis.FileMeta{Name: env.FileName, At: s.now()}
	sum := analysis.Summarize(nil, meta)
	if len(env.Results) > 0 {
		var err error
		if sum, err = analysis.SummarizeJSON(env.Results, meta); err != nil {
			return NotificationResponse{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}

	n := CompletedNotification{
		Type:      "analysis_completed",
		FileName:  env.FileName,
		Timestamp: sum.Timestamp,
		Summary: CompletedSummary{
			TotalRecords:   sum.TotalRecords,
			TotalAnomalies: sum.AnomalyCounts.Total,
			AvgPrice:       sum.Averages.Price,
			AvgQuantity:    sum.Averages.Quantity,
			AvgRating:      sum.Averages.Rating,
		},
	}
	if err := s.notify(ctx, n); err != nil {
		s.metrics.NotificationFailed()
		s.logger.Error("error sending notification", zap.String("file", env.FileName), zap.Error(err))
		return NotificationResponse{}, fmt.Errorf("send notification: %w", err)
	}
	return NotificationResponse{Success: true, Message: "Notification sent successfully", NotificationDetails: n}, nil
}
