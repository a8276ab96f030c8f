package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/utils"
)

type ReportGenerationResult struct {
	Report  string `json:"report"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ReportModelClient fronts the external CXR report-generation model service.
// GenerateReport degrades provider failures and timeouts into a
// Success=false result instead of returning an error.
type ReportModelClient interface {
	GenerateReport(ctx context.Context, imageData []byte, filename string) *ReportGenerationResult
	HealthCheck(ctx context.Context) bool
}

type reportModelClient struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

func NewReportModelClient(log *logger.Logger) ReportModelClient {
	serviceLog := log.With("service", "ReportModelClient")
	baseURL := strings.TrimRight(utils.GetEnv("MODEL_SERVICE_URL", "http://localhost:8001", log), "/")
	timeoutSec := utils.GetEnvAsInt("MODEL_SERVICE_TIMEOUT", 30, log)
	return &reportModelClient{
		log:        serviceLog,
		httpClient: &http.Client{},
		baseURL:    baseURL,
		timeout:    time.Duration(timeoutSec) * time.Second,
	}
}

func (c *reportModelClient) GenerateReport(ctx context.Context, imageData []byte, filename string) *ReportGenerationResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return &ReportGenerationResult{Success: false, Message: "Failed to build model service request"}
	}
	if _, err := part.Write(imageData); err != nil {
		return &ReportGenerationResult{Success: false, Message: "Failed to build model service request"}
	}
	if err := writer.Close(); err != nil {
		return &ReportGenerationResult{Success: false, Message: "Failed to build model service request"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-report", &body)
	if err != nil {
		return &ReportGenerationResult{Success: false, Message: "Failed to build model service request"}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.log.Error("Timeout when calling model service")
			return &ReportGenerationResult{Success: false, Message: "Request to AI model service timed out"}
		}
		c.log.Error("Request error when calling model service", "error", err)
		return &ReportGenerationResult{Success: false, Message: "Failed to connect to AI model service"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readErrorDetail(resp.Body)
		c.log.Error("Model service request failed", "status", resp.StatusCode, "detail", detail)
		return &ReportGenerationResult{Success: false, Message: fmt.Sprintf("Model service error: %s", detail)}
	}

	var result ReportGenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Error("Failed to decode model service response", "error", err)
		return &ReportGenerationResult{Success: false, Message: "Invalid response from AI model service"}
	}
	return &result
}

func (c *reportModelClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Model service health check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func readErrorDetail(r io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil || payload.Detail == "" {
		return "Unknown error"
	}
	return payload.Detail
}
