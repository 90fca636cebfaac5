// sitegrade-mcp is a stdio MCP server exposing the sitegrade HTTP API as
// tools, so agents can launch site audits and read the finished reports.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scanRequest mirrors the sitegrade API request model.
type scanRequest struct {
	URL     string `json:"url"`
	Profile string `json:"profile,omitempty"`
}

// scanResponse mirrors the sitegrade API response model.
type scanResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// scanStatusResponse mirrors GET /api/v1/scan/:id.
type scanStatusResponse struct {
	Job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Error  *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"job"`
	Progress *struct {
		Stage       string `json:"stage"`
		CurrentPage int    `json:"current_page"`
		TotalPages  int    `json:"total_pages"`
		Percentage  int    `json:"percentage"`
		Message     string `json:"message"`
	} `json:"progress"`
}

func main() {
	apiURL := os.Getenv("SITEGRADE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SITEGRADE_API_KEY")

	s := server.NewMCPServer(
		"sitegrade",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	auditSiteTool := mcp.NewTool("audit_site",
		mcp.WithDescription("Start a multi-page website audit (accessibility, performance, security, agent readiness) and wait for the result. Returns the full report including grades and the e-commerce analysis."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The site URL to audit"),
		),
		mcp.WithString("profile",
			mcp.Description("Orchestration profile: 'default' (4 pages, sequential) or 'mixed-commerce' (6 pages, parallel batches)"),
			mcp.Enum("default", "mixed-commerce"),
		),
	)
	s.AddTool(auditSiteTool, handleAuditSite(apiURL, apiKey))

	getReportTool := mcp.NewTool("get_audit_report",
		mcp.WithDescription("Fetch the report of a previously started audit by scan id, or its progress while the scan is still running."),
		mcp.WithString("scan_id",
			mcp.Required(),
			mcp.Description("The scan id returned by audit_site"),
		),
	)
	s.AddTool(getReportTool, handleGetReport(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleAuditSite(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		profile := request.GetString("profile", "")

		body, err := json.Marshal(scanRequest{URL: url, Profile: profile})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		respBody, status, err := doRequest(ctx, client, apiKey, http.MethodPost, apiURL+"/api/v1/scan", body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}

		var scan scanResponse
		if err := json.Unmarshal(respBody, &scan); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if status >= 400 || scan.Error != nil {
			if scan.Error != nil {
				return mcp.NewToolResultError(fmt.Sprintf("%s: %s", scan.Error.Code, scan.Error.Message)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("API returned %d", status)), nil
		}

		// Poll until the scan reaches a terminal state. A full audit is
		// minutes, not seconds; respect the tool call's context.
		report, err := waitForReport(ctx, client, apiURL, apiKey, scan.ID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(report)), nil
	}
}

func handleGetReport(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		scanID, err := request.RequireString("scan_id")
		if err != nil {
			return mcp.NewToolResultError("scan_id is required"), nil
		}

		statusBody, _, err := doRequest(ctx, client, apiKey, http.MethodGet, apiURL+"/api/v1/scan/"+scanID, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}

		var st scanStatusResponse
		if err := json.Unmarshal(statusBody, &st); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		switch st.Job.Status {
		case "completed":
			report, _, err := doRequest(ctx, client, apiKey, http.MethodGet, apiURL+"/api/v1/scan/"+scanID+"/report", nil)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(report)), nil
		case "failed":
			if st.Job.Error != nil {
				return mcp.NewToolResultError(fmt.Sprintf("scan failed: %s: %s", st.Job.Error.Code, st.Job.Error.Message)), nil
			}
			return mcp.NewToolResultError("scan failed"), nil
		default:
			return mcp.NewToolResultText(string(statusBody)), nil
		}
	}
}

// waitForReport polls the status endpoint until the scan completes or fails.
func waitForReport(ctx context.Context, client *http.Client, apiURL, apiKey, scanID string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("cancelled while waiting for scan %s: %w", scanID, ctx.Err())
		case <-ticker.C:
		}

		statusBody, _, err := doRequest(ctx, client, apiKey, http.MethodGet, apiURL+"/api/v1/scan/"+scanID, nil)
		if err != nil {
			return nil, fmt.Errorf("API request failed: %w", err)
		}

		var st scanStatusResponse
		if err := json.Unmarshal(statusBody, &st); err != nil {
			return nil, fmt.Errorf("failed to parse status response: %w", err)
		}

		switch st.Job.Status {
		case "completed":
			report, _, err := doRequest(ctx, client, apiKey, http.MethodGet, apiURL+"/api/v1/scan/"+scanID+"/report", nil)
			if err != nil {
				return nil, fmt.Errorf("API request failed: %w", err)
			}
			return report, nil
		case "failed":
			if st.Job.Error != nil {
				return nil, fmt.Errorf("scan failed: %s: %s", st.Job.Error.Code, st.Job.Error.Message)
			}
			return nil, fmt.Errorf("scan failed")
		}
	}
}

func doRequest(ctx context.Context, client *http.Client, apiKey, method, url string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}
