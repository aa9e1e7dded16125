package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/initiative-sim/pkg/constants"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func readTestConfig(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}
	return data
}

func TestHandleSimulateSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	rr := performUpload(t, handler, string(readTestConfig(t)), "test_config.yaml")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp simulateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	wantScenarios := []string{"Plant Retrofit", "Overspend", "Kalundborg Weighted"}
	if strings.Join(resp.Scenarios, "|") != strings.Join(wantScenarios, "|") {
		t.Fatalf("expected scenarios %v, got %v", wantScenarios, resp.Scenarios)
	}
	if len(resp.Reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(resp.Reports))
	}
	if !resp.Reports[0].Outcome.Success {
		t.Fatalf("expected Plant Retrofit to succeed, got %+v", resp.Reports[0].Outcome)
	}
	if len(resp.Rows) != 5 {
		t.Fatalf("expected 5 yearly rows, got %d", len(resp.Rows))
	}

	first := resp.Rows[0]
	if first.Year != 1 || len(first.Values) != 3 {
		t.Fatalf("unexpected first row %+v", first)
	}
	if first.Values[0].Remaining == nil || *first.Values[0].Remaining != 83 {
		t.Fatalf("expected Plant Retrofit remaining 83 in year 1, got %+v", first.Values[0])
	}
	if first.Values[1].Remaining != nil || len(first.Values[1].Chosen) != 0 {
		t.Fatalf("Overspend took no turn in year 1, got %+v", first.Values[1])
	}

	if resp.CSV == "" {
		t.Fatal("expected CSV data in response")
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if resp.Config == nil || resp.ConfigYAML == "" {
		t.Fatal("expected config data in response")
	}
	if len(resp.Plans) != 0 {
		t.Fatalf("plans should only appear when requested, got %d", len(resp.Plans))
	}
}

func TestHandleSimulateEditorOptimize(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	var cfg map[string]interface{}
	if err := yaml.Unmarshal(readTestConfig(t), &cfg); err != nil {
		t.Fatalf("failed to unmarshal yaml: %v", err)
	}

	payload := map[string]interface{}{
		"config":  cfg,
		"options": map[string]interface{}{"optimize": "true"},
	}
	rr := performEditorJSON(t, handler, payload, "/api/editor/simulate")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp simulateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Plans) != 3 {
		t.Fatalf("expected a plan per active scenario, got %d", len(resp.Plans))
	}
	for _, plan := range resp.Plans {
		if plan.Scenario == "Plant Retrofit" && !plan.Reached {
			t.Fatalf("expected a reaching plan for Plant Retrofit, got %+v", plan)
		}
		if plan.Scenario == "Overspend" && plan.Reached {
			t.Fatalf("Overspend cannot reach its target, got %+v", plan)
		}
	}
	if !strings.Contains(resp.ConfigYAML, "plan:") {
		t.Fatalf("expected planned config YAML, got %q", resp.ConfigYAML)
	}
	for _, report := range resp.Reports {
		if report.Scenario == "Overspend" && len(report.Rejections) != 0 {
			t.Fatalf("planned runs should not be rejected, got %+v", report.Rejections)
		}
	}
}

func TestHandleSimulateEditorInvalidPayload(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	tests := []struct {
		name    string
		payload map[string]interface{}
		want    string
	}{
		{"Config not an object", map[string]interface{}{"config": "nope"}, "invalid config payload"},
		{"Options not an object", map[string]interface{}{"options": 3}, "invalid options payload"},
		{"No active scenarios", map[string]interface{}{"scenarios": []interface{}{}}, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performEditorJSON(t, handler, tt.payload, "/api/editor/simulate")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], tt.want) {
				t.Fatalf("expected %q in error, got %q", tt.want, resp["error"])
			}
		})
	}
}

func TestHandlePresets(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/presets", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Presets []struct {
			Name     string                 `json:"name"`
			Scenario map[string]interface{} `json:"scenario"`
		} `json:"presets"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Presets) != 5 {
		t.Fatalf("expected 5 presets, got %d", len(resp.Presets))
	}
	for _, preset := range resp.Presets {
		initiatives, ok := preset.Scenario["initiatives"].([]interface{})
		if !ok || len(initiatives) == 0 {
			t.Fatalf("preset %s has no initiatives: %v", preset.Name, preset.Scenario)
		}
		if _, ok := preset.Scenario["initialBudget"]; !ok {
			t.Fatalf("preset %s should use config field names, got %v", preset.Name, preset.Scenario)
		}
	}

	post := httptest.NewRecorder()
	handler.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/api/presets", nil))
	if post.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", post.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"", "dev"},
		{" 1.2.3 ", "1.2.3"},
	}

	for _, tt := range tests {
		handler := NewHandler(nil, 0, tt.version)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))

		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["version"] != tt.want {
			t.Fatalf("expected version %q, got %q", tt.want, resp["version"])
		}
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	payload := map[string]interface{}{
		"scenarios": []interface{}{
			map[string]interface{}{
				"name":   "sample",
				"active": true,
				"preset": "emissions",
			},
		},
		"output": map[string]interface{}{
			"format": "pretty",
		},
		"logging": map[string]interface{}{
			"level": "info",
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/export")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	yamlStr := resp["configYaml"]
	if !strings.Contains(yamlStr, "scenarios:") {
		t.Fatalf("expected yaml to contain scenarios section, got %q", yamlStr)
	}

	var topLevel []string
	for _, line := range strings.Split(strings.TrimRight(yamlStr, "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-") {
			continue
		}
		topLevel = append(topLevel, strings.TrimSpace(line))
	}

	want := []string{"logging:", "output:", "scenarios:"}
	if strings.Join(topLevel, " ") != strings.Join(want, " ") {
		t.Fatalf("expected top-level keys %v, got %v", want, topLevel)
	}
}

func TestHandleSimulateMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	for _, path := range []string{"/api/simulate", "/api/editor/simulate", "/api/editor/export"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected status 405, got %d", path, rr.Code)
		}
	}
}

func TestHandleSimulateUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "")

	rr := performUpload(t, handler, strings.Repeat("a", 128), "config.yaml")

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", resp["error"])
	}
}

func TestHandleSimulateMissingFile(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/simulate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp["error"] != "missing configuration file" {
		t.Fatalf("expected missing file error, got %q", resp["error"])
	}
}

func TestHandleSimulateBadConfigs(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "Invalid YAML",
			yaml: "scenarios: [",
			want: "error reading config data",
		},
		{
			name: "Unknown preset",
			yaml: "scenarios:\n  - name: sample\n    active: true\n    preset: atlantis\n",
			want: "atlantis",
		},
		{
			name: "Negative budget",
			yaml: `
scenarios:
  - name: broke
    active: true
    initialBudget: -1
    initiatives:
      - name: A
        cost: 1
        effects:
          - metric: CO2
            amount: 5
    target:
      metric: CO2
      threshold: 5
`,
			want: "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performUpload(t, handler, tt.yaml, "config.yaml")

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}

			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], tt.want) {
				t.Fatalf("expected %q in error, got %q", tt.want, resp["error"])
			}
		})
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		value interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{" 1 ", true},
		{"", false},
		{"maybe", false},
		{float64(2), true},
		{float64(0), false},
		{json.Number("1"), true},
		{nil, false},
	}

	for _, tt := range tests {
		if got := coerceBool(tt.value); got != tt.want {
			t.Errorf("coerceBool(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/simulate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performEditorJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
