// Package gemini implements extract.FieldExtractor against the Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/extract"
)

type generateRequest struct {
	Contents         []content       `json:"contents"`
	GenerationConfig *generationConf `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConf struct {
	Temperature      float32 `json:"temperature"`
	ResponseMIMEType string  `json:"response_mime_type,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Extract sends the image and field names to the model and parses the
// response. One call is exactly one attempt.
func (c *Client) Extract(ctx context.Context, req extract.Request) (extract.Fields, error) {
	rid := uuid.New().String()
	start := time.Now()

	if !c.Configured() {
		return extract.Fields{}, common.ErrMissingCredential
	}

	c.logger.Info("gemini.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mime_type", req.MIMEType,
		"image_bytes", len(req.Image),
		"fields", len(req.FieldNames),
		"json_mode", c.cfg.JSONMode,
	)

	body := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: req.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(req.Image),
				}},
				{Text: buildPrompt(req.FieldNames, c.cfg.JSONMode)},
			},
		}},
		GenerationConfig: &generationConf{Temperature: 0},
	}
	if c.cfg.JSONMode {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("gemini.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Fields{}, err
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Error("gemini.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Fields{}, fmt.Errorf("%w: decode response: %v", common.ErrExtractionFailed, err)
	}

	text := candidateText(gr)
	if text == "" {
		reason := ""
		if gr.PromptFeedback != nil {
			reason = gr.PromptFeedback.BlockReason
		}
		c.logger.Error("gemini.extract.empty_response",
			"req_id", rid, "block_reason", reason,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Fields{}, fmt.Errorf("%w: empty response", common.ErrExtractionFailed)
	}

	var fields extract.Fields
	if c.cfg.JSONMode {
		schema := extract.BuildFieldsJSONSchema(req.FieldNames)
		if err := extract.ValidateJSONAgainstSchema(schema, []byte(text)); err != nil {
			c.logger.Error("gemini.extract.schema_validation_failed",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return extract.Fields{}, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
		}
		fields, err = extract.ParseJSONFields([]byte(text), req.FieldNames)
		if err != nil {
			return extract.Fields{}, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
		}
	} else {
		fields = extract.ParseLines(text)
	}

	c.logger.Info("gemini.extract.ok",
		"req_id", rid,
		"pairs", len(fields.Pairs),
		"malformed_lines", fields.Malformed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("gemini.response_body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 == 2 {
		return raw, nil
	}
	return nil, classifyStatus(resp.StatusCode, raw)
}

// classifyStatus maps the API's failure modes onto the error taxonomy.
func classifyStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(msg, "API_KEY_INVALID"):
		return fmt.Errorf("%w: status %d", common.ErrAuth, status)
	case status == http.StatusBadRequest &&
		(strings.Contains(msg, "unsupported") || strings.Contains(msg, "INVALID_ARGUMENT")):
		return fmt.Errorf("%w: status %d: %s", common.ErrUnsupportedContent, status, truncate(msg, 200))
	case status/100 == 4:
		return fmt.Errorf("%w: status %d: %s", common.ErrExtractionFailed, status, truncate(msg, 200))
	default:
		return fmt.Errorf("%w: status %d", common.ErrTransport, status)
	}
}

// buildPrompt enumerates the declared field names and asks for one
// "name: value" pair per line, values only. In JSON mode it asks for an
// object keyed by the exact field names instead.
func buildPrompt(fieldNames []string, jsonMode bool) string {
	var b strings.Builder
	b.WriteString("Extract the following data fields from the image:\n")
	for _, name := range fieldNames {
		b.WriteString(name)
		b.WriteString("\n")
	}
	if jsonMode {
		b.WriteString("\nReturn ONLY a JSON object whose keys are exactly the field names above. Omit any field you cannot read; never output null.")
	} else {
		b.WriteString("\nReturn the results as one \"name: value\" pair per line, separated by newlines. Respond with the name/value pairs only.")
	}
	return b.String()
}

func candidateText(gr generateResponse) string {
	if len(gr.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
