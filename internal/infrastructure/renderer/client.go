// Package renderer 调用无头浏览器渲染服务，将 HTML 转换为 PDF 或预览图
package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/config"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/metrics"
)

var tracer = otel.Tracer("renderer")

// Client 渲染服务客户端
type Client struct {
	endpoint     string
	httpClient   *http.Client
	previewWidth int
	paperFormat  string
}

// NewClient 创建渲染客户端
func NewClient(cfg *config.RendererConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		previewWidth: cfg.PreviewWidth,
		paperFormat:  cfg.PaperFormat,
	}
}

type renderRequest struct {
	HTML    string         `json:"html"`
	Options map[string]any `json:"options,omitempty"`
}

// RenderPDF 将 HTML 渲染为 PDF 字节流
func (c *Client) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "renderer.Client.RenderPDF")
	defer span.End()

	start := time.Now()
	data, err := c.post(ctx, "/render/pdf", renderRequest{
		HTML: html,
		Options: map[string]any{
			"format":          c.paperFormat,
			"printBackground": true,
		},
	})
	metrics.RenderDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("render.bytes", len(data)))
	return data, nil
}

// RenderPreview 将 HTML 渲染为预览截图（PNG）
func (c *Client) RenderPreview(ctx context.Context, html string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "renderer.Client.RenderPreview")
	defer span.End()

	start := time.Now()
	data, err := c.post(ctx, "/render/screenshot", renderRequest{
		HTML: html,
		Options: map[string]any{
			"width":    c.previewWidth,
			"fullPage": true,
			"type":     "png",
		},
	})
	metrics.RenderDuration.WithLabelValues("preview").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("render.bytes", len(data)))
	return data, nil
}

// RenderDocumentPages 逐页截图一个分页文档（PDF 等），返回每页 PNG
// 渲染服务按页打开文档并截屏，不做内嵌文本抽取
func (c *Client) RenderDocumentPages(ctx context.Context, docURL string) ([][]byte, error) {
	ctx, span := tracer.Start(ctx, "renderer.Client.RenderDocumentPages")
	defer span.End()

	body, err := json.Marshal(map[string]any{
		"url":   docURL,
		"width": c.previewWidth,
		"type":  "png",
	})
	if err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/render/pages", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.ErrRenderError.WithDetail(
			fmt.Sprintf("render service returned %d: %s", resp.StatusCode, string(msg)))
	}

	var payload struct {
		Pages []string `json:"pages"` // base64 编码的页图
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}
	if len(payload.Pages) == 0 {
		return nil, apperrors.ErrRenderError.WithDetail("render service returned no pages")
	}

	pages := make([][]byte, 0, len(payload.Pages))
	for i, p := range payload.Pages {
		data, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return nil, apperrors.ErrRenderError.WithDetail(fmt.Sprintf("page %d is not valid base64", i))
		}
		pages = append(pages, data)
	}
	span.SetAttributes(attribute.Int("render.pages", len(pages)))
	return pages, nil
}

func (c *Client) post(ctx context.Context, path string, payload renderRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.ErrRenderError.WithDetail(
			fmt.Sprintf("render service returned %d: %s", resp.StatusCode, string(msg)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ErrRenderError.WithError(err)
	}
	if len(data) == 0 {
		return nil, apperrors.ErrRenderError.WithDetail("render service returned empty body")
	}
	return data, nil
}
