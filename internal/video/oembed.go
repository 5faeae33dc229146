package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// oembedEndpoint はYouTubeのoEmbedエンドポイント。
const oembedEndpoint = "https://www.youtube.com/oembed"

// maxOEmbedResponseSize はoEmbed応答の読み取り上限。
const maxOEmbedResponseSize = 64 * 1024

// TitleFetcher は動画URLからタイトルを取得するインターフェース。
type TitleFetcher interface {
	FetchTitle(ctx context.Context, videoURL string) (string, error)
}

// OEmbedClient はYouTubeのoEmbed APIでタイトルを取得するTitleFetcher実装。
// HTTPクライアントはsafeurlでラップされており、プライベートIP・ループバック・
// メタデータIPへのリクエストはDNS解決後のIPアドレス検証でブロックされる。
type OEmbedClient struct {
	client *http.Client
}

// NewOEmbedClient はOEmbedClientを生成する。
func NewOEmbedClient(timeout time.Duration) *OEmbedClient {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return &OEmbedClient{client: safeurl.Client(config).Client}
}

// FetchTitle は動画URLのoEmbedメタデータからタイトルを取得する。
func (c *OEmbedClient) FetchTitle(ctx context.Context, videoURL string) (string, error) {
	endpoint := fmt.Sprintf("%s?format=json&url=%s", oembedEndpoint, url.QueryEscape(videoURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build oEmbed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oEmbed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected oEmbed status: %d", resp.StatusCode)
	}

	var payload struct {
		Title string `json:"title"`
	}
	decoder := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, maxOEmbedResponseSize))
	if err := decoder.Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode oEmbed response: %w", err)
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return "", fmt.Errorf("oEmbed response has no title")
	}
	return title, nil
}

// compile-time interface check
var _ TitleFetcher = (*OEmbedClient)(nil)
