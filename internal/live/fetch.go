package live

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/lk2023060901/live-garden-go/internal/json"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// DefaultUserAgent 为对各平台 HTTP 接口使用的统一 UA。
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewHTTPClient 返回平台接口使用的 HTTP 客户端。
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// FetchBody 执行一次 GET 请求并返回响应体。
// 非 2xx 状态码返回 ErrTransport。
func FetchBody(ctx context.Context, client *http.Client, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, merr.WrapErrURLParse(rawURL, err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, merr.WrapErrTransport(err, "GET "+rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, merr.WrapErrTransportStatus(resp.StatusCode, "GET "+rawURL)
	}
	return io.ReadAll(resp.Body)
}

// FetchJSON 执行一次 GET 请求并把响应体反序列化到 out。
func FetchJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, out any) error {
	body, err := FetchBody(ctx, client, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return merr.WrapErrParse(rawURL, err.Error())
	}
	return nil
}
