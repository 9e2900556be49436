package retry

import (
	"bytes"
	"io"
	"net/http"
)

// transport は、FetcherのPolicyをhttp.RoundTripperとして適用します
type transport struct {
	fetcher *Fetcher
	base    http.RoundTripper
}

// Transport は、SDKのhttp.Clientに差し込めるRoundTripperを返します
// リトライ対象外のステータスはそのまま返し、エラーの解釈は呼び出し側に任せます
func (f *Fetcher) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{fetcher: f, base: base}
}

// HTTPClient は、Transportを使うhttp.Clientを返します
// Timeout、CheckRedirect、Jarは元のクライアントの設定を引き継ぎます
func (f *Fetcher) HTTPClient() *http.Client {
	c := *f.client
	c.Transport = f.Transport(f.client.Transport)
	return &c
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		body = b
	}

	send := func() (*http.Response, error) {
		clone := req.Clone(req.Context())
		if body != nil {
			clone.Body = io.NopCloser(bytes.NewReader(body))
			clone.ContentLength = int64(len(body))
			clone.GetBody = func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(body)), nil
			}
		}
		return t.base.RoundTrip(clone)
	}
	return t.fetcher.execute(req.Context(), send)
}
