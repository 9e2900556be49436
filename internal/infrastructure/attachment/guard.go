package attachment

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"promptcanvas/internal/domain"
)

// MaxRedirects は、添付画像の取得で追跡するリダイレクトの上限です
const MaxRedirects = 5

// LookupFunc は、ホスト名をIPアドレスに解決します
type LookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// Guard は、添付画像の取得先が内部ネットワークを指していないかを検査します
// リダイレクト先と実際に接続するアドレスも同じ基準で検査します
type Guard struct {
	lookup   LookupFunc
	maxBytes int64
}

// NewGuard は新しいGuardを作成します
// lookupがnilの場合はnet.DefaultResolverを使います
func NewGuard(lookup LookupFunc) *Guard {
	if lookup == nil {
		lookup = func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip", host)
		}
	}
	return &Guard{lookup: lookup, maxBytes: DefaultMaxBytes}
}

// CheckURL は、http/https以外のスキームや内部ネットワークへのURLを拒否します
func (g *Guard) CheckURL(ctx context.Context, rawURL string) error {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("URLパース失敗: %w", err))
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme))
	}

	ips, err := g.lookup(ctx, parsedURL.Hostname())
	if err != nil {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", parsedURL.Hostname(), err))
	}
	if len(ips) == 0 {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("ホスト '%s' のアドレスがありません", parsedURL.Hostname()))
	}

	for _, ip := range ips {
		if err := checkIP(ip); err != nil {
			return err
		}
	}
	return nil
}

// CheckRedirect は、http.Client.CheckRedirectとしてリダイレクト先ごとにCheckURLを適用します
func (g *Guard) CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= MaxRedirects {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("リダイレクトが多すぎます (最大%d回)", MaxRedirects))
	}
	return g.CheckURL(req.Context(), req.URL.String())
}

// Control は、net.Dialer.Controlとして接続直前のアドレスを検査します
// 名前解決の結果が検査後に変わった場合もここで拒否されます
func (g *Guard) Control(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("接続先アドレスが不正です: %w", err))
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("接続先がIPアドレスではありません: %s", host))
	}
	return checkIP(ip)
}

// HTTPClient は、リダイレクトと接続先の検査を組み込んだhttp.Clientを返します
// レスポンス本体は上限サイズ+1バイトで打ち切ります
func (g *Guard) HTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   g.Control,
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = nil
	base.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:       timeout,
		Transport:     &limitTransport{base: base, limit: g.maxBytes + 1},
		CheckRedirect: g.CheckRedirect,
	}
}

func checkIP(ip net.IP) error {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String()))
	}
	return nil
}

// limitTransport は、レスポンス本体をlimitバイトまでに制限します
type limitTransport struct {
	base  http.RoundTripper
	limit int64
}

func (t *limitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Body = &limitedBody{Reader: io.LimitReader(resp.Body, t.limit), Closer: resp.Body}
	return resp, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}
