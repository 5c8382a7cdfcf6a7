package customHttpClient

import (
	"net"
	"net/http"
	"time"

	"github.com/akolanti/pharmadoc/internal/config"
)

// New returns the client shared by the embedding and LLM backends so they
// reuse connections. It sets no overall timeout: answer streams can outlive
// any fixed bound, so every call carries its own context deadline instead.
func New() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
