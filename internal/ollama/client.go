// Package ollama builds API clients for the Ollama inference service.
package ollama

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// DefaultPort is used when a host without a scheme names no port
const DefaultPort = "11434"

// HostURL resolves the Ollama address. An empty host falls back to
// OLLAMA_HOST (and then to the local default) the way the ollama CLI does.
// A host without a scheme, such as "127.0.0.1:11434" or "gpu-box", is
// treated as plain http.
func HostURL(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return envconfig.Host(), nil
	}

	if !strings.Contains(host, "://") {
		hostport, path, _ := strings.Cut(host, "/")
		if _, _, err := net.SplitHostPort(hostport); err != nil {
			hostport = net.JoinHostPort(strings.Trim(hostport, "[]"), DefaultPort)
		}
		host = "http://" + hostport
		if path != "" {
			host += "/" + path
		}
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: no host name", host)
	}
	return u, nil
}

// NewClient builds an API client for host; see HostURL
func NewClient(host string) (*api.Client, error) {
	u, err := HostURL(host)
	if err != nil {
		return nil, err
	}
	return api.NewClient(u, http.DefaultClient), nil
}
