package feed

import (
	"os"
	"sync"
)

var proxyEnvKeys = []string{
	"HTTP_PROXY", "HTTPS_PROXY", "ALL_PROXY",
	"http_proxy", "https_proxy", "all_proxy",
}

var proxyMu sync.Mutex

// withoutProxy runs fn with the proxy environment variables unset and restores them afterwards,
// including when fn fails or panics. The transport itself never consults a proxy; the scope also
// covers anything fn spawns that reads the environment.
func withoutProxy(fn func() error) error {
	proxyMu.Lock()
	defer proxyMu.Unlock()

	saved := make(map[string]string, len(proxyEnvKeys))
	for _, k := range proxyEnvKeys {
		if v, ok := os.LookupEnv(k); ok {
			saved[k] = v
			_ = os.Unsetenv(k)
		}
	}
	defer func() {
		for k, v := range saved {
			_ = os.Setenv(k, v)
		}
	}()

	return fn()
}
