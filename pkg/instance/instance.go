package instance

import (
	"os"

	"github.com/netbill/isp-billing/pkg/env"
)

const idEnv = "NETBILL_INSTANCE_ID"

// ID identifies the running process in logs. NETBILL_INSTANCE_ID wins over the hostname.
func ID() string {
	if id := env.Get(idEnv, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
