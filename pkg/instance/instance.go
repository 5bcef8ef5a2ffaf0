package instance

import (
	"os"

	"github.com/angelmondragon/storefront-orders/pkg/env"
)

// GetID identifies the running process in logs. Heroku's DYNO wins, then an
// explicit STOREFRONT_INSTANCE_ID, then the hostname.
func GetID() string {
	if id, ok := env.First("DYNO", "STOREFRONT_INSTANCE_ID"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
