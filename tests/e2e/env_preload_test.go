package e2e

// Loads .env and e2e.yaml once before any test reads the environment.

import (
	"github.com/netology-qa/card-delivery-e2e/tests/e2e/config"
)

func init() {
	config.GetConfig()
}
