package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-orders/internal/checkout"
	"github.com/angelmondragon/storefront-orders/pkg/config"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
	"github.com/angelmondragon/storefront-orders/pkg/maya"
	"github.com/angelmondragon/storefront-orders/pkg/square"
)

// buildGateways creates one client per processor listed in the checkout config.
// A listed processor with missing credentials is a startup error.
func buildGateways(ctx context.Context, cfg *config.Config, logg *logger.Logger) (map[enums.PaymentMethod]checkout.Gateway, error) {
	gateways := map[enums.PaymentMethod]checkout.Gateway{}

	if cfg.Checkout.HasProvider(string(enums.PaymentMethodMaya)) {
		client, err := maya.NewClient(cfg.Maya.PublicKey,
			maya.WithBaseURL(cfg.Maya.BaseURL),
			maya.WithTimeout(cfg.Maya.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("maya gateway: %w", err)
		}
		gateways[enums.PaymentMethodMaya] = client
	}

	if cfg.Checkout.HasProvider(string(enums.PaymentMethodSquare)) {
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, fmt.Errorf("square gateway: %w", err)
		}
		gateways[enums.PaymentMethodSquare] = client
	}

	if len(gateways) == 0 {
		logg.Warn(ctx, "no online payment gateways enabled; only cash checkout is available")
	}
	return gateways, nil
}
