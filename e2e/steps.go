package e2e

import (
	"github.com/cucumber/godog"

	"pricetrends/e2e/steps/common"
	"pricetrends/e2e/steps/pricing"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	pricing.RegisterSteps(ctx, tc)
}
