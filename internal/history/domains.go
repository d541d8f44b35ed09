package history

import (
	"fmt"
	"strings"
)

// Domain identifies a test category with its own run history.
type Domain string

const (
	DomainTestCases   Domain = "testcases"
	DomainIntegration Domain = "integration"
	DomainE2E         Domain = "e2e"
	DomainRegression  Domain = "regression"
	DomainSmoke       Domain = "smoke"
	DomainPerformance Domain = "performance"
)

// DomainInfo is the fixed display metadata of a domain.
type DomainInfo struct {
	Domain Domain
	Name   string
	Icon   string
	// Unit names what TotalTests counts for this domain.
	Unit string
}

var domainTable = []DomainInfo{
	{Domain: DomainTestCases, Name: "Test Case Generator", Icon: "📝", Unit: "generations"},
	{Domain: DomainIntegration, Name: "API Integration Testing", Icon: "🔗", Unit: "runs"},
	{Domain: DomainE2E, Name: "E2E Functional Testing", Icon: "🧭", Unit: "reports"},
	{Domain: DomainRegression, Name: "Regression Testing", Icon: "🔁", Unit: "runs"},
	{Domain: DomainSmoke, Name: "Smoke Testing", Icon: "💨", Unit: "runs"},
	{Domain: DomainPerformance, Name: "Performance Testing", Icon: "⚡", Unit: "runs"},
}

// Domains returns the known domains in display order.
func Domains() []DomainInfo {
	out := make([]DomainInfo, len(domainTable))
	copy(out, domainTable)
	return out
}

// Info returns the metadata for d. Unknown domains get their id as name.
func Info(d Domain) DomainInfo {
	for _, info := range domainTable {
		if info.Domain == d {
			return info
		}
	}
	return DomainInfo{Domain: d, Name: string(d), Icon: "•", Unit: "runs"}
}

// ParseDomain accepts a domain id, case-insensitively, plus a few aliases.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "testcases", "test-cases", "testcase", "unit":
		return DomainTestCases, nil
	case "integration", "api":
		return DomainIntegration, nil
	case "e2e", "functional":
		return DomainE2E, nil
	case "regression":
		return DomainRegression, nil
	case "smoke":
		return DomainSmoke, nil
	case "performance", "perf", "load":
		return DomainPerformance, nil
	}
	return "", fmt.Errorf("unknown domain %q (valid: testcases, integration, e2e, regression, smoke, performance)", s)
}
