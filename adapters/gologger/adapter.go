package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultName is the logger channel the CRM service resolves under.
const DefaultName = "crm"

// Resolve uses deterministic precedence provider > logger > nop. Empty names
// fall back to the CRM channel.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return glog.Resolve(name, provider, logger)
}

// ComponentName scopes a component under the CRM channel, for example
// "webhooks" -> "crm.webhooks". Already-scoped names pass through.
func ComponentName(component string) string {
	component = strings.TrimSpace(component)
	if component == "" || component == DefaultName {
		return DefaultName
	}
	if strings.HasPrefix(component, DefaultName+".") {
		return component
	}
	return DefaultName + "." + component
}

// ResolveComponent resolves a child logger for one CRM component.
func ResolveComponent(component string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return Resolve(ComponentName(component), provider, logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves glog logger/provider then returns equivalent go-job
// adapters for the redelivery and rollup workers.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
