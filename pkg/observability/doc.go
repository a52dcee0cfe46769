/*
Package observability turns engine lifecycle hooks into Prometheus metrics and structured logs.

Hooks from several sources can be combined with Chain and passed to debrief.WithLifecycleHooks.
*/
package observability
