// Package app assembles a running chatprune instance from configuration:
// database store, optional Redis client, kick job dispatchers, site settings
// provider, the reconciliation engine and the trigger router. Both the admin
// CLI and the worker build on it.
package app
