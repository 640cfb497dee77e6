// Package settings supplies the site configuration the reconciliation
// handlers read: whether chat is enabled and which groups may use it.
//
// Callers fetch chat.SiteSettings once per trigger and pass the value into
// the engine. RedisProvider reads the shared site-settings hash and keeps a
// short-lived in-process copy.
package settings
