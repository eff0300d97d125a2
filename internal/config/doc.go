// Package config provides the runtime configuration of identscan: lookup
// limits, output preferences, credentials, and the probe definitions file
// that describes which sites and tools are queried for each subject kind.
package config
