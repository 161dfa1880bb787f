package config

// ConfigOption is one documented configuration key and its default.
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for default values and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		// Core paths
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; DB is data_dir/muse.db"},
		{Key: "db_url", Default: "", Comment: "Database url (sqlite://path or mem://); empty uses data_dir/muse.db"},
		{Key: "http_addr", Default: "127.0.0.1:8080", Comment: "HTTP listen address for muse serve"},

		{Key: "user.email", Default: "", Comment: "Account used by document commands when --as is not given"},
		{Key: "user.welcome_document", Default: true, Comment: "Give new accounts a welcome document"},

		{Key: "auth.secret", Default: "", Comment: "HMAC secret for session tokens; muse serve needs this or auth.keyring"},
		{Key: "auth.keyring", Default: false, Comment: "Keep a generated token secret in the system keyring when auth.secret is empty"},
		{Key: "auth.token_ttl", Default: "24h", Comment: "Session token lifetime"},

		{Key: "autosave.interval", Default: "2s", Comment: "Delay after the last edit before a draft is saved"},

		{Key: "preview.style", Default: "dracula", Comment: "Glamour style for terminal previews (dracula, dark, light, notty, ...)"},
		{Key: "preview.width", Default: 80, Comment: "Word wrap width for terminal previews"},

		{Key: "list.page_size", Default: 50, Comment: "Documents fetched per page by list commands"},

		{Key: "log.level", Default: "info", Comment: "Log level: debug, info, warn, error"},
		{Key: "log.format", Default: "console", Comment: "Log encoding: console or json"},

		{Key: "tls.mode", Default: "off", Comment: "TLS for muse serve: off, file, self-signed, acme"},
		{Key: "tls.cert_file", Default: "", Comment: "PEM certificate when tls.mode = file"},
		{Key: "tls.key_file", Default: "", Comment: "PEM private key when tls.mode = file"},
		{Key: "tls.domain", Default: "", Comment: "Domain for ACME certificates"},
		{Key: "tls.email", Default: "", Comment: "Contact email for the ACME account"},
		{Key: "tls.storage_dir", Default: "", Comment: "Certificate storage; empty uses data_dir/certmagic"},
		{Key: "tls.http01_addr", Default: "", Comment: "Listen address for ACME HTTP-01 challenges (e.g. :80); empty disables"},

		{Key: "http3.enabled", Default: false, Comment: "Also serve the API over HTTP/3 (QUIC) when TLS is on"},
	}
}
