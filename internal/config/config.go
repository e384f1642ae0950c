package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Secrets. DBSecret is the 32-byte AES key for task payloads at rest and
	// doubles as the admin shared secret. MPAPIKey authenticates the game-server
	// plugin; VerificationKey is echoed back so the plugin can confirm it is
	// talking to the expected server instance.
	DBSecret        string
	MPAPIKey        string
	VerificationKey string

	// IP reputation lookup
	ReputationURL     string
	ReputationTimeout time.Duration

	// Proxy feed refresh
	ProxyFeedInterval time.Duration
	ProxyFeedTimeout  time.Duration
	ProxyFeeds        []string

	// Server
	Port        string
	CORSOrigins string
}

// DefaultProxyFeeds are public SOCKS4/5 proxy lists merged into the known-proxy
// set on every refresh.
var DefaultProxyFeeds = []string{
	"https://raw.githubusercontent.com/TheSpeedX/SOCKS-List/master/socks4.txt",
	"https://www.proxyscan.io/download?type=socks4",
	"https://api.proxyscrape.com/v2/?request=getproxies&protocol=socks4&timeout=10000&country=all",
	"https://api.openproxylist.xyz/socks4.txt",
	"https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/socks4.txt",
	"https://raw.githubusercontent.com/roosterkid/openproxylist/main/SOCKS4_RAW.txt",
	"https://raw.githubusercontent.com/TheSpeedX/SOCKS-List/master/socks5.txt",
	"https://www.proxyscan.io/download?type=socks5",
	"https://api.proxyscrape.com/v2/?request=getproxies&protocol=socks5&timeout=10000&country=all",
	"https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/socks5.txt",
	"https://raw.githubusercontent.com/roosterkid/openproxylist/main/SOCKS5_RAW.txt",
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "messy_protect"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBSecret:        getEnv("DB_SECRET", ""),
		MPAPIKey:        getEnv("MP_API_KEY", ""),
		VerificationKey: getEnv("VERIFICATION_KEY", ""),

		ReputationURL:     getEnv("REPUTATION_URL", "http://ip-api.com/json"),
		ReputationTimeout: parseDuration(getEnv("REPUTATION_TIMEOUT", "2s"), 2*time.Second),

		ProxyFeedInterval: parseDuration(getEnv("PROXY_FEED_INTERVAL", "30m"), 30*time.Minute),
		ProxyFeedTimeout:  parseDuration(getEnv("PROXY_FEED_TIMEOUT", "5s"), 5*time.Second),
		ProxyFeeds:        parseFeeds(getEnv("PROXY_FEEDS", "")),

		Port:        getEnv("PORT", "31193"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseFeeds(s string) []string {
	if s == "" {
		return DefaultProxyFeeds
	}
	parts := strings.Split(s, ",")
	feeds := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			feeds = append(feeds, trimmed)
		}
	}
	return feeds
}
