package config

import "runtime"

const (
	defaultPublicDir   = "public"
	defaultSourceDir   = "src"
	defaultServerAddr  = ":3000"
	defaultMetricsPath = "/metrics"
)

// ApplyDefaults fills zero values. Build stays nil when not configured.
func ApplyDefaults(s *Settings) {
	if s.Locations.Public == "" {
		s.Locations.Public = defaultPublicDir
	}
	if s.Locations.Source == "" {
		s.Locations.Source = defaultSourceDir
	}
	if s.Server.Addr == "" {
		s.Server.Addr = defaultServerAddr
	}
	if s.Metrics.Path == "" {
		s.Metrics.Path = defaultMetricsPath
	}
	if s.Build != nil && s.Build.Workers <= 0 {
		s.Build.Workers = runtime.NumCPU()
	}
}
