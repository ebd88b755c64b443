// If you are AI: This file maps configuration onto the protocol engine and lifecycle settings.

package config

import (
	"log/slog"

	"roomlink/internal/core/protocol/rtmp"
	"roomlink/internal/svc/lifecycle"
)

// SessionConfig returns the protocol settings for every session.
func (p *ProtocolConfig) SessionConfig() rtmp.SessionConfig {
	cfg := rtmp.DefaultSessionConfig()
	cfg.ChunkSize = p.ChunkSize
	cfg.FlashVersion = p.FlashVersion
	if p.WindowAckSize != nil {
		cfg.Expect.WindowAckSize = *p.WindowAckSize
	}
	if p.PeerBandwidth != nil {
		cfg.Expect.PeerBandwidth = *p.PeerBandwidth
	}
	if p.PeerBandwidthLimit != nil {
		cfg.Expect.PeerBandwidthLimit = *p.PeerBandwidthLimit
	}
	cfg.Routes = p.routePolicy()
	return cfg
}

// routePolicy overlays the configured command routes on the default table.
func (p *ProtocolConfig) routePolicy() rtmp.RoutePolicy {
	policy := rtmp.DefaultRoutePolicy()
	for name, r := range p.Routes {
		policy.Commands[name] = rtmp.Route{Channel: r.Channel, OnStream: r.OnStream}
	}
	return policy
}

// LifecycleOptions returns manager options with the protocol and reconnect policy applied.
// Dialer, dispatcher, notifier and observer are left for the caller to wire.
func (c *Config) LifecycleOptions(log *slog.Logger) lifecycle.Options {
	opts := lifecycle.DefaultOptions()
	opts.Session = c.Protocol.SessionConfig()
	opts.BaseDelay = c.Reconnect.BaseDelay
	opts.MaxDelay = c.Reconnect.MaxDelay
	opts.SecondaryDelay = c.Reconnect.SecondaryDelay
	opts.RefreshInterval = c.Reconnect.RefreshInterval
	opts.ResetUptime = c.Reconnect.ResetUptime
	opts.PingInterval = c.Protocol.PingInterval
	opts.Logger = log
	return opts
}
