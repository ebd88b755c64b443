// If you are AI: This file defines the outbound channel selection policy.
// Control types always go to channel 2; commands are looked up by name only.

package rtmp

import "fmt"

// Route says which chunk channel carries a message and whether it rides on the session stream id.
type Route struct {
	Channel  uint32
	OnStream bool
}

// RoutePolicy maps outbound messages to chunk channels.
type RoutePolicy struct {
	// Control is used for protocol control types 1 to 7.
	Control Route
	// Default is used for every message without a more specific route.
	Default Route
	// Commands overrides Default for command messages by command name.
	Commands map[string]Route
}

// DefaultRoutePolicy returns the channel table the target server expects.
func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{
		Control: Route{Channel: ControlChannel},
		Default: Route{Channel: CommandChannel},
		Commands: map[string]Route{
			"closeStream":  {Channel: CommandChannel, OnStream: true},
			"deleteStream": {Channel: CommandChannel, OnStream: true},
			"publish":      {Channel: CommandChannel, OnStream: true},
			"play":         {Channel: 8, OnStream: true},
		},
	}
}

// Validate checks that every route names a channel the basic header can carry.
func (p RoutePolicy) Validate() error {
	check := func(name string, r Route) error {
		if r.Channel < MinChannelID || r.Channel > MaxChannelID {
			return fmt.Errorf("route %s: channel %d out of range %d-%d", name, r.Channel, MinChannelID, MaxChannelID)
		}
		return nil
	}
	if err := check("control", p.Control); err != nil {
		return err
	}
	if err := check("default", p.Default); err != nil {
		return err
	}
	for name, r := range p.Commands {
		if err := check(name, r); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the channel and message stream id for msg given the session stream id.
func (p RoutePolicy) Resolve(msg *Message, sessionStream uint32) (uint32, uint32) {
	route := p.Default
	switch {
	case msg.Type.isProtocolControl():
		return p.Control.Channel, 0
	case msg.Type == TypeCommand || msg.Type == TypeAMF3Command:
		if r, ok := p.Commands[msg.CommandName()]; ok {
			route = r
		}
	}
	if route.OnStream {
		return route.Channel, sessionStream
	}
	return route.Channel, 0
}
