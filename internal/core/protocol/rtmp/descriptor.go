// If you are AI: This file defines the resolved connection descriptor a session consumes.

package rtmp

import (
	"net"
	"strconv"

	"roomlink/internal/core/protocol/amf0"
)

// Descriptor is everything needed to open one session.
// It is produced by a resolver before Connect and never mutated by the session.
type Descriptor struct {
	IP         string
	Port       int
	App        string
	StreamURL  string
	PageURL    string
	SWFURL     string
	Proxy      string
	AuthCookie string
	// Params are appended to the connect command after the command object.
	Params amf0.Object
	// RestrictedArea asks the manager to run a secondary session.
	RestrictedArea bool
	// PublishName is published once the server assigns a stream id.
	PublishName string
}

// Address returns the host:port of the target server.
func (d Descriptor) Address() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// connectParams returns Params with the auth cookie added when absent, or nil when there is nothing to send.
func (d Descriptor) connectParams() amf0.Object {
	if len(d.Params) == 0 && d.AuthCookie == "" {
		return nil
	}
	params := make(amf0.Object, len(d.Params)+1)
	for k, v := range d.Params {
		params[k] = v
	}
	if _, ok := params["cookie"]; !ok && d.AuthCookie != "" {
		params["cookie"] = d.AuthCookie
	}
	return params
}
