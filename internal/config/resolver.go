// If you are AI: This file implements the static resolver that turns the connection section into descriptors.
// It stands in for the HTTP lookup that would normally produce them.

package config

import (
	"context"
	"sync"

	"roomlink/internal/core/protocol/amf0"
	"roomlink/internal/core/protocol/rtmp"
	"roomlink/internal/svc/lifecycle"
)

// StaticResolver resolves every slot from a ConnectionConfig.
// Update swaps the configuration so a reload is picked up on the next resolve.
type StaticResolver struct {
	mu   sync.RWMutex
	conn ConnectionConfig
}

// NewStaticResolver creates a resolver over conn.
func NewStaticResolver(conn ConnectionConfig) *StaticResolver {
	return &StaticResolver{conn: conn}
}

// Update replaces the connection configuration.
func (r *StaticResolver) Update(conn ConnectionConfig) {
	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
}

// Resolve returns the descriptor for slot.
func (r *StaticResolver) Resolve(ctx context.Context, slot lifecycle.Slot) (rtmp.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return rtmp.Descriptor{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn.Descriptor(slot), nil
}

// Descriptor builds the descriptor for slot.
// The secondary session uses SecondaryParams when present and never publishes.
func (c ConnectionConfig) Descriptor(slot lifecycle.Slot) rtmp.Descriptor {
	params := c.Params
	publish := c.PublishName
	if slot == lifecycle.SlotSecondary {
		if c.SecondaryParams != nil {
			params = c.SecondaryParams
		}
		publish = ""
	}
	return rtmp.Descriptor{
		IP:             c.IP,
		Port:           c.Port,
		App:            c.App,
		StreamURL:      c.StreamURL,
		PageURL:        c.PageURL,
		SWFURL:         c.SWFURL,
		Proxy:          c.Proxy,
		AuthCookie:     c.AuthCookie,
		Params:         toObject(params),
		RestrictedArea: c.RestrictedArea,
		PublishName:    publish,
	}
}

// toObject converts YAML-decoded maps into AMF0 shapes, widening integers to numbers.
func toObject(m map[string]interface{}) amf0.Object {
	if m == nil {
		return nil
	}
	obj := make(amf0.Object, len(m))
	for k, v := range m {
		obj[k] = toValue(v)
	}
	return obj
}

// toValue converts one YAML value.
func toValue(v interface{}) amf0.Value {
	switch t := v.(type) {
	case map[string]interface{}:
		return toObject(t)
	case []interface{}:
		arr := make(amf0.Array, len(t))
		for i, e := range t {
			arr[i] = toValue(e)
		}
		return arr
	case int:
		return float64(t)
	default:
		return t
	}
}
