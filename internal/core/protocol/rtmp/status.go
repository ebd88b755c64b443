// If you are AI: This file lists NetConnection and NetStream status codes and extracts them from replies.

package rtmp

import "roomlink/internal/core/protocol/amf0"

// NetConnection status codes.
const (
	StatusConnectSuccess             = "NetConnection.Connect.Success"
	StatusConnectFailed              = "NetConnection.Connect.Failed"
	StatusConnectRejected            = "NetConnection.Connect.Rejected"
	StatusConnectClosed              = "NetConnection.Connect.Closed"
	StatusConnectAppShutdown         = "NetConnection.Connect.AppShutdown"
	StatusConnectInvalidApp          = "NetConnection.Connect.InvalidApp"
	StatusCallFailed                 = "NetConnection.Call.Failed"
	StatusCallBadVersion             = "NetConnection.Call.BadVersion"
	StatusPublishStart               = "NetStream.Publish.Start"
	StatusPublishBadName             = "NetStream.Publish.BadName"
	StatusUnpublishSuccess           = "NetStream.Unpublish.Success"
	StatusPlayStart                  = "NetStream.Play.Start"
	StatusSharedObjectBadPersistence = "SharedObject.BadPersistence"
)

// Status is the info object carried by _result, _error and onStatus replies.
type Status struct {
	Level       string
	Code        string
	Description string
}

// StatusOf extracts the first info object carrying a code from a command reply.
func StatusOf(msg *Message) (Status, bool) {
	switch msg.CommandName() {
	case "_result", "_error", "onStatus":
	default:
		return Status{}, false
	}
	for _, v := range msg.Values[1:] {
		obj, ok := v.(amf0.Object)
		if !ok {
			continue
		}
		code, ok := obj["code"].(string)
		if !ok {
			continue
		}
		st := Status{Code: code}
		st.Level, _ = obj["level"].(string)
		st.Description, _ = obj["description"].(string)
		return st, true
	}
	return Status{}, false
}
