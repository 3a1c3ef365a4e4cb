package messaging

import (
	"encoding/json"
	"fmt"
)

const frameVersion = 1

// frame carries headers and key over brokers without native headers.
type frame struct {
	Version int               `json:"v"`
	Key     []byte            `json:"k,omitempty"`
	Headers map[string]string `json:"h,omitempty"`
	Body    []byte            `json:"b"`
}

func encodeFrame(msg OutgoingMessage) ([]byte, error) {
	b, err := json.Marshal(frame{Version: frameVersion, Key: msg.Key, Headers: msg.Headers, Body: msg.Body})
	if err != nil {
		return nil, fmt.Errorf("messaging: encode frame: %w", err)
	}
	return b, nil
}

// decodeFrame unwraps a framed payload. Anything else, such as a message
// published by a tool that does not frame, is returned as a bare body.
func decodeFrame(payload []byte) frame {
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil || f.Version != frameVersion {
		return frame{Body: payload}
	}
	return f
}
