// Package control separates gateway command acknowledgements from telemetry.
package control

import (
	"regexp"
	"strings"
)

// Kind identifies which control response keyword matched.
type Kind string

const (
	KindStatus        Kind = "STATUS"
	KindError         Kind = "ERROR"
	KindReboot        Kind = "REBOOT"
	KindVersion       Kind = "VERSION"
	KindConnList      Kind = "BLE_CONN_LIST"
	KindFilterList    Kind = "BLE_FILTER_LIST"
	KindConnClear     Kind = "BLE_CONN_CLEAR"
	KindDisconnectAll Kind = "BLE_DISCONN_ALL"
)

// Match order matters: BLE_CONN_LIST must win over anything it contains.
var keywords = []Kind{
	KindConnList,
	KindFilterList,
	KindConnClear,
	KindDisconnectAll,
	KindError,
	KindStatus,
	KindReboot,
	KindVersion,
}

var listTerminator = regexp.MustCompile(`;\r?\n`)

const errorPrefix = "ERROR;"

// Response is the latest command response shown to the user.
type Response struct {
	Kind    Kind   `json:"kind"`
	Raw     string `json:"raw"`
	Message string `json:"message"`
}

// Classifier tracks the multi-chunk connection-list accumulation. It is not
// safe for concurrent use.
type Classifier struct {
	awaitingList bool
	listBuffer   strings.Builder
}

// NewClassifier returns an idle classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify inspects one transport chunk. handled reports that the chunk
// belongs to the control channel and must not reach the frame decoder. ok
// reports that a complete response is available in resp.
func (c *Classifier) Classify(chunk string) (resp Response, ok, handled bool) {
	if chunk == "" {
		return Response{}, false, false
	}

	if c.awaitingList {
		c.listBuffer.WriteString(chunk)
		if list, done := c.completeList(); done {
			return list, true, true
		}
		return Response{}, false, true
	}

	if strings.Contains(chunk, errorPrefix) {
		return newResponse(KindError, chunk), true, true
	}

	kind, matched := match(chunk)
	if !matched {
		return Response{}, false, false
	}

	if kind == KindConnList {
		c.listBuffer.Reset()
		c.listBuffer.WriteString(chunk)
		if list, done := c.completeList(); done {
			return list, true, true
		}
		c.awaitingList = true
		return Response{}, false, true
	}

	return newResponse(kind, chunk), true, true
}

// AwaitingList reports whether a connection-list response is mid-flight.
func (c *Classifier) AwaitingList() bool {
	return c.awaitingList
}

// Reset abandons any partial connection list.
func (c *Classifier) Reset() {
	c.awaitingList = false
	c.listBuffer.Reset()
}

func (c *Classifier) completeList() (Response, bool) {
	text := c.listBuffer.String()
	if !listTerminator.MatchString(text) {
		return Response{}, false
	}
	c.Reset()
	return newResponse(KindConnList, text), true
}

func match(chunk string) (Kind, bool) {
	for _, kw := range keywords {
		if strings.Contains(chunk, string(kw)) {
			return kw, true
		}
	}
	return "", false
}

func newResponse(kind Kind, raw string) Response {
	text := strings.TrimSpace(raw)
	resp := Response{Kind: kind, Raw: text, Message: text}

	if idx := strings.Index(text, errorPrefix); idx >= 0 {
		resp.Kind = KindError
		resp.Message = strings.TrimSpace(text[idx+len(errorPrefix):])
	}
	return resp
}
