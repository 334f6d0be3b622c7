package slack

import (
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
)

// NewWithPager builds a client whose channel listing runs against the
// given pager. Only ListChannels is usable on the result.
func NewWithPager(p conversationsPager) interfaces.API {
	return &client{pager: p}
}

var (
	ConvertChannel = convertChannel
	ConvertUser    = convertUser
)
