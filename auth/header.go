package auth

import (
	"fmt"
	"net/http"
	"strconv"
)

// HeaderClient trusts an `X-Uid` header (or `x-uid` cookie). This mirrors
// the gateway contract: the reverse proxy strips inbound X-Uid headers and
// injects the verified session's uid.
type HeaderClient struct{}

func (c *HeaderClient) Auth(r *http.Request) (int64, error) {
	uidStr := r.Header.Get("X-Uid")
	if uidStr == "" {
		if ck, err := r.Cookie("x-uid"); err == nil {
			uidStr = ck.Value
		}
	}

	if uidStr == "" {
		return 0, fmt.Errorf("empty x-uid from header or cookie")
	}
	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error parse x-uid as integer: %v", err)
	}
	if uid <= 0 {
		return 0, fmt.Errorf("invalid uid: %d", uid)
	}
	return uid, nil
}
