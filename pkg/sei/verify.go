package sei

import "strings"

// Submits are verified by a positive success indicator, never by the mere
// absence of an error: the portal regularly swallows failed posts into a
// redisplayed form. When the portal renders neither banner the outcome is
// reported as failure; the conservative reading, since a tenant theme may
// legitimately succeed without a banner (callers can retry or re-query).
var (
	successBannerSelector = "div.infraMsgSucesso, td.infraMsgSucesso, .infraMsg img[src*='sucesso']"
	errorBannerSelector   = "div.infraMsgErro, td.infraMsgErro, label.infraMsgErro, .infraMsg img[src*='erro']"
)

// verifySubmit checks the outcome of a submitted transaction. It returns
// (true, nil) on a success banner, (false, *RemoteOperationFailedError) when
// the portal surfaced its own error banner, and (false, nil) when neither
// appeared within the probe bound.
func (c *Client) verifySubmit(op string) (bool, error) {
	for _, target := range []Target{TargetContent, TargetPage} {
		if c.exists(Locator{Fallback: successBannerSelector, Target: target}) {
			return true, nil
		}
	}
	for _, target := range []Target{TargetContent, TargetPage} {
		loc := Locator{Fallback: errorBannerSelector, Target: target}
		if !c.exists(loc) {
			continue
		}
		message, err := c.readText(loc)
		if err != nil {
			message = ""
		}
		return false, &RemoteOperationFailedError{Op: op, Message: strings.TrimSpace(message)}
	}
	c.log.Warnf("%s: no outcome banner rendered, reporting failure", op)
	return false, nil
}
