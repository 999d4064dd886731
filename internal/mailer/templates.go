package mailer

import (
	"fmt"
	"html"
	"net/url"
)

// Templates builds the transactional messages. BaseURL is the public origin
// that links point at.
type Templates struct {
	BaseURL string
}

func (t Templates) link(path, token string) string {
	return t.BaseURL + path + "?token=" + url.QueryEscape(token)
}

// Verification asks the recipient to confirm their address.
func (t Templates) Verification(to, displayName, token string) Message {
	link := t.link("/auth/verify", token)
	safe := html.EscapeString(link)
	return Message{
		To:      to,
		Subject: "Verify your Valorant Skin Tracker account",
		Text:    "Verify your account: " + link,
		HTML: fmt.Sprintf("<p>Hey %s,</p>\n<p>Click the link below to verify your email:</p>\n<p><a href=\"%s\">%s</a></p>",
			html.EscapeString(displayName), safe, safe),
	}
}

// PasswordReset carries a one-time reset link.
func (t Templates) PasswordReset(to, token string) Message {
	link := t.link("/auth/reset", token)
	safe := html.EscapeString(link)
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text:    "Reset your password: " + link,
		HTML:    fmt.Sprintf("<p>Reset your password: <a href=\"%s\">%s</a></p>", safe, safe),
	}
}
