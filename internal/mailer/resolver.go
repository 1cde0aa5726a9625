package mailer

import "strings"

// Endpoint is a resolved outgoing mail server.
type Endpoint struct {
	Host string
	Port int
}

// imapToSMTP maps known IMAP hostnames to their provider's submission server.
// imapHostOrder fixes the substring-pass order; map iteration would make the
// winner depend on the run when a hint contains more than one key.
var imapToSMTP = map[string]Endpoint{
	"imap4.muumuu-mail.com": {"smtp.muumuu-mail.com", 587},
	"imap.muumuu-mail.com":  {"smtp.muumuu-mail.com", 587},
	"imap.gmail.com":        {"smtp.gmail.com", 587},
	"imap.googlemail.com":   {"smtp.gmail.com", 587},
	"imap.onamae.com":       {"smtp.onamae.com", 587},
	"imap.lolipop.jp":       {"smtp.lolipop.jp", 587},
}

var imapHostOrder = []string{
	"imap4.muumuu-mail.com",
	"imap.muumuu-mail.com",
	"imap.gmail.com",
	"imap.googlemail.com",
	"imap.onamae.com",
	"imap.lolipop.jp",
}

// domainToSMTP maps mail domains to submission servers, for accounts whose
// registry row carries no IMAP hint.
var domainToSMTP = map[string]Endpoint{
	"gmail.com":       {"smtp.gmail.com", 587},
	"googlemail.com":  {"smtp.gmail.com", 587},
	"muumuu-mail.com": {"smtp.muumuu-mail.com", 587},
	"onamae.com":      {"smtp.onamae.com", 587},
	"lolipop.jp":      {"smtp.lolipop.jp", 587},
}

// ResolveSMTP infers the outgoing server for an account. Resolution order,
// first match wins: exact IMAP hint, IMAP hint substring (hints sometimes
// carry a trailing port), provider brand keywords, the email's own domain
// for xserver accounts, the domain table, then the configured default.
func ResolveSMTP(imapHint, email string, defaultEndpoint Endpoint) Endpoint {
	hint := strings.ToLower(strings.TrimSpace(imapHint))

	if ep, ok := imapToSMTP[hint]; ok {
		return ep
	}

	for _, key := range imapHostOrder {
		if strings.Contains(hint, key) {
			return imapToSMTP[key]
		}
	}

	switch {
	case strings.Contains(hint, "gmail") || strings.Contains(hint, "google"):
		return Endpoint{"smtp.gmail.com", 587}
	case strings.Contains(hint, "muumuu"):
		return Endpoint{"smtp.muumuu-mail.com", 587}
	case strings.Contains(hint, "onamae"):
		return Endpoint{"smtp.onamae.com", 587}
	case strings.Contains(hint, "lolipop"):
		return Endpoint{"smtp.lolipop.jp", 587}
	case strings.Contains(hint, "xserver") || strings.Contains(hint, "xsrv"):
		// xserver runs a separate SMTP host per customer domain; the mail
		// domain itself is the server name.
		if domain := emailDomain(email); domain != "" {
			return Endpoint{domain, 587}
		}
	}

	if domain := emailDomain(email); domain != "" {
		if ep, ok := domainToSMTP[strings.ToLower(domain)]; ok {
			return ep
		}
	}

	return defaultEndpoint
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
