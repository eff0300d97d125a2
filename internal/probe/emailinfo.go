package probe

import (
	"context"
	"net"
	"strings"

	"github.com/nao1215/identscan/internal/model"
)

// UnknownProvider is reported for domains outside the provider table.
const UnknownProvider = "Unknown/Custom"

var emailProviders = map[string]string{
	"gmail.com":      "Google Gmail",
	"googlemail.com": "Google Gmail",
	"yahoo.com":      "Yahoo Mail",
	"outlook.com":    "Microsoft Outlook",
	"hotmail.com":    "Microsoft Hotmail",
	"live.com":       "Microsoft Outlook",
	"icloud.com":     "Apple iCloud",
	"me.com":         "Apple iCloud",
	"mail.ru":        "Mail.ru",
	"yandex.ru":      "Yandex Mail",
	"yandex.com":     "Yandex Mail",
	"protonmail.com": "ProtonMail",
	"proton.me":      "ProtonMail",
	"gmx.com":        "GMX Mail",
	"aol.com":        "AOL Mail",
}

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"throwaway.email":   true,
	"temp-mail.org":     true,
	"mailinator.com":    true,
	"trashmail.com":     true,
	"getnada.com":       true,
	"maildrop.cc":       true,
	"yopmail.com":       true,
}

// EmailProvider returns the mailbox provider for a domain.
func EmailProvider(domain string) string {
	if p, ok := emailProviders[strings.ToLower(domain)]; ok {
		return p
	}
	return UnknownProvider
}

// IsDisposableDomain reports whether the domain belongs to a throwaway mail service.
func IsDisposableDomain(domain string) bool {
	return disposableDomains[strings.ToLower(domain)]
}

// MXResolver resolves mail exchangers. *net.Resolver satisfies it.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// EmailInfoProbe reports provider, disposable-domain and MX information
// for an email address. It is a signal probe and never returns NotFound.
type EmailInfoProbe struct {
	desc     Descriptor
	resolver MXResolver
}

// NewEmailInfoProbe creates an EmailInfoProbe. A nil resolver uses net.DefaultResolver.
func NewEmailInfoProbe(desc Descriptor, resolver MXResolver) *EmailInfoProbe {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	desc.Source = SourceLocal
	desc.Signal = true
	return &EmailInfoProbe{desc: desc, resolver: resolver}
}

// Descriptor implements Probe.
func (p *EmailInfoProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *EmailInfoProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	value := subject.Value()
	domain := strings.ToLower(value[strings.LastIndex(value, "@")+1:])

	info := model.EmailInfo{
		Domain:     domain,
		Provider:   EmailProvider(domain),
		Disposable: IsDisposableDomain(domain),
	}

	records, err := p.resolver.LookupMX(ctx, domain)
	if err == nil {
		for _, mx := range records {
			info.MXHosts = append(info.MXHosts, strings.TrimSuffix(mx.Host, "."))
		}
		info.MXValid = len(info.MXHosts) > 0
	}

	return FoundSignals(model.Signals{Email: &info})
}
