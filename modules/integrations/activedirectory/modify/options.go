package modify

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/Showmax/go-fqdn"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/lkarlslund/dacledit/modules/ui"
	"github.com/pkg/errors"
)

type TLSmode byte

const (
	NoTLS TLSmode = iota
	StartTLS
	TLS
)

func (t TLSmode) String() string {
	switch t {
	case NoTLS:
		return "NoTLS"
	case StartTLS:
		return "StartTLS"
	case TLS:
		return "TLS"
	}
	return fmt.Sprintf("TLSmode(%d)", byte(t))
}

type Options struct {
	Realm          string // Kerberos realm, detected when empty
	KDC            string // KDC host, DNS lookup when empty
	StartTLS       bool
	IgnoreCert     bool
	SDFlagsControl bool // send LDAP_SERVER_SD_FLAGS_OID with the modify
	Debug          bool
}

// Target is a parsed ldap:// or ldaps:// URI
type Target struct {
	Host    string
	Port    int
	TLSMode TLSmode
}

func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) URL() string {
	scheme := "ldap"
	if t.TLSMode == TLS {
		scheme = "ldaps"
	}
	return scheme + "://" + t.Address()
}

// ServicePrincipal is the SPN used for the SASL GSSAPI bind
func (t Target) ServicePrincipal() string {
	return "ldap/" + t.Host
}

func ParseTarget(uri string, starttls bool) (Target, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Target{}, errors.Wrapf(err, "invalid LDAP URI %q", uri)
	}

	var target Target
	switch strings.ToLower(u.Scheme) {
	case "ldap":
		target.Port = 389
		if starttls {
			target.TLSMode = StartTLS
		}
	case "ldaps":
		target.Port = 636
		target.TLSMode = TLS
		if starttls {
			return Target{}, errors.New("StartTLS can not be used with ldaps://")
		}
	default:
		return Target{}, errors.Errorf("unsupported scheme %q in LDAP URI %q, use ldap:// or ldaps://", u.Scheme, uri)
	}

	target.Host = u.Hostname()
	if target.Host == "" {
		return Target{}, errors.Errorf("no host in LDAP URI %q", uri)
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return Target{}, errors.Errorf("invalid port %q in LDAP URI %q", port, uri)
		}
		target.Port = p
	}
	return target, nil
}

type RealmDetector struct {
	Func func(ccache *credentials.CCache) string
	Name string
}

var (
	findRealm = []RealmDetector{
		{
			Name: "credential cache",
			Func: func(ccache *credentials.CCache) string {
				if ccache == nil {
					return ""
				}
				return ccache.GetClientRealm()
			},
		},
		{
			Name: "USERDNSDOMAIN",
			Func: func(_ *credentials.CCache) string {
				return os.Getenv("USERDNSDOMAIN")
			},
		},
		{
			Name: "FQDN",
			Func: func(_ *credentials.CCache) string {
				f, err := fqdn.FqdnHostname()
				if err != nil {
					ui.Debug().Msgf("Autodetection using FQDN error: %v", err)
				} else if strings.Contains(f, ".") {
					return f[strings.Index(f, ".")+1:]
				}
				return ""
			},
		},
	}
)

var lookupSRV = net.LookupSRV

// DetectServerURI finds a domain controller for domain through the DC locator SRV record,
// falling back to the domain name itself
func DetectServerURI(domain string) string {
	domain = strings.ToLower(domain)
	cname, servers, err := lookupSRV("", "", "_ldap._tcp.dc._msdcs."+domain)
	if err == nil && cname != "" && len(servers) != 0 {
		server := strings.TrimRight(servers[0].Target, ".")
		ui.Debug().Msgf("AD controller detected as: %v", server)
		return "ldap://" + server
	}
	ui.Debug().Msgf("AD controller auto-detection for %v failed, using the domain name", domain)
	return "ldap://" + domain
}

// DetectRealm returns explicit if set, otherwise the first detector that produces something.
// The result is upper case, or empty when nothing was found.
func DetectRealm(explicit string, ccache *credentials.CCache) string {
	if explicit != "" {
		return strings.ToUpper(explicit)
	}
	for _, d := range findRealm {
		if realm := d.Func(ccache); realm != "" {
			ui.Debug().Msgf("Detected realm as %v from %v", strings.ToUpper(realm), d.Name)
			return strings.ToUpper(realm)
		}
		ui.Trace().Msgf("Failed to detect realm with detector %v", d.Name)
	}
	return ""
}
