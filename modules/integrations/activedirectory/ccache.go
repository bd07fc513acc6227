package activedirectory

import (
	"fmt"
	"os"
	"strings"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/lkarlslund/dacledit/modules/dacl"
	"github.com/pkg/errors"
)

const (
	libdefault = `[libdefaults]
default_realm = %s
dns_lookup_realm = false
dns_lookup_kdc = %v
ticket_lifetime = 24h
forwardable = yes
default_tkt_enctypes = aes256-cts-hmac-sha1-96 aes128-cts-hmac-sha1-96 rc4-hmac
default_tgs_enctypes = aes256-cts-hmac-sha1-96 aes128-cts-hmac-sha1-96 rc4-hmac
noaddresses = true
udp_preference_limit = 1
`
	realmblock = `[realms]
%s = {
kdc = %s:88
default_domain = %s
}
`
)

// LocateCCache picks the credential cache file to use: the explicit path if given,
// otherwise KRB5CCNAME. Only file caches can be read.
func LocateCCache(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	env, found := os.LookupEnv("KRB5CCNAME")
	if !found || env == "" {
		return "", dacl.MissingCredentialCache(errors.New("KRB5CCNAME is not set"))
	}

	cctype, path, hastype := strings.Cut(env, ":")
	if !hastype {
		return env, nil
	}
	if !strings.EqualFold(cctype, "FILE") {
		return "", dacl.MissingCredentialCache(fmt.Errorf("credential cache type %v is not supported, only FILE", cctype))
	}
	if path == "" {
		return "", dacl.MissingCredentialCache(errors.New("KRB5CCNAME has an empty FILE path"))
	}
	return path, nil
}

// LoadCCache reads a credential cache file, a missing file is reported as MissingCredentialCache
func LoadCCache(path string) (*credentials.CCache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, dacl.MissingCredentialCache(err)
	}
	ccache, err := credentials.LoadCCache(path)
	if err != nil {
		return nil, dacl.AuthenticationFailure(errors.Wrapf(err, "problem loading credential cache %v", path))
	}
	return ccache, nil
}

// KerberosConfig renders a minimal krb5.conf for realm. Without a KDC the KDC is found through DNS.
func KerberosConfig(realm, kdc string) (*config.Config, error) {
	realm = strings.ToUpper(realm)
	if realm == "" {
		return nil, errors.New("no Kerberos realm")
	}

	conf := fmt.Sprintf(libdefault, realm, kdc == "")
	if kdc != "" {
		conf += fmt.Sprintf(realmblock, realm, kdc, strings.ToLower(realm))
	}
	return config.NewFromString(conf)
}

// NewKerberosClient builds a gokrb5 client holding the tickets from ccache
func NewKerberosClient(ccache *credentials.CCache, realm, kdc string) (*client.Client, error) {
	if realm == "" {
		realm = ccache.GetClientRealm()
	}
	cfg, err := KerberosConfig(realm, kdc)
	if err != nil {
		return nil, dacl.AuthenticationFailure(err)
	}

	cl, err := client.NewFromCCache(ccache, cfg, client.DisablePAFXFAST(true))
	if err != nil {
		return nil, dacl.AuthenticationFailure(errors.Wrap(err, "problem creating Kerberos client from credential cache"))
	}
	return cl, nil
}
