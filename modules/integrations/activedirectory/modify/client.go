package modify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/lkarlslund/dacledit/modules/dacl"
	"github.com/lkarlslund/dacledit/modules/integrations/activedirectory"
	"github.com/lkarlslund/dacledit/modules/ui"
	ldap "github.com/lkarlslund/ldap/v3"
	"github.com/pkg/errors"
)

type State byte

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
	StateModified
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	case StateAuthenticated:
		return "Authenticated"
	case StateModified:
		return "Modified"
	case StateClosed:
		return "Closed"
	case StateError:
		return "Error"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

const (
	ATTR_NTSECURITYDESCRIPTOR = "nTSecurityDescriptor"
	ATTR_SDFLAGS              = "sdflags"
)

// directoryConn is the part of *ldap.Conn the client needs
type directoryConn interface {
	SetTimeout(time.Duration)
	GSSAPIBind(client ldap.GSSAPIClient, servicePrincipal, authzid string) error
	Modify(*ldap.ModifyRequest) error
	Unbind() error
	Close()
}

type dialFunc func(ctx context.Context, target Target, opts Options) (directoryConn, error)

type gssapiFunc func(ccachepath string, target Target, opts Options) (ldap.GSSAPIClient, error)

// Client performs one DACL replacement over one LDAP session.
// Methods must be called in order: Connect, Authenticate, ApplySecurityDescriptor, Close.
// A client is not safe for concurrent use.
type Client struct {
	opts   Options
	state  State
	target Target
	conn   directoryConn

	dial   dialFunc
	gssapi gssapiFunc
}

func NewClient(opts Options) *Client {
	return &Client{
		opts:   opts,
		dial:   dialLDAP,
		gssapi: kerberosFromCCache,
	}
}

func (c *Client) State() State {
	return c.state
}

func (c *Client) setState(s State) {
	ui.Debug().Msgf("LDAP session %v -> %v", c.state, s)
	c.state = s
}

// Connect opens the transport to the server in uri. A context deadline bounds the dial.
func (c *Client) Connect(ctx context.Context, uri string) error {
	if c.state != StateDisconnected {
		return dacl.ConnectionError(errors.Errorf("can not connect, session is %v", c.state))
	}

	target, err := ParseTarget(uri, c.opts.StartTLS)
	if err != nil {
		c.setState(StateError)
		return dacl.ConnectionError(err)
	}
	if err = ctx.Err(); err != nil {
		c.setState(StateError)
		return dacl.ConnectionError(err)
	}

	ui.Debug().Msgf("Connecting to %v using %v", target.Address(), target.TLSMode)
	conn, err := c.dial(ctx, target, c.opts)
	if err != nil {
		c.setState(StateError)
		return dacl.ConnectionError(errors.Wrapf(err, "problem connecting to %v", target.Address()))
	}

	c.target = target
	c.conn = conn
	c.setState(StateConnected)
	return nil
}

// Authenticate does a SASL GSSAPI bind using the tickets in the credential cache at ccachepath
func (c *Client) Authenticate(ctx context.Context, ccachepath string) error {
	if c.state != StateConnected {
		return dacl.AuthenticationFailure(errors.Errorf("can not authenticate, session is %v", c.state))
	}
	if err := ctx.Err(); err != nil {
		c.setState(StateError)
		return dacl.AuthenticationFailure(err)
	}

	gssapiclient, err := c.gssapi(ccachepath, c.target, c.opts)
	if err != nil {
		c.setState(StateError)
		if dacl.KindOf(err) != dacl.KindUnspecified {
			return err
		}
		return dacl.AuthenticationFailure(err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetTimeout(time.Until(deadline))
	}

	ui.Debug().Msgf("Binding with SASL GSSAPI as service %v", c.target.ServicePrincipal())
	if err = c.conn.GSSAPIBind(gssapiclient, c.target.ServicePrincipal(), ""); err != nil {
		c.setState(StateError)
		return dacl.AuthenticationFailure(errors.Wrap(err, "SASL GSSAPI bind failed"))
	}

	c.setState(StateAuthenticated)
	return nil
}

// ModifyRequest builds the single request replacing the security descriptor and its control flags
func (c *Client) ModifyRequest(targetdn string, update dacl.SecurityDescriptorUpdate) *ldap.ModifyRequest {
	var controls []ldap.Control
	if c.opts.SDFlagsControl {
		controls = append(controls, NewSDFlagsControl(DACL_SECURITY_INFORMATION))
	}
	req := ldap.NewModifyRequest(targetdn, controls)
	req.Replace(ATTR_NTSECURITYDESCRIPTOR, []string{update.ACE})
	req.Replace(ATTR_SDFLAGS, []string{update.SDControlFlags})
	return req
}

// ApplySecurityDescriptor writes update to targetdn in one atomic modify.
// The context is only consulted before the request goes out.
func (c *Client) ApplySecurityDescriptor(ctx context.Context, targetdn string, update dacl.SecurityDescriptorUpdate) error {
	if c.state != StateAuthenticated {
		return dacl.ModifyRejected(0, targetdn, errors.Errorf("can not modify, session is %v", c.state))
	}
	if targetdn == "" {
		return dacl.ModifyRejected(0, targetdn, errors.New("no target DN"))
	}
	if err := ctx.Err(); err != nil {
		c.setState(StateError)
		return dacl.ModifyRejected(0, targetdn, err)
	}

	ui.Debug().Msgf("Replacing %v on %v with %v (%v %v)", ATTR_NTSECURITYDESCRIPTOR, targetdn, update.ACE, ATTR_SDFLAGS, update.SDControlFlags)
	if err := c.conn.Modify(c.ModifyRequest(targetdn, update)); err != nil {
		c.setState(StateError)
		return dacl.ModifyRejected(resultCode(err), targetdn, err)
	}

	c.setState(StateModified)
	return nil
}

// Close unbinds and releases the connection. Problems are logged, never returned.
// Calling it more than once is harmless.
func (c *Client) Close() {
	if c.state == StateClosed {
		return
	}
	if c.conn != nil {
		if err := c.conn.Unbind(); err != nil {
			ui.Warn().Msgf("Problem unbinding from %v: %v", c.target.Address(), err)
			c.conn.Close()
		}
		c.conn = nil
	}
	c.setState(StateClosed)
}

func resultCode(err error) uint16 {
	var lerr *ldap.Error
	if errors.As(err, &lerr) {
		return lerr.ResultCode
	}
	return 0
}

// ldapConn hides the differences in Close between library versions
type ldapConn struct {
	*ldap.Conn
}

func (l ldapConn) Close() {
	l.Conn.Close()
}

func dialLDAP(ctx context.Context, target Target, opts Options) (directoryConn, error) {
	dialer := &net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	tlsconfig := &tls.Config{
		ServerName:         target.Host,
		InsecureSkipVerify: opts.IgnoreCert,
	}

	dialopts := []ldap.DialOpt{ldap.DialWithDialer(dialer)}
	if target.TLSMode == TLS {
		dialopts = append(dialopts, ldap.DialWithTLSConfig(tlsconfig))
	}

	conn, err := ldap.DialURL(target.URL(), dialopts...)
	if err != nil {
		return nil, err
	}
	conn.Debug.Enable(opts.Debug)

	if target.TLSMode == StartTLS {
		if err = conn.StartTLS(tlsconfig); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "StartTLS failed")
		}
	}
	return ldapConn{conn}, nil
}

func kerberosFromCCache(ccachepath string, target Target, opts Options) (ldap.GSSAPIClient, error) {
	ccache, err := activedirectory.LoadCCache(ccachepath)
	if err != nil {
		return nil, err
	}

	realm := DetectRealm(opts.Realm, ccache)
	if realm == "" {
		return nil, dacl.AuthenticationFailure(errors.New("could not determine Kerberos realm, use --realm"))
	}

	cl, err := activedirectory.NewKerberosClient(ccache, realm, opts.KDC)
	if err != nil {
		return nil, err
	}
	return NewGSSAPIState(cl), nil
}
