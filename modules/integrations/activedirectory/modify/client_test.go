package modify

import (
	"context"
	"testing"
	"time"

	"github.com/lkarlslund/dacledit/modules/dacl"
	ldap "github.com/lkarlslund/ldap/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	binds     []string
	modifies  []*ldap.ModifyRequest
	bindErr   error
	modifyErr error
	unbindErr error
	timeout   time.Duration
	unbinds   int
	closes    int
}

func (f *fakeConn) SetTimeout(d time.Duration) {
	f.timeout = d
}

func (f *fakeConn) GSSAPIBind(_ ldap.GSSAPIClient, servicePrincipal, _ string) error {
	f.binds = append(f.binds, servicePrincipal)
	return f.bindErr
}

func (f *fakeConn) Modify(req *ldap.ModifyRequest) error {
	f.modifies = append(f.modifies, req)
	return f.modifyErr
}

func (f *fakeConn) Unbind() error {
	f.unbinds++
	return f.unbindErr
}

func (f *fakeConn) Close() {
	f.closes++
}

type fakeGSSAPI struct{}

func (fakeGSSAPI) InitSecContext(string, []byte) ([]byte, bool, error) { return nil, false, nil }
func (fakeGSSAPI) NegotiateSaslAuth([]byte, string) ([]byte, error)  { return nil, nil }
func (fakeGSSAPI) DeleteSecContext() error                           { return nil }

type fakeDirectory struct {
	conn      *fakeConn
	dials     []Target
	dialErr   error
	ccaches   []string
	gssapiErr error
}

func newFakeClient(opts Options) (*Client, *fakeDirectory) {
	fd := &fakeDirectory{conn: &fakeConn{}}
	c := NewClient(opts)
	c.dial = func(_ context.Context, target Target, _ Options) (directoryConn, error) {
		fd.dials = append(fd.dials, target)
		if fd.dialErr != nil {
			return nil, fd.dialErr
		}
		return fd.conn, nil
	}
	c.gssapi = func(ccachepath string, _ Target, _ Options) (ldap.GSSAPIClient, error) {
		fd.ccaches = append(fd.ccaches, ccachepath)
		if fd.gssapiErr != nil {
			return nil, fd.gssapiErr
		}
		return fakeGSSAPI{}, nil
	}
	return c, fd
}

var testUpdate = dacl.SecurityDescriptorUpdate{
	ACE:            "(A;;131220;;;S-1-5-21-3623811015-3361044348-30300820-1013)",
	SDControlFlags: dacl.SDFLAG_DACL_PROTECTED,
	DACLProtected:  true,
}

const testDN = "CN=Target,OU=Users,DC=contoso,DC=local"

func changes(req *ldap.ModifyRequest) map[string][]string {
	result := make(map[string][]string)
	for _, change := range req.Changes {
		result[change.Modification.Type] = change.Modification.Vals
	}
	return result
}

func TestClientHappyPath(t *testing.T) {
	c, fd := newFakeClient(Options{})
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx, "ldap://dc01.contoso.local"))
	assert.Equal(t, StateConnected, c.State())
	require.Len(t, fd.dials, 1)
	assert.Equal(t, "dc01.contoso.local:389", fd.dials[0].Address())

	require.NoError(t, c.Authenticate(ctx, "/tmp/krb5cc_1000"))
	assert.Equal(t, StateAuthenticated, c.State())
	assert.Equal(t, []string{"/tmp/krb5cc_1000"}, fd.ccaches)
	assert.Equal(t, []string{"ldap/dc01.contoso.local"}, fd.conn.binds)

	require.NoError(t, c.ApplySecurityDescriptor(ctx, testDN, testUpdate))
	assert.Equal(t, StateModified, c.State())

	require.Len(t, fd.conn.modifies, 1, "exactly one atomic modify")
	req := fd.conn.modifies[0]
	assert.Equal(t, testDN, req.DN)
	assert.Empty(t, req.Controls)
	require.Len(t, req.Changes, 2)
	for _, change := range req.Changes {
		assert.Equal(t, uint(ldap.ReplaceAttribute), change.Operation)
	}
	assert.Equal(t, map[string][]string{
		ATTR_NTSECURITYDESCRIPTOR: {testUpdate.ACE},
		ATTR_SDFLAGS:              {"2147483648"},
	}, changes(req))

	c.Close()
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, 1, fd.conn.unbinds)
	assert.Zero(t, fd.conn.closes)

	c.Close()
	assert.Equal(t, 1, fd.conn.unbinds, "close is idempotent")
}

func TestClientSDFlagsControl(t *testing.T) {
	c, fd := newFakeClient(Options{SDFlagsControl: true})
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, "ldaps://dc01.contoso.local"))
	require.NoError(t, c.Authenticate(ctx, "cc"))
	require.NoError(t, c.ApplySecurityDescriptor(ctx, testDN, testUpdate))

	assert.Equal(t, TLS, fd.dials[0].TLSMode)
	req := fd.conn.modifies[0]
	require.Len(t, req.Controls, 1)
	control, ok := req.Controls[0].(*ControlInteger)
	require.True(t, ok)
	assert.Equal(t, LDAP_SERVER_SD_FLAGS_OID, control.GetControlType())
	assert.Equal(t, int64(DACL_SECURITY_INFORMATION), control.ControlValue)
}

func TestClientModifyRejectedStillCloses(t *testing.T) {
	c, fd := newFakeClient(Options{})
	fd.conn.modifyErr = ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("access denied"))
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx, "ldap://dc01.contoso.local"))
	require.NoError(t, c.Authenticate(ctx, "cc"))

	err := c.ApplySecurityDescriptor(ctx, testDN, testUpdate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dacl.ErrModifyRejected))
	var e *dacl.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, uint16(ldap.LDAPResultInsufficientAccessRights), e.ResultCode)
	assert.Equal(t, testDN, e.TargetDN)
	assert.Equal(t, StateError, c.State())

	c.Close()
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, 1, fd.conn.unbinds)
}

func TestClientUnbindFailureFallsBackToClose(t *testing.T) {
	c, fd := newFakeClient(Options{})
	fd.conn.unbindErr = errors.New("broken pipe")
	require.NoError(t, c.Connect(context.Background(), "ldap://dc01.contoso.local"))

	c.Close()
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, 1, fd.conn.closes)
}

func TestClientOutOfOrder(t *testing.T) {
	ctx := context.Background()

	c, fd := newFakeClient(Options{})
	err := c.Authenticate(ctx, "cc")
	assert.Equal(t, dacl.KindAuthentication, dacl.KindOf(err))
	err = c.ApplySecurityDescriptor(ctx, testDN, testUpdate)
	assert.Equal(t, dacl.KindModifyRejected, dacl.KindOf(err))
	assert.Empty(t, fd.ccaches)

	require.NoError(t, c.Connect(ctx, "ldap://dc01.contoso.local"))
	err = c.Connect(ctx, "ldap://dc01.contoso.local")
	assert.Equal(t, dacl.KindConnection, dacl.KindOf(err))
	err = c.ApplySecurityDescriptor(ctx, testDN, testUpdate)
	assert.Equal(t, dacl.KindModifyRejected, dacl.KindOf(err))
	assert.Empty(t, fd.conn.modifies)

	c.Close()
	err = c.Connect(ctx, "ldap://dc01.contoso.local")
	assert.Equal(t, dacl.KindConnection, dacl.KindOf(err))
	assert.Len(t, fd.dials, 1)
}

func TestClientConnectFailures(t *testing.T) {
	ctx := context.Background()

	for _, uri := range []string{"http://dc01", "ldap://", "ldap://dc01:99999", "://"} {
		t.Run(uri, func(t *testing.T) {
			c, fd := newFakeClient(Options{})
			err := c.Connect(ctx, uri)
			assert.Equal(t, dacl.KindConnection, dacl.KindOf(err))
			assert.Empty(t, fd.dials)
			assert.Equal(t, StateError, c.State())
		})
	}

	c, fd := newFakeClient(Options{})
	fd.dialErr = errors.New("connection refused")
	err := c.Connect(ctx, "ldap://dc01.contoso.local")
	assert.True(t, errors.Is(err, dacl.ErrConnection))
	assert.Contains(t, err.Error(), "connection refused")
	c.Close()
	assert.Equal(t, StateClosed, c.State())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	c, fd = newFakeClient(Options{})
	err = c.Connect(cancelled, "ldap://dc01.contoso.local")
	assert.Equal(t, dacl.KindConnection, dacl.KindOf(err))
	assert.Empty(t, fd.dials)
}

func TestClientAuthenticateFailures(t *testing.T) {
	ctx := context.Background()

	c, fd := newFakeClient(Options{})
	fd.conn.bindErr = ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad ticket"))
	require.NoError(t, c.Connect(ctx, "ldap://dc01.contoso.local"))
	err := c.Authenticate(ctx, "cc")
	assert.Equal(t, dacl.KindAuthentication, dacl.KindOf(err))
	assert.Equal(t, StateError, c.State())

	c, fd = newFakeClient(Options{})
	fd.gssapiErr = dacl.MissingCredentialCache(errors.New("no such file"))
	require.NoError(t, c.Connect(ctx, "ldap://dc01.contoso.local"))
	err = c.Authenticate(ctx, "/nonexistent")
	assert.Equal(t, dacl.KindMissingCredentialCache, dacl.KindOf(err))
	assert.Empty(t, fd.conn.binds)

	c, _ = newFakeClient(Options{})
	require.NoError(t, c.Connect(ctx, "ldap://dc01.contoso.local"))
	deadline, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	require.NoError(t, c.Authenticate(deadline, "cc"))
	assert.InDelta(t, time.Minute, c.conn.(*fakeConn).timeout, float64(5*time.Second))
}

func TestClientApplyChecksContextFirst(t *testing.T) {
	c, fd := newFakeClient(Options{})
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, "ldap://dc01.contoso.local"))
	require.NoError(t, c.Authenticate(ctx, "cc"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := c.ApplySecurityDescriptor(cancelled, testDN, testUpdate)
	assert.Equal(t, dacl.KindModifyRejected, dacl.KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, fd.conn.modifies)
}
