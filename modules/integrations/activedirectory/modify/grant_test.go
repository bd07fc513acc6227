package modify

import (
	"context"
	"testing"

	"github.com/lkarlslund/dacledit/modules/dacl"
	ldap "github.com/lkarlslund/ldap/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grantRequest(p dacl.Request) GrantRequest {
	return GrantRequest{
		TargetDN:   testDN,
		Principal:  "S-1-5-21-3623811015-3361044348-30300820-1013",
		Permission: p,
		LDAPURI:    "ldap://dc01.contoso.local",
		CCachePath: "/tmp/krb5cc_1000",
	}
}

func TestApplyGrant(t *testing.T) {
	c, fd := newFakeClient(Options{})
	result, err := Apply(context.Background(), c, grantRequest(dacl.Request{ExtendedRight: "ResetPassword"}))
	require.NoError(t, err)

	assert.Equal(t, "(OA;;CR;00299570-246d-11d0-a768-00aa006e0529;;S-1-5-21-3623811015-3361044348-30300820-1013)", result.Update.ACE)
	require.Len(t, fd.conn.modifies, 1)
	assert.Equal(t, map[string][]string{
		ATTR_NTSECURITYDESCRIPTOR: {result.Update.ACE},
		ATTR_SDFLAGS:              {"2147483648"},
	}, changes(fd.conn.modifies[0]))
	assert.Equal(t, StateClosed, c.State())
}

func TestApplyValidationNeverDials(t *testing.T) {
	tests := []struct {
		name string
		req  GrantRequest
		kind dacl.ErrorKind
	}{
		{"unknown simple permission", grantRequest(dacl.Request{SimplePermission: "SuperControl"}), dacl.KindUnknownSimplePermission},
		{"no permission", grantRequest(dacl.Request{}), dacl.KindNoPermissionSpecified},
		{"two permissions", grantRequest(dacl.Request{SimplePermission: "Read", AccessMask: "GenericRead"}), dacl.KindAmbiguousPermission},
		{"unknown access right", grantRequest(dacl.Request{AccessMask: "GenericRead,Bogus"}), dacl.KindUnknownAccessRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fd := newFakeClient(Options{})
			_, err := Apply(context.Background(), c, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, dacl.KindOf(err))
			assert.Empty(t, fd.dials)
			assert.Equal(t, StateDisconnected, c.State())
		})
	}

	req := grantRequest(dacl.Request{SimplePermission: "Read"})
	req.Principal = "bad;principal"
	c, fd := newFakeClient(Options{})
	_, err := Apply(context.Background(), c, req)
	assert.Equal(t, dacl.KindInvalidPrincipal, dacl.KindOf(err))
	assert.Empty(t, fd.dials)

	req = grantRequest(dacl.Request{SimplePermission: "Read"})
	req.TargetDN = ""
	_, err = Apply(context.Background(), c, req)
	assert.Error(t, err)
	assert.Empty(t, fd.dials)
}

func TestApplyMissingCredentialCache(t *testing.T) {
	t.Setenv("KRB5CCNAME", "KEYRING:persistent:1000")
	req := grantRequest(dacl.Request{SimplePermission: "Read"})
	req.CCachePath = ""

	c, fd := newFakeClient(Options{})
	_, err := Apply(context.Background(), c, req)
	assert.True(t, errors.Is(err, dacl.ErrMissingCredentialCache))
	assert.Empty(t, fd.dials)
}

func TestApplyDryRun(t *testing.T) {
	req := grantRequest(dacl.Request{AccessMask: "GenericRead,GenericWrite"})
	req.Inheritance = true
	req.DryRun = true
	req.Principal = "S-1-5-32-544"

	c, fd := newFakeClient(Options{})
	result, err := Apply(context.Background(), c, req)
	require.NoError(t, err)
	assert.Equal(t, "(A;CI;3221225472;;;S-1-5-32-544)", result.Update.ACE)
	assert.Equal(t, "0", result.Update.SDControlFlags)
	assert.NotEmpty(t, result.KnownPrincipal)
	assert.Empty(t, fd.dials)
}

func TestApplyModifyRejectedClosesSession(t *testing.T) {
	c, fd := newFakeClient(Options{})
	fd.conn.modifyErr = ldap.NewError(ldap.LDAPResultUnwillingToPerform, errors.New("unwilling"))

	_, err := Apply(context.Background(), c, grantRequest(dacl.Request{SimplePermission: "FullControl"}))
	require.Error(t, err)
	var e *dacl.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, dacl.KindModifyRejected, e.Kind)
	assert.Equal(t, uint16(ldap.LDAPResultUnwillingToPerform), e.ResultCode)
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, 1, fd.conn.unbinds)
}
