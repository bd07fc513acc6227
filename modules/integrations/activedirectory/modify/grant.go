package modify

import (
	"context"

	"github.com/lkarlslund/dacledit/modules/dacl"
	"github.com/lkarlslund/dacledit/modules/integrations/activedirectory"
	"github.com/lkarlslund/dacledit/modules/windowssecurity"
	"github.com/pkg/errors"
)

type GrantRequest struct {
	TargetDN    string
	Principal   string
	Inheritance bool
	Permission  dacl.Request

	LDAPURI    string
	CCachePath string
	DryRun     bool
}

type GrantResult struct {
	Grant          dacl.Grant
	Update         dacl.SecurityDescriptorUpdate
	KnownPrincipal string // friendly name if the principal is a well-known SID
}

// Plan resolves and renders the grant without touching the network
func Plan(req GrantRequest) (GrantResult, error) {
	var result GrantResult
	if req.TargetDN == "" {
		return result, errors.New("no target DN given")
	}

	if name, found := windowssecurity.LookupKnownSID(req.Principal); found {
		result.KnownPrincipal = name
	}

	grant, err := dacl.Resolve(req.Permission)
	if err != nil {
		return result, err
	}
	update, err := dacl.BuildUpdate(grant, req.Principal, req.Inheritance)
	if err != nil {
		return result, err
	}

	result.Grant = grant
	result.Update = update
	return result, nil
}

// Apply plans the grant and then writes it with c. All local validation happens
// before the first packet is sent, and c is always closed on return.
func Apply(ctx context.Context, c *Client, req GrantRequest) (GrantResult, error) {
	result, err := Plan(req)
	if err != nil || req.DryRun {
		return result, err
	}

	ccachepath, err := activedirectory.LocateCCache(req.CCachePath)
	if err != nil {
		return result, err
	}

	defer c.Close()

	if err = c.Connect(ctx, req.LDAPURI); err != nil {
		return result, err
	}
	if err = c.Authenticate(ctx, ccachepath); err != nil {
		return result, err
	}
	if err = c.ApplySecurityDescriptor(ctx, req.TargetDN, result.Update); err != nil {
		return result, err
	}
	return result, nil
}
