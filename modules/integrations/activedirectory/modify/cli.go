package modify

import (
	"context"
	"time"

	"github.com/lkarlslund/dacledit/modules/cli"
	"github.com/lkarlslund/dacledit/modules/dacl"
	"github.com/lkarlslund/dacledit/modules/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	GrantCommand = &cobra.Command{
		Use:   "grant",
		Short: "Grant a principal a right on an Active Directory object by replacing its DACL",
		Long: `Grant a principal a right on an Active Directory object by replacing its DACL.

Exactly one of --extended-right, --access-mask or --permission must be given.
Authentication uses the Kerberos tickets in the credential cache from --ccache or KRB5CCNAME.`,
		Args: cobra.NoArgs,
	}

	targetdn    = GrantCommand.Flags().String("target-dn", "", "Distinguished name of the object to modify")
	principal   = GrantCommand.Flags().String("principal", "", "SID or name of the principal receiving the right")
	inheritance = GrantCommand.Flags().Bool("inheritance", false, "Make the ACE container-inheritable and keep inheriting from the parent (default marks the DACL protected)")

	extendedright    = GrantCommand.Flags().String("extended-right", "", "Extended right to grant, see 'dacledit rights'")
	accessmask       = GrantCommand.Flags().String("access-mask", "", "Comma separated list of access rights to grant, ex. GenericRead,GenericWrite")
	simplepermission = GrantCommand.Flags().String("permission", "", "Simple permission preset to grant (FullControl, Modify, ReadAndExecute, ReadAndWrite, Read, Write)")

	ldapuri        = GrantCommand.Flags().String("ldap-uri", "", "LDAP server as ldap://host[:port] or ldaps://host[:port], auto-detected from the domain if not supplied")
	ccache         = GrantCommand.Flags().String("ccache", "", "Kerberos credential cache file, defaults to KRB5CCNAME")
	realm          = GrantCommand.Flags().String("realm", "", "Kerberos realm, auto-detected from the credential cache if not supplied")
	kdc            = GrantCommand.Flags().String("kdc", "", "KDC to use for service tickets, found through DNS if not supplied")
	starttls       = GrantCommand.Flags().Bool("starttls", false, "Upgrade ldap:// connections with StartTLS")
	ignorecert     = GrantCommand.Flags().Bool("ignorecert", false, "Disable certificate checks")
	sdflagscontrol = GrantCommand.Flags().Bool("sdflagscontrol", false, "Send the SD flags control limiting the write to the DACL")
	ldapdebug      = GrantCommand.Flags().Bool("ldapdebug", false, "Enable LDAP debugging")
	dryrun         = GrantCommand.Flags().Bool("dry-run", false, "Only show the ACE that would be written")
	timeout        = GrantCommand.Flags().Duration("timeout", 30*time.Second, "Deadline for connecting, binding and modifying (0 means none)")

	RightsCommand = &cobra.Command{
		Use:   "rights",
		Short: "List the access rights, simple permissions and extended rights that can be granted",
		Args:  cobra.NoArgs,
		RunE:  ListRights,
	}
)

func init() {
	GrantCommand.RunE = Execute

	cli.Root.AddCommand(GrantCommand)
	cli.Root.AddCommand(RightsCommand)
}

// ResolveServerURI returns explicit if set, otherwise finds a domain controller for the detected domain
func ResolveServerURI(explicit, realm string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	ui.Info().Msg("No LDAP URI supplied, auto-detecting")
	domain := DetectRealm(realm, nil)
	if domain == "" {
		return "", errors.New("domain auto-detection failed, use '--ldap-uri' parameter")
	}
	uri := DetectServerURI(domain)
	ui.Info().Msgf("Using %v", uri)
	return uri, nil
}

func Execute(cmd *cobra.Command, args []string) error {
	req := GrantRequest{
		TargetDN:    *targetdn,
		Principal:   *principal,
		Inheritance: *inheritance,
		Permission: dacl.Request{
			ExtendedRight:    *extendedright,
			AccessMask:       *accessmask,
			SimplePermission: *simplepermission,
		},
		LDAPURI:    *ldapuri,
		CCachePath: *ccache,
		DryRun:     *dryrun,
	}

	// Reject bad requests before server auto-detection puts anything on the wire
	if _, err := Plan(req); err != nil {
		return err
	}
	if !req.DryRun {
		uri, err := ResolveServerURI(req.LDAPURI, *realm)
		if err != nil {
			return err
		}
		req.LDAPURI = uri
	}

	client := NewClient(Options{
		Realm:          *realm,
		KDC:            *kdc,
		StartTLS:       *starttls,
		IgnoreCert:     *ignorecert,
		SDFlagsControl: *sdflagscontrol,
		Debug:          *ldapdebug,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	result, err := Apply(ctx, client, req)
	if result.KnownPrincipal != "" {
		ui.Info().Msgf("Principal %v is a well-known SID: %v", *principal, result.KnownPrincipal)
	}
	if err != nil {
		if dacl.KindOf(err).IsProtocol() {
			return errors.Wrapf(err, "problem modifying %v on %v", req.TargetDN, req.LDAPURI)
		}
		return err
	}

	ui.Info().Msgf("Using SDDL %v with sdflags %v (%v)", result.Update.ACE, result.Update.SDControlFlags, result.Grant)
	if *dryrun {
		ui.Info().Msgf("Dry run, %v was not modified", *targetdn)
		return nil
	}
	ui.Success().Msgf("DACL modified successfully for %v", *targetdn)
	return nil
}

func ListRights(cmd *cobra.Command, args []string) error {
	var rows [][]string
	for _, name := range dacl.AccessRightNames() {
		mask, _ := dacl.LookupAccessRight(name)
		rows = append(rows, []string{"access-mask", name, mask.Hex()})
	}
	for _, name := range dacl.SimplePermissionNames() {
		sp, _ := dacl.LookupSimplePermission(name)
		rows = append(rows, []string{"permission", name, sp.Mask().Hex() + " " + sp.Mask().String()})
	}
	for _, name := range dacl.ExtendedRightNames() {
		er, _ := dacl.LookupExtendedRight(name)
		rows = append(rows, []string{"extended-right", name, er.GUID().String()})
	}
	return ui.Table([]string{"Flag", "Name", "Value"}, rows)
}
