package dacl

import (
	"strings"
	"unicode"

	"github.com/lkarlslund/dacledit/modules/windowssecurity"
)

// SDDL tokens used when emitting a single ACE
const (
	SDDL_ACCESS_ALLOWED        = "A"
	SDDL_OBJECT_ACCESS_ALLOWED = "OA"
	SDDL_CONTAINER_INHERIT     = "CI"
	SDDL_CONTROL_ACCESS        = "CR"
)

// Values written to the sdflags attribute, 2147483648 = 0x80000000 = DACL protected
const (
	SDFLAG_DACL_PROTECTED = "2147483648"
	SDFLAG_DACL_INHERITED = "0"
)

// SecurityDescriptorUpdate is what gets written to the target object
type SecurityDescriptorUpdate struct {
	ACE            string
	SDControlFlags string
	DACLProtected  bool
}

// BuildUpdate renders a grant as a single SDDL ACE for principal.
// With inheritance the ACE gets CI and the DACL keeps inheriting from the parent,
// without it the DACL is marked protected.
// The output depends only on the inputs.
func BuildUpdate(grant Grant, principal string, inheritance bool) (SecurityDescriptorUpdate, error) {
	trustee, err := NormalizePrincipal(principal)
	if err != nil {
		return SecurityDescriptorUpdate{}, err
	}

	var aceflags string
	if inheritance {
		aceflags = SDDL_CONTAINER_INHERIT
	}

	var ace string
	switch grant.Kind {
	case GrantAccessMask:
		ace = formatACE(SDDL_ACCESS_ALLOWED, aceflags, grant.Mask.Decimal(), "", trustee)
	case GrantExtendedRight:
		if grant.RightGUID.IsNil() {
			return SecurityDescriptorUpdate{}, newError(KindUnknownExtendedRight, grant.Source)
		}
		ace = formatACE(SDDL_OBJECT_ACCESS_ALLOWED, aceflags, SDDL_CONTROL_ACCESS, grant.RightGUID.String(), trustee)
	default:
		return SecurityDescriptorUpdate{}, newError(KindNoPermissionSpecified, "")
	}

	update := SecurityDescriptorUpdate{
		ACE:           ace,
		DACLProtected: !inheritance,
	}
	if update.DACLProtected {
		update.SDControlFlags = SDFLAG_DACL_PROTECTED
	} else {
		update.SDControlFlags = SDFLAG_DACL_INHERITED
	}
	return update, nil
}

// ace_type;ace_flags;rights;object_guid;inherit_object_guid;account_sid
func formatACE(acetype, aceflags, rights, objectguid, trustee string) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(acetype)
	b.WriteByte(';')
	b.WriteString(aceflags)
	b.WriteByte(';')
	b.WriteString(rights)
	b.WriteByte(';')
	b.WriteString(objectguid)
	b.WriteString(";;")
	b.WriteString(trustee)
	b.WriteByte(')')
	return b.String()
}

// NormalizePrincipal rejects trustees that would break the ACE string and
// canonicalizes anything that parses as a SID. Other values (names, SDDL aliases, unparsable
// S-1- placeholders) are passed through as long as they are safe to embed.
func NormalizePrincipal(principal string) (string, error) {
	if principal == "" {
		return "", newError(KindInvalidPrincipal, principal)
	}
	for _, r := range principal {
		if r == 0 || r == '(' || r == ')' || r == ';' || unicode.IsControl(r) || unicode.IsSpace(r) || r == unicode.ReplacementChar {
			return "", newError(KindInvalidPrincipal, principal)
		}
	}
	if windowssecurity.LooksLikeSID(principal) {
		if sid, err := windowssecurity.ParseStringSID(principal); err == nil {
			return sid.String(), nil
		}
	}
	return principal, nil
}
