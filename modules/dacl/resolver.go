package dacl

import (
	"strings"

	"github.com/gofrs/uuid"
)

// Request holds the three mutually exclusive ways of asking for a permission
type Request struct {
	ExtendedRight    string // name from the extended rights catalog
	AccessMask       string // comma separated access right flag names
	SimplePermission string // name from the simple permission catalog
}

type GrantKind uint8

const (
	GrantAccessMask GrantKind = iota + 1
	GrantExtendedRight
)

// Grant is the resolved permission: either a plain access mask or an extended right GUID
type Grant struct {
	Kind      GrantKind
	Mask      AccessMask
	RightGUID uuid.UUID
	Source    string
}

func (g Grant) String() string {
	switch g.Kind {
	case GrantAccessMask:
		return g.Source + " (" + g.Mask.Hex() + ")"
	case GrantExtendedRight:
		return g.Source + " (" + g.RightGUID.String() + ")"
	}
	return "invalid grant"
}

func (r Request) specified() []string {
	var fields []string
	if r.ExtendedRight != "" {
		fields = append(fields, "extended right")
	}
	if r.AccessMask != "" {
		fields = append(fields, "access mask")
	}
	if r.SimplePermission != "" {
		fields = append(fields, "simple permission")
	}
	return fields
}

// Resolve turns a request into a Grant without side effects
func Resolve(r Request) (Grant, error) {
	switch fields := r.specified(); len(fields) {
	case 0:
		return Grant{}, newError(KindNoPermissionSpecified, "")
	case 1:
	default:
		return Grant{}, newError(KindAmbiguousPermission, strings.Join(fields, " and "))
	}

	switch {
	case r.ExtendedRight != "":
		er, found := LookupExtendedRight(r.ExtendedRight)
		if !found {
			return Grant{}, newError(KindUnknownExtendedRight, r.ExtendedRight)
		}
		return Grant{
			Kind:      GrantExtendedRight,
			RightGUID: er.GUID(),
			Source:    er.String(),
		}, nil
	case r.AccessMask != "":
		mask, err := ParseAccessMaskList(r.AccessMask)
		if err != nil {
			return Grant{}, err
		}
		return Grant{
			Kind:   GrantAccessMask,
			Mask:   mask,
			Source: r.AccessMask,
		}, nil
	default:
		sp, found := LookupSimplePermission(r.SimplePermission)
		if !found {
			return Grant{}, newError(KindUnknownSimplePermission, r.SimplePermission)
		}
		return Grant{
			Kind:   GrantAccessMask,
			Mask:   sp.Mask(),
			Source: r.SimplePermission,
		}, nil
	}
}

// ParseAccessMaskList ORs together comma separated flag names. Any unknown token fails the whole list with a zero mask.
func ParseAccessMaskList(list string) (AccessMask, error) {
	var mask AccessMask
	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)
		right, found := LookupAccessRight(token)
		if !found {
			return 0, newError(KindUnknownAccessRight, token)
		}
		mask = mask.Or(right)
	}
	return mask, nil
}
