package dacl

import (
	"strconv"
	"strings"
)

// AccessMask is the 32-bit ACCESS_MASK carried in every ACE
type AccessMask uint32

// http://www.selfadsi.org/deep-inside/ad-security-descriptors.htm
const (
	RIGHT_GENERIC_READ           AccessMask = 0x80000000
	RIGHT_GENERIC_WRITE          AccessMask = 0x40000000
	RIGHT_GENERIC_EXECUTE        AccessMask = 0x20000000
	RIGHT_GENERIC_ALL            AccessMask = 0x10000000
	RIGHT_MAXIMUM_ALLOWED        AccessMask = 0x02000000 /* Not stored in AD, just for requests */
	RIGHT_ACCESS_SYSTEM_SECURITY AccessMask = 0x01000000 /* Not stored in AD, just for requests */
	RIGHT_SYNCHRONIZE            AccessMask = 0x00100000
	RIGHT_WRITE_OWNER            AccessMask = 0x00080000
	RIGHT_WRITE_DACL             AccessMask = 0x00040000
	RIGHT_READ_CONTROL           AccessMask = 0x00020000
	RIGHT_DELETE                 AccessMask = 0x00010000
	RIGHT_DS_CONTROL_ACCESS      AccessMask = 0x00000100 // All extended rights, or a single one when the ACE has an object type
	RIGHT_DS_LIST_OBJECT         AccessMask = 0x00000080
	RIGHT_DS_DELETE_TREE         AccessMask = 0x00000040
	RIGHT_DS_WRITE_PROPERTY      AccessMask = 0x00000020
	RIGHT_DS_READ_PROPERTY       AccessMask = 0x00000010
	RIGHT_DS_SELF                AccessMask = 0x00000008 // Validated write
	RIGHT_DS_LIST_CONTENTS       AccessMask = 0x00000004
	RIGHT_DS_DELETE_CHILD        AccessMask = 0x00000002
	RIGHT_DS_CREATE_CHILD        AccessMask = 0x00000001
)

// Every single-bit right, highest bit first
var allRights = []AccessMask{
	RIGHT_GENERIC_READ,
	RIGHT_GENERIC_WRITE,
	RIGHT_GENERIC_EXECUTE,
	RIGHT_GENERIC_ALL,
	RIGHT_MAXIMUM_ALLOWED,
	RIGHT_ACCESS_SYSTEM_SECURITY,
	RIGHT_SYNCHRONIZE,
	RIGHT_WRITE_OWNER,
	RIGHT_WRITE_DACL,
	RIGHT_READ_CONTROL,
	RIGHT_DELETE,
	RIGHT_DS_CONTROL_ACCESS,
	RIGHT_DS_LIST_OBJECT,
	RIGHT_DS_DELETE_TREE,
	RIGHT_DS_WRITE_PROPERTY,
	RIGHT_DS_READ_PROPERTY,
	RIGHT_DS_SELF,
	RIGHT_DS_LIST_CONTENTS,
	RIGHT_DS_DELETE_CHILD,
	RIGHT_DS_CREATE_CHILD,
}

func (am AccessMask) Or(other AccessMask) AccessMask {
	return am | other
}

func (am AccessMask) And(other AccessMask) AccessMask {
	return am & other
}

// Has reports whether all bits of right are set
func (am AccessMask) Has(right AccessMask) bool {
	return am&right == right
}

// Decimal is the form embedded in SDDL ACE strings
func (am AccessMask) Decimal() string {
	return strconv.FormatUint(uint64(am), 10)
}

func (am AccessMask) Hex() string {
	return "0x" + strconv.FormatUint(uint64(am), 16)
}

// String lists the named rights contained in the mask, with any leftover bits in hex
func (am AccessMask) String() string {
	if am == 0 {
		return "0"
	}
	var names []string
	remaining := am
	for _, right := range allRights {
		if am.Has(right) {
			names = append(names, accessRightNames[right])
			remaining &^= right
		}
	}
	if remaining != 0 {
		names = append(names, remaining.Hex())
	}
	return strings.Join(names, "|")
}
