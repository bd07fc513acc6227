package dacl

import (
	"sort"

	"github.com/gofrs/uuid"
)

// The three catalogs below are separate namespaces: a name known in one means nothing in another.
// All maps are filled during package initialization and never written afterwards.

type namedRight struct {
	name    string
	aliases []string
	mask    AccessMask
}

var accessRightTable = []namedRight{
	{"GenericRead", []string{"GENERIC_READ"}, RIGHT_GENERIC_READ},
	{"GenericWrite", []string{"GENERIC_WRITE"}, RIGHT_GENERIC_WRITE},
	{"GenericExecute", []string{"GENERIC_EXECUTE"}, RIGHT_GENERIC_EXECUTE},
	{"GenericAll", []string{"GENERIC_ALL"}, RIGHT_GENERIC_ALL},
	{"MaximumAllowed", []string{"MAXIMUM_ALLOWED"}, RIGHT_MAXIMUM_ALLOWED},
	{"AccessSystemSecurity", []string{"ACCESS_SYSTEM_SECURITY"}, RIGHT_ACCESS_SYSTEM_SECURITY},
	{"Synchronize", []string{"SYNCHRONIZE"}, RIGHT_SYNCHRONIZE},
	{"WriteOwner", []string{"WRITE_OWNER"}, RIGHT_WRITE_OWNER},
	{"WriteDACL", []string{"WRITE_DACL", "WriteDacl"}, RIGHT_WRITE_DACL},
	{"ReadControl", []string{"READ_CONTROL"}, RIGHT_READ_CONTROL},
	{"Delete", []string{"DELETE"}, RIGHT_DELETE},
	{"AllExtendedRights", []string{"ALL_EXTENDED_RIGHTS", "ControlAccess"}, RIGHT_DS_CONTROL_ACCESS},
	{"ListObject", []string{"LIST_OBJECT"}, RIGHT_DS_LIST_OBJECT},
	{"DeleteTree", []string{"DELETE_TREE"}, RIGHT_DS_DELETE_TREE},
	{"WriteProperties", []string{"WRITE_PROPERTIES", "WriteProperty"}, RIGHT_DS_WRITE_PROPERTY},
	{"ReadProperties", []string{"READ_PROPERTIES", "ReadProperty"}, RIGHT_DS_READ_PROPERTY},
	{"Self", []string{"SELF"}, RIGHT_DS_SELF},
	{"ListChildObjects", []string{"LIST_CHILD_OBJECTS"}, RIGHT_DS_LIST_CONTENTS},
	{"DeleteChild", []string{"DELETE_CHILD"}, RIGHT_DS_DELETE_CHILD},
	{"CreateChild", []string{"CREATE_CHILD"}, RIGHT_DS_CREATE_CHILD},
}

var (
	accessRightsByName = map[string]AccessMask{}
	accessRightNames   = map[AccessMask]string{}
)

// SimplePermission is a pre-combined access mask matching the Windows permission presets
type SimplePermission uint32

const (
	PermissionFullControl    SimplePermission = 0xf01ff
	PermissionModify         SimplePermission = 0x0301bf
	PermissionReadAndExecute SimplePermission = 0x0200a9
	PermissionReadAndWrite   SimplePermission = 0x02019f
	PermissionRead           SimplePermission = 0x20094
	PermissionWrite          SimplePermission = 0x200bc
)

var simplePermissionsByName = map[string]SimplePermission{
	"FullControl":    PermissionFullControl,
	"Modify":         PermissionModify,
	"ReadAndExecute": PermissionReadAndExecute,
	"ReadAndWrite":   PermissionReadAndWrite,
	"Read":           PermissionRead,
	"Write":          PermissionWrite,
}

func (sp SimplePermission) Mask() AccessMask {
	return AccessMask(sp)
}

func (sp SimplePermission) String() string {
	for name, value := range simplePermissionsByName {
		if value == sp {
			return name
		}
	}
	return AccessMask(sp).Hex()
}

// ExtendedRight identifies a control access right by its rightsGuid
type ExtendedRight uint8

const (
	ExtendedRightWriteMembers ExtendedRight = iota
	ExtendedRightResetPassword
	ExtendedRightChangePassword
	ExtendedRightDsReplicationGetChanges
	ExtendedRightDsReplicationGetChangesAll
	ExtendedRightDsReplicationGetChangesInFilteredSet
)

type extendedRightInfo struct {
	name    string
	aliases []string
	guid    uuid.UUID
}

var extendedRightTable = map[ExtendedRight]extendedRightInfo{
	ExtendedRightWriteMembers: {
		name:    "WriteMembers",
		aliases: []string{"Self-Membership"},
		guid:    uuid.Must(uuid.FromString("bf9679c0-0de6-11d0-a285-00aa003049e2")),
	},
	ExtendedRightResetPassword: {
		name:    "ResetPassword",
		aliases: []string{"User-Force-Change-Password"},
		guid:    uuid.Must(uuid.FromString("00299570-246d-11d0-a768-00aa006e0529")),
	},
	ExtendedRightChangePassword: {
		name:    "ChangePassword",
		aliases: []string{"User-Change-Password"},
		guid:    uuid.Must(uuid.FromString("ab721a53-1e2f-11d0-9819-00aa0040529b")),
	},
	ExtendedRightDsReplicationGetChanges: {
		name:    "DS_Replication_Get_Changes",
		aliases: []string{"DS-Replication-Get-Changes"},
		guid:    uuid.Must(uuid.FromString("1131f6aa-9c07-11d1-f79f-00c04fc2dcd2")),
	},
	ExtendedRightDsReplicationGetChangesAll: {
		name:    "DS_Replication_Get_Changes_All",
		aliases: []string{"DS-Replication-Get-Changes-All"},
		guid:    uuid.Must(uuid.FromString("1131f6ad-9c07-11d1-f79f-00c04fc2dcd2")),
	},
	ExtendedRightDsReplicationGetChangesInFilteredSet: {
		name:    "DS_Replication_Get_Changes_In_Filtered_Set",
		aliases: []string{"DS-Replication-Get-Changes-In-Filtered-Set"},
		guid:    uuid.Must(uuid.FromString("89e95b76-444d-4c62-991a-0facbeda640c")),
	},
}

var extendedRightsByName = map[string]ExtendedRight{}

func (er ExtendedRight) GUID() uuid.UUID {
	return extendedRightTable[er].guid
}

func (er ExtendedRight) String() string {
	if info, found := extendedRightTable[er]; found {
		return info.name
	}
	return "UnknownExtendedRight"
}

func init() {
	for _, r := range accessRightTable {
		accessRightsByName[r.name] = r.mask
		for _, alias := range r.aliases {
			accessRightsByName[alias] = r.mask
		}
		accessRightNames[r.mask] = r.name
	}
	for er, info := range extendedRightTable {
		extendedRightsByName[info.name] = er
		for _, alias := range info.aliases {
			extendedRightsByName[alias] = er
		}
	}
}

func LookupAccessRight(name string) (AccessMask, bool) {
	mask, found := accessRightsByName[name]
	return mask, found
}

func LookupSimplePermission(name string) (SimplePermission, bool) {
	sp, found := simplePermissionsByName[name]
	return sp, found
}

func LookupExtendedRight(name string) (ExtendedRight, bool) {
	er, found := extendedRightsByName[name]
	return er, found
}

// AccessRightNames returns the canonical flag names, highest bit first
func AccessRightNames() []string {
	result := make([]string, 0, len(allRights))
	for _, right := range allRights {
		result = append(result, accessRightNames[right])
	}
	return result
}

func SimplePermissionNames() []string {
	result := make([]string, 0, len(simplePermissionsByName))
	for name := range simplePermissionsByName {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func ExtendedRightNames() []string {
	result := make([]string, 0, len(extendedRightTable))
	for _, info := range extendedRightTable {
		result = append(result, info.name)
	}
	sort.Strings(result)
	return result
}
