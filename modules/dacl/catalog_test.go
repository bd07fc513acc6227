package dacl

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessRightsDoNotOverlap(t *testing.T) {
	var seen AccessMask
	for _, right := range allRights {
		assert.Zero(t, seen&right, "right %v overlaps with earlier rights", right.Hex())
		assert.Equal(t, 1, popcount(uint32(right)), "right %v is not a single bit", right.Hex())
		seen |= right
	}
}

func popcount(v uint32) int {
	n := 0
	for v != 0 {
		v &= v - 1
		n++
	}
	return n
}

func TestLookupAccessRight(t *testing.T) {
	tests := []struct {
		name  string
		want  AccessMask
		found bool
	}{
		{"GenericRead", 0x80000000, true},
		{"GENERIC_READ", 0x80000000, true},
		{"GenericWrite", 0x40000000, true},
		{"WriteDACL", 0x00040000, true},
		{"WRITE_DACL", 0x00040000, true},
		{"CreateChild", 0x00000001, true},
		{"AllExtendedRights", 0x00000100, true},
		{"genericread", 0, false},
		{"Read", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := LookupAccessRight(tt.name)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimplePermissionConstants(t *testing.T) {
	tests := []struct {
		name string
		want uint32
	}{
		{"FullControl", 0xf01ff},
		{"Modify", 0x0301bf},
		{"ReadAndExecute", 0x0200a9},
		{"ReadAndWrite", 0x02019f},
		{"Read", 0x20094},
		{"Write", 0x200bc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp, found := LookupSimplePermission(tt.name)
			require.True(t, found)
			assert.Equal(t, AccessMask(tt.want), sp.Mask())
			assert.Equal(t, tt.name, sp.String())
		})
	}
	_, found := LookupSimplePermission("GenericRead")
	assert.False(t, found, "access right names must not resolve as simple permissions")
}

func TestExtendedRightGUIDs(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"WriteMembers", "bf9679c0-0de6-11d0-a285-00aa003049e2"},
		{"ResetPassword", "00299570-246d-11d0-a768-00aa006e0529"},
		{"User-Force-Change-Password", "00299570-246d-11d0-a768-00aa006e0529"},
		{"DS_Replication_Get_Changes", "1131f6aa-9c07-11d1-f79f-00c04fc2dcd2"},
		{"DS_Replication_Get_Changes_All", "1131f6ad-9c07-11d1-f79f-00c04fc2dcd2"},
		{"ChangePassword", "ab721a53-1e2f-11d0-9819-00aa0040529b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			er, found := LookupExtendedRight(tt.name)
			require.True(t, found)
			assert.Equal(t, tt.want, er.GUID().String())
		})
	}
	_, found := LookupExtendedRight("resetpassword")
	assert.False(t, found, "lookups are case sensitive")
}

func TestCatalogNames(t *testing.T) {
	names := AccessRightNames()
	require.Len(t, names, len(allRights))
	assert.Equal(t, "GenericRead", names[0])
	assert.Equal(t, "CreateChild", names[len(names)-1])
	for _, name := range names {
		_, found := LookupAccessRight(name)
		assert.True(t, found, name)
	}

	assert.Equal(t, []string{"FullControl", "Modify", "Read", "ReadAndExecute", "ReadAndWrite", "Write"}, SimplePermissionNames())

	for _, name := range ExtendedRightNames() {
		er, found := LookupExtendedRight(name)
		require.True(t, found, name)
		assert.Equal(t, name, er.String())
	}
}

func TestAccessMaskString(t *testing.T) {
	assert.Equal(t, "0", AccessMask(0).String())
	assert.Equal(t, "GenericRead|GenericWrite", (RIGHT_GENERIC_READ | RIGHT_GENERIC_WRITE).String())
	assert.Equal(t, "WriteDACL|0x800", (RIGHT_WRITE_DACL | 0x800).String())
	assert.Equal(t, "131220", PermissionRead.Mask().Decimal())
	assert.Equal(t, "0x20094", PermissionRead.Mask().Hex())
}

func TestCatalogConcurrentReads(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, err := Resolve(Request{AccessMask: "GenericRead, WriteDACL"})
				assert.NoError(t, err)
				_, found := LookupExtendedRight("ResetPassword")
				assert.True(t, found)
				_ = PermissionFullControl.String()
			}
		}()
	}
	wg.Wait()
}
