package windowssecurity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrorOnlySIDVersion1Supported = errors.New("only SID version 1 supported")
	ErrorSIDTooShort              = errors.New("SID string is too short to be a SID")
)

type SID string

// Our representation
// 0-5 = authority (big endian)
// 6-9+ = chunks of 4 with subauthorities (little endian)

func ParseStringSID(input string) (SID, error) {
	if len(input) < 5 {
		return "", ErrorSIDTooShort
	}
	strnums := strings.Split(input, "-")
	if strnums[0] != "S" && strnums[0] != "s" {
		return "", errors.New("SID must start with S")
	}
	subauthoritycount := len(strnums) - 3
	if subauthoritycount < 0 {
		return "", errors.New("less than one subauthority found")
	}
	if subauthoritycount > 15 {
		return "", errors.New("SID subauthority count is more than 15")
	}

	version, err := strconv.ParseUint(strnums[1], 10, 8)
	if err != nil {
		return "", fmt.Errorf("invalid SID revision %q: %w", strnums[1], err)
	}
	if version != 1 {
		return "", ErrorOnlySIDVersion1Supported
	}

	authority, err := strconv.ParseUint(strnums[2], 10, 48)
	if err != nil {
		return "", fmt.Errorf("invalid SID authority %q: %w", strnums[2], err)
	}

	sid := make([]byte, 6+4*subauthoritycount)
	authslice := make([]byte, 8)
	binary.BigEndian.PutUint64(authslice, authority<<16)
	copy(sid[0:], authslice[0:6])

	for i := range subauthoritycount {
		subauthority, err := strconv.ParseUint(strnums[3+i], 10, 32)
		if err != nil {
			return "", fmt.Errorf("invalid SID subauthority %q: %w", strnums[3+i], err)
		}
		binary.LittleEndian.PutUint32(sid[6+4*i:], uint32(subauthority))
	}

	return SID(sid), nil
}

func MustParseStringSID(input string) SID {
	sid, err := ParseStringSID(input)
	if err != nil {
		panic(err)
	}
	return sid
}

// LooksLikeSID reports whether input is meant to be a SID string, not whether it is a valid one
func LooksLikeSID(input string) bool {
	return len(input) > 4 && strings.EqualFold(input[:4], "S-1-")
}

func (sid SID) String() string {
	if sid == "" {
		return "NULL SID"
	}
	var authority uint64
	for i := 0; i <= 5; i++ {
		authority = authority<<8 | uint64(sid[i])
	}
	var b strings.Builder
	b.WriteString("S-1-")
	b.WriteString(strconv.FormatUint(authority, 10))

	for i := 6; i+4 <= len(sid); i += 4 {
		b.WriteByte('-')
		b.WriteString(strconv.FormatUint(uint64(binary.LittleEndian.Uint32([]byte(sid[i:]))), 10))
	}
	return b.String()
}

// Components counts revision, authority and subauthorities
func (sid SID) Components() int {
	return (len(sid) + 2) / 4
}

func (sid SID) RID() uint32 {
	if len(sid) <= 6 {
		return 0
	}
	l := len(sid) - 4
	return binary.LittleEndian.Uint32([]byte(sid[l:]))
}
