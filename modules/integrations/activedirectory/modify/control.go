package modify

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
)

const (
	LDAP_SERVER_SD_FLAGS_OID = "1.2.840.113556.1.4.801"

	OWNER_SECURITY_INFORMATION = 0x1
	GROUP_SECURITY_INFORMATION = 0x2
	DACL_SECURITY_INFORMATION  = 0x4
	SACL_SECURITY_INFORMATION  = 0x8
)

// ControlInteger is a control whose value is a BER sequence holding one integer
type ControlInteger struct {
	ControlType  string
	Criticality  bool
	ControlValue int64
}

// NewSDFlagsControl limits a security descriptor read or write to the parts in flags
func NewSDFlagsControl(flags int64) *ControlInteger {
	return &ControlInteger{
		ControlType:  LDAP_SERVER_SD_FLAGS_OID,
		Criticality:  true,
		ControlValue: flags,
	}
}

func (c *ControlInteger) GetControlType() string {
	return c.ControlType
}

func (c *ControlInteger) Encode() *ber.Packet {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, c.ControlType, "Control Type ("+c.ControlType+")"))
	if c.Criticality {
		packet.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, c.Criticality, "Criticality"))
	}

	p2 := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Control Value")
	value := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control Value Sequence")
	value.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, c.ControlValue, "Integer"))
	p2.AppendChild(value)
	packet.AppendChild(p2)

	return packet
}

func (c *ControlInteger) String() string {
	return fmt.Sprintf("Control Type: %v  Criticality: %t  Control Value: %v", c.ControlType, c.Criticality, c.ControlValue)
}
