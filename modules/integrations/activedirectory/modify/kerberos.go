package modify

import (
	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/crypto"
	"github.com/jcmturner/gokrb5/v8/gssapi"
	"github.com/jcmturner/gokrb5/v8/iana/flags"
	"github.com/jcmturner/gokrb5/v8/iana/keyusage"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/spnego"
	"github.com/jcmturner/gokrb5/v8/types"
	"github.com/pkg/errors"
)

// GSSAPIState drives a SASL GSSAPI bind with tickets from a gokrb5 client.
// No security layer is negotiated.
type GSSAPIState struct {
	client *client.Client

	token  spnego.KRB5Token
	ekey   types.EncryptionKey
	subkey types.EncryptionKey
	aprep  bool
}

func NewGSSAPIState(cl *client.Client) *GSSAPIState {
	return &GSSAPIState{client: cl}
}

func (state *GSSAPIState) DeleteSecContext() error {
	state.client.Destroy()
	return nil
}

func (state *GSSAPIState) InitSecContext(target string, _ []byte) ([]byte, bool, error) {
	tkt, key, err := state.client.GetServiceTicket(target)
	if err != nil {
		return nil, false, errors.Wrapf(err, "problem getting service ticket for %v", target)
	}

	token, err := spnego.NewKRB5TokenAPREQ(state.client, tkt, key, []int{gssapi.ContextFlagInteg, gssapi.ContextFlagConf, gssapi.ContextFlagMutual}, []int{flags.APOptionMutualRequired})
	if err != nil {
		return nil, false, errors.Wrap(err, "problem building AP-REQ")
	}

	state.ekey = key
	state.token = token

	output, err := token.Marshal()
	if err != nil {
		return nil, false, errors.Wrap(err, "problem marshalling AP-REQ token")
	}
	return output, false, nil
}

// NegotiateSaslAuth handles the server tokens after the AP-REQ. The first one is the AP-REP,
// which may carry a subkey. The next is a wrap token offering security layers, answered with
// a wrap token selecting no layer and carrying authzid.
func (state *GSSAPIState) NegotiateSaslAuth(input []byte, authzid string) ([]byte, error) {
	if !state.aprep {
		err := state.token.Unmarshal(input)
		if err != nil {
			return nil, err
		}

		if state.token.IsKRBError() {
			return nil, state.token.KRBError
		}

		if state.token.IsAPRep() {
			state.aprep = true

			encpart, err := crypto.DecryptEncPart(state.token.APRep.EncPart, state.ekey, keyusage.AP_REP_ENCPART)
			if err != nil {
				return nil, err
			}

			part := &messages.EncAPRepPart{}
			err = part.Unmarshal(encpart)
			if err != nil {
				return nil, err
			}

			state.subkey = part.Subkey
		}

		return []byte{}, nil
	}

	token := &gssapi.WrapToken{}
	err := token.Unmarshal(input, true)
	if err != nil {
		return nil, err
	}

	if (token.Flags & 0b1) == 0 {
		return nil, errors.New("got a wrap token that was not sent by the acceptor")
	}

	key := state.ekey
	if (token.Flags & 0b100) != 0 {
		key = state.subkey
	}

	if (token.Flags & 0b10) != 0 {
		_, err = token.Verify(key, keyusage.GSSAPI_ACCEPTOR_SEAL)
		if err != nil {
			return nil, err
		}
	}

	if len(token.Payload) != 4 {
		return nil, errors.New("server sent a bad final token for the SASL GSSAPI handshake")
	}

	// Security layer 0 = none, followed by max message size 0 and the authorization identity
	payload := append([]byte{0, 0, 0, 0}, []byte(authzid)...)

	encType, err := crypto.GetEtype(key.KeyType)
	if err != nil {
		return nil, err
	}

	token = &gssapi.WrapToken{
		Flags:     0b100,
		EC:        uint16(encType.GetHMACBitLength() / 8),
		RRC:       0,
		SndSeqNum: 1,
		Payload:   payload,
	}

	if err := token.SetCheckSum(key, keyusage.GSSAPI_INITIATOR_SEAL); err != nil {
		return nil, err
	}

	return token.Marshal()
}
