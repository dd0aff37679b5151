package exchange

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/samber/mo"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/visvirial/hyperliquid/constants"
)

// Signer turns fully built actions into the r/s/v signatures the exchange
// verifies. Implementations must be safe for concurrent use.
type Signer interface {
	// Address is the address of the signing key.
	Address() common.Address

	// SignL1Action signs an exchange action under the L1 scheme: the
	// msgpack-encoded action plus nonce, vault and expiry framing is
	// hashed into a phantom agent and signed as EIP-712 typed data.
	// expiresAfter is an absolute unix timestamp in milliseconds and must
	// match the value sent in the request envelope.
	SignL1Action(
		action any,
		nonce uint64,
		vaultAddress mo.Option[common.Address],
		expiresAfter mo.Option[int64],
		isMainnet bool,
	) (Signature, error)

	// SignUserSignedAction signs an action whose fields are hashed
	// directly as EIP-712 typed data under the given schema.
	SignUserSignedAction(action any, schema typedSchema) (Signature, error)
}

// localSigner signs with an in-memory secp256k1 private key.
type localSigner struct {
	privateKey *ecdsa.PrivateKey
}

// NewSigner returns a Signer backed by the given private key.
func NewSigner(privateKey *ecdsa.PrivateKey) Signer {
	return &localSigner{privateKey: privateKey}
}

func (s *localSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.privateKey.PublicKey)
}

func (s *localSigner) SignL1Action(
	action any,
	nonce uint64,
	vaultAddress mo.Option[common.Address],
	expiresAfter mo.Option[int64],
	isMainnet bool,
) (Signature, error) {
	return signL1Action(
		action,
		nonce,
		s.privateKey,
		vaultAddress,
		expiresAfter,
		isMainnet,
	)
}

func (s *localSigner) SignUserSignedAction(
	action any,
	schema typedSchema,
) (Signature, error) {
	return signUserSignedAction(action, schema, s.privateKey)
}

// signL1Action signs an action under the L1 scheme. The action hash is
// wrapped in a phantom agent whose source selects the network, so a
// signature for one network is invalid on the other.
func signL1Action(
	action any,
	nonce uint64,
	privateKey *ecdsa.PrivateKey,
	vaultAddress mo.Option[common.Address],
	expiresAfter mo.Option[int64],
	isMainnet bool,
) (Signature, error) {
	actionHash, err := hashAction(action, vaultAddress, nonce, expiresAfter)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to create action hash: %w", err)
	}

	phantomAgent := constructPhantomAgent(actionHash, isMainnet)
	typedData := l1Payload(phantomAgent)

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return Signature{}, fmt.Errorf(
			"failed generating hash for typed data: %w",
			err,
		)
	}

	return signHash(common.BytesToHash(hash), privateKey)
}

// hashAction creates the Keccak256 hash the L1 scheme signs. The layout is
// msgpack(action), then the nonce as 8 big-endian bytes, then a vault flag
// (0x00, or 0x01 followed by the 20 address bytes), then an optional expiry
// marker (0x00 followed by the timestamp as 8 big-endian bytes).
func hashAction(
	action any,
	vaultAddress mo.Option[common.Address],
	nonce uint64,
	expiresAfter mo.Option[int64],
) (common.Hash, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	// Actions are tagged for JSON. The signed bytes must use the same
	// field names and order the server sees.
	enc.SetCustomStructTag("json")
	if err := enc.Encode(action); err != nil {
		return common.Hash{}, fmt.Errorf("failed to marshal action: %w", err)
	}
	data := buf.Bytes()

	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, nonce)
	data = append(data, nonceBytes...)

	if v, ok := vaultAddress.Get(); ok {
		data = append(data, 0x01)
		data = append(data, v.Bytes()...)
	} else {
		data = append(data, 0x00)
	}

	if e, ok := expiresAfter.Get(); ok {
		data = append(data, 0x00)
		eBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(eBytes, uint64(e))
		data = append(data, eBytes...)
	}

	return crypto.Keccak256Hash(data), nil
}

func constructPhantomAgent(
	hash common.Hash,
	isMainnet bool,
) apitypes.TypedDataMessage {
	var source string
	if isMainnet {
		source = "a"
	} else {
		source = "b"
	}

	return apitypes.TypedDataMessage{
		"source":       source,
		"connectionId": hash,
	}
}

func l1Payload(
	phantomAgent apitypes.TypedDataMessage,
) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Agent": {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              "Exchange",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(1337),
			VerifyingContract: "0x0000000000000000000000000000000000000000",
		},
		Message: phantomAgent,
	}
}

/*//////////////////////////////////////////////////////////////
                      USER-SIGNED ACTIONS
//////////////////////////////////////////////////////////////*/

// typedSchema names the EIP-712 primary type and field list an action is
// hashed under.
type typedSchema struct {
	primaryType string
	types       []apitypes.Type
}

var (
	usdSendSchema = typedSchema{
		primaryType: "HyperliquidTransaction:UsdSend",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "time", Type: "uint64"},
		},
	}

	spotSendSchema = typedSchema{
		primaryType: "HyperliquidTransaction:SpotSend",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "token", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "time", Type: "uint64"},
		},
	}

	withdrawSchema = typedSchema{
		primaryType: "HyperliquidTransaction:Withdraw",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "time", Type: "uint64"},
		},
	}

	usdClassTransferSchema = typedSchema{
		primaryType: "HyperliquidTransaction:UsdClassTransfer",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "toPerp", Type: "bool"},
			{Name: "nonce", Type: "uint64"},
		},
	}

	sendAssetSchema = typedSchema{
		primaryType: "HyperliquidTransaction:SendAsset",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "sourceDex", Type: "string"},
			{Name: "destinationDex", Type: "string"},
			{Name: "token", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "fromSubAccount", Type: "string"},
			{Name: "nonce", Type: "uint64"},
		},
	}

	tokenDelegateSchema = typedSchema{
		primaryType: "HyperliquidTransaction:TokenDelegate",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "validator", Type: "address"},
			{Name: "wei", Type: "uint64"},
			{Name: "isUndelegate", Type: "bool"},
			{Name: "nonce", Type: "uint64"},
		},
	}

	approveAgentSchema = typedSchema{
		primaryType: "HyperliquidTransaction:ApproveAgent",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "agentAddress", Type: "address"},
			{Name: "agentName", Type: "string"},
			{Name: "nonce", Type: "uint64"},
		},
	}

	approveBuilderFeeSchema = typedSchema{
		primaryType: "HyperliquidTransaction:ApproveBuilderFee",
		types: []apitypes.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "maxFeeRate", Type: "string"},
			{Name: "builder", Type: "address"},
			{Name: "nonce", Type: "uint64"},
		},
	}
)

// getSignatureChainId returns the chain id user-signed actions carry, as a
// hex string. The exchange verifies against this fixed id on both networks.
func getSignatureChainId() string {
	return hexutil.EncodeUint64(constants.SIGNATURE_CHAIN_ID)
}

// signUserSignedAction signs an action whose named fields are hashed
// directly as EIP-712 typed data. The action must carry hyperliquidChain
// and signatureChainId values, which bind the signature to a network.
func signUserSignedAction(
	action any,
	schema typedSchema,
	privateKey *ecdsa.PrivateKey,
) (Signature, error) {
	typedData, err := userSignedPayload(action, schema)
	if err != nil {
		return Signature{}, err
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return Signature{}, fmt.Errorf(
			"failed generating hash for typed data: %w",
			err,
		)
	}

	return signHash(common.BytesToHash(hash), privateKey)
}

// signUsdTransferAction signs a usdSend action.
func signUsdTransferAction(
	action usdTransferAction,
	privateKey *ecdsa.PrivateKey,
) (Signature, error) {
	return signUserSignedAction(action, usdSendSchema, privateKey)
}

// signWithdrawFromBridgeAction signs a withdraw3 action.
func signWithdrawFromBridgeAction(
	action withdrawFromBridgeAction,
	privateKey *ecdsa.PrivateKey,
) (Signature, error) {
	return signUserSignedAction(action, withdrawSchema, privateKey)
}

// userSignedPayload builds the typed data for a user-signed action. Only
// the fields the schema names are hashed; the domain chain id comes from
// the action's signatureChainId.
func userSignedPayload(
	action any,
	schema typedSchema,
) (apitypes.TypedData, error) {
	raw, err := json.Marshal(action)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf(
			"failed to marshal action: %w",
			err,
		)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return apitypes.TypedData{}, fmt.Errorf(
			"failed to decode action fields: %w",
			err,
		)
	}

	chainHex, ok := fields["signatureChainId"].(string)
	if !ok {
		return apitypes.TypedData{}, fmt.Errorf(
			"action has no signatureChainId",
		)
	}
	chainId, err := hexutil.DecodeBig(chainHex)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf(
			"invalid signatureChainId %q: %w",
			chainHex,
			err,
		)
	}

	message := make(apitypes.TypedDataMessage, len(schema.types))
	for _, field := range schema.types {
		value, ok := fields[field.Name]
		if !ok {
			return apitypes.TypedData{}, fmt.Errorf(
				"action has no %s field",
				field.Name,
			)
		}
		message[field.Name] = value
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			schema.primaryType: schema.types,
		},
		PrimaryType: schema.primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              "HyperliquidSignTransaction",
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(chainId),
			VerifyingContract: "0x0000000000000000000000000000000000000000",
		},
		Message: message,
	}, nil
}

// signHash signs a hash with the private key and normalizes V to the
// Ethereum canonical 27/28.
func signHash(
	hash common.Hash,
	privateKey *ecdsa.PrivateKey,
) (Signature, error) {
	var out Signature

	sig, err := crypto.Sign(hash.Bytes(), privateKey)
	if err != nil {
		return out, fmt.Errorf("failed to sign: %w", err)
	}

	if len(sig) != 65 {
		return out, fmt.Errorf("invalid signature length: %d", len(sig))
	}

	// sig = [R || S || V]
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	v := sig[64]

	if v < 27 {
		v += 27
	}

	out.V = v

	return out, nil
}
