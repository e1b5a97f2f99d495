package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// ensRegistryAddress is the mainnet name registry.
const ensRegistryAddress = "0x00000000000c2e074ec69a0dfb2997ba6c7d2e1e"

// avatarEndpoint serves avatar images for resolved names.
const avatarEndpoint = "https://metadata.ens.domains/mainnet/avatar/"

const ensABIJSON = `[
	{"type":"function","name":"resolver","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"type":"address"}]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"type":"string"}]}
]`

var ensABI = mustParseABI(ensABIJSON)

func mustParseABI(raw string) ethabi.ABI {
	parsed, err := ethabi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("resolver: invalid ens abi: %v", err))
	}
	return parsed
}

// namehash implements the recursive label hash the name registry keys
// nodes by.
func namehash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = [32]byte(crypto.Keccak256(node[:], labelHash))
	}
	return node
}

// reverseNode derives the registry node for an address's reverse record.
func reverseNode(address string) [32]byte {
	addr := strings.TrimPrefix(strings.ToLower(address), "0x")
	return namehash(addr + ".addr.reverse")
}

// resolveAccount performs the address-to-name reverse lookup: namehash the
// reverse name, resolve it to a resolver contract, query name(), then
// probe the avatar endpoint. A returned name updates the account's label
// and image and propagates onto the account's atom when one exists.
func (w *Worker) resolveAccount(ctx context.Context, account *domain.Account) error {
	name, err := w.lookupName(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("reverse lookup %s: %w", account.ID, err)
	}
	if name == "" {
		return nil
	}

	account.Label = name
	if avatar := w.probeAvatar(ctx, name); avatar != "" {
		account.Image = &avatar
		if err := w.enqueuePinJob(ctx, avatar); err != nil {
			return err
		}
	}

	return w.store.InTx(ctx, func(ex store.Execer) error {
		if err := w.store.UpsertAccount(ctx, ex, w.schema, account); err != nil {
			return err
		}
		if account.AtomID == nil {
			return nil
		}
		atom, err := w.store.FindAtomByID(ctx, ex, w.schema, *account.AtomID)
		if err != nil || atom == nil {
			return err
		}
		atom.Label = &account.Label
		atom.Image = account.Image
		return w.store.UpsertAtom(ctx, ex, w.schema, atom)
	})
}

// lookupName queries the registry for the address's reverse name record,
// returning "" when no name is set.
func (w *Worker) lookupName(ctx context.Context, address string) (string, error) {
	node := reverseNode(address)

	resolverAddr, err := w.ethCallAddress(ctx, ensRegistryAddress, "resolver", node)
	if err != nil {
		return "", err
	}
	if resolverAddr == (common.Address{}) {
		return "", nil
	}

	return w.ethCallString(ctx, strings.ToLower(resolverAddr.Hex()), "name", node)
}

func (w *Worker) ethCallAddress(ctx context.Context, contract, method string, node [32]byte) (common.Address, error) {
	raw, err := w.ethCall(ctx, contract, method, node)
	if err != nil {
		return common.Address{}, err
	}
	if len(raw) == 0 {
		return common.Address{}, nil
	}
	values, err := ensABI.Unpack(method, raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values[0].(common.Address), nil
}

func (w *Worker) ethCallString(ctx context.Context, contract, method string, node [32]byte) (string, error) {
	raw, err := w.ethCall(ctx, contract, method, node)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}
	values, err := ensABI.Unpack(method, raw)
	if err != nil {
		return "", fmt.Errorf("unpack %s: %w", method, err)
	}
	return values[0].(string), nil
}

func (w *Worker) ethCall(ctx context.Context, contract, method string, node [32]byte) ([]byte, error) {
	input, err := ensABI.Pack(method, node)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	params := []interface{}{
		map[string]string{"to": contract, "data": "0x" + common.Bytes2Hex(input)},
		"latest",
	}
	result, err := w.mainnet.Call(ctx, "eth_call", params)
	if err != nil {
		return nil, err
	}

	var outHex string
	if err := json.Unmarshal(result, &outHex); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return common.FromHex(outHex), nil
}

// probeAvatar reports the avatar URL for a name when the endpoint serves
// one, "" otherwise. Avatar absence is not an error.
func (w *Worker) probeAvatar(ctx context.Context, name string) string {
	url := avatarEndpoint + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return url
}
