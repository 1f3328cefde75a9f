package ethereum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// Built-in event ABIs of the FlightStake contracts. Only events are declared,
// external artifacts supplied through configuration may carry the full ABI.
const (
	registryABI = `[
  {"anonymous":false,"name":"Transfer","type":"event","inputs":[
    {"indexed":true,"name":"from","type":"address"},
    {"indexed":true,"name":"to","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"}]}
]`

	stakingABI = `[
  {"anonymous":false,"name":"TokenStaked","type":"event","inputs":[
    {"indexed":true,"name":"user","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":false,"name":"value","type":"uint256"}]},
  {"anonymous":false,"name":"TokenUnstaked","type":"event","inputs":[
    {"indexed":true,"name":"user","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"}]}
]`

	lendingABI = `[
  {"anonymous":false,"name":"CollateralDeposited","type":"event","inputs":[
    {"indexed":true,"name":"user","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":false,"name":"value","type":"uint256"}]},
  {"anonymous":false,"name":"CollateralWithdrawn","type":"event","inputs":[
    {"indexed":true,"name":"user","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":false,"name":"value","type":"uint256"}]}
]`

	marketplaceABI = `[
  {"anonymous":false,"name":"ItemListed","type":"event","inputs":[
    {"indexed":true,"name":"seller","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":false,"name":"price","type":"uint256"}]},
  {"anonymous":false,"name":"ItemCanceled","type":"event","inputs":[
    {"indexed":true,"name":"seller","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"}]},
  {"anonymous":false,"name":"ItemSold","type":"event","inputs":[
    {"indexed":true,"name":"seller","type":"address"},
    {"indexed":true,"name":"buyer","type":"address"},
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":false,"name":"price","type":"uint256"}]}
]`

	oracleABI = `[
  {"anonymous":false,"name":"PriceUpdated","type":"event","inputs":[
    {"indexed":true,"name":"tokenId","type":"uint256"},
    {"indexed":false,"name":"price","type":"uint256"}]}
]`
)

var defaultABIs = map[domain.Source]string{
	domain.SourceRegistry:    registryABI,
	domain.SourceStaking:     stakingABI,
	domain.SourceLending:     lendingABI,
	domain.SourceMarketplace: marketplaceABI,
	domain.SourceOracle:      oracleABI,
}

// DefaultABI returns the built-in event ABI of a source
func DefaultABI(source domain.Source) (abi.ABI, error) {
	raw, ok := defaultABIs[source]
	if !ok {
		return abi.ABI{}, fmt.Errorf("no default ABI for source %s", source)
	}
	return abi.JSON(strings.NewReader(raw))
}

// LoadABI returns the ABI of a source. An empty path selects the built-in ABI,
// otherwise the file is read as either a bare ABI array or a compiler
// artifact carrying an "abi" field.
func LoadABI(fs adapter.FileSystem, source domain.Source, path string) (abi.ABI, error) {
	if path == "" {
		return DefaultABI(source)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read ABI for %s: %w", source, err)
	}

	parsed, err := ParseABI(data)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI for %s from %s: %w", source, path, err)
	}

	return parsed, nil
}

// ParseABI parses a bare ABI array or an artifact object with an "abi" field
func ParseABI(data []byte) (abi.ABI, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return abi.ABI{}, fmt.Errorf("empty ABI document")
	}

	if trimmed[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(trimmed, &artifact); err != nil {
			return abi.ABI{}, err
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("artifact has no abi field")
		}
		trimmed = artifact.ABI
	}

	return abi.JSON(bytes.NewReader(trimmed))
}
