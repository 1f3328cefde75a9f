package ethereum

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// Decoder turns raw logs of one source contract into domain events
//
//go:generate mockgen -source=decoder.go -destination=../../mocks/decoder.go -package=mocks -mock_names=Decoder=MockDecoder
type Decoder interface {
	// Source returns the source the decoder belongs to
	Source() domain.Source

	// Topics returns the event signatures to subscribe to
	Topics() []common.Hash

	// Decode parses a log into an event. The timestamp is left unset.
	Decode(vLog types.Log) (*domain.Event, error)
}

type abiDecoder struct {
	source   domain.Source
	contract abi.ABI
}

// NewDecoder creates a decoder for the events declared in contract
func NewDecoder(source domain.Source, contract abi.ABI) Decoder {
	return &abiDecoder{source: source, contract: contract}
}

func (d *abiDecoder) Source() domain.Source {
	return d.source
}

func (d *abiDecoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.contract.Events))
	for _, event := range d.contract.Events {
		if event.Anonymous {
			continue
		}
		topics = append(topics, event.ID)
	}
	sort.Slice(topics, func(i, j int) bool { return bytes.Compare(topics[i][:], topics[j][:]) < 0 })
	return topics
}

func (d *abiDecoder) Decode(vLog types.Log) (*domain.Event, error) {
	if len(vLog.Topics) == 0 {
		return nil, fmt.Errorf("%w: log without topics", domain.ErrMalformedPayload)
	}

	event, err := d.contract.EventByID(vLog.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: signature %s on %s", domain.ErrUnknownEvent, vLog.Topics[0].Hex(), d.source)
	}

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(vLog.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%w: %s expects %d indexed topics, got %d",
			domain.ErrMalformedPayload, event.Name, len(indexed), len(vLog.Topics)-1)
	}

	args := make(map[string]interface{}, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(args, indexed, vLog.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s topics: %v", domain.ErrMalformedPayload, event.Name, err)
	}

	if nonIndexed := event.Inputs.NonIndexed(); len(nonIndexed) > 0 {
		if err := nonIndexed.UnpackIntoMap(args, vLog.Data); err != nil {
			return nil, fmt.Errorf("%w: failed to unpack %s data: %v", domain.ErrMalformedPayload, event.Name, err)
		}
	}

	return &domain.Event{
		Source:      d.source,
		Name:        domain.EventName(event.Name),
		Contract:    vLog.Address.Hex(),
		TxHash:      vLog.TxHash.Hex(),
		BlockNumber: vLog.BlockNumber,
		LogIndex:    vLog.Index,
		Args:        args,
	}, nil
}
