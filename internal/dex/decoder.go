package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"exchangePricing/internal/model"
)

// Decoder turns raw logs into typed events.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(log model.LogRecord) (*model.TypedEvent, error)
}

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Topic0Map maps extra topic0 hashes to one of the supported event names.
	Topic0Map map[string]string
}

// PairDecoder decodes exchange pair events and the factory PairCreated event.
type PairDecoder struct {
	pairABI     abi.ABI
	factoryABI  abi.ABI
	topicToName map[string]string
}

// NewPairDecoder builds a pair decoder.
func NewPairDecoder(cfg DecoderConfig) (*PairDecoder, error) {
	pair, err := PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	factory, err := FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	topicToName := map[string]string{
		topicKey(factory.Events[model.EventPairCreated].ID): model.EventPairCreated,
		topicKey(pair.Events[model.EventSync].ID):           model.EventSync,
		topicKey(pair.Events[model.EventSwap].ID):           model.EventSwap,
		topicKey(pair.Events[model.EventMint].ID):           model.EventMint,
		topicKey(pair.Events[model.EventBurn].ID):           model.EventBurn,
	}

	for topic0, name := range cfg.Topic0Map {
		original := name
		name = normalizeEventName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[strings.ToLower(topic0)] = name
	}

	return &PairDecoder{
		pairABI:     pair,
		factoryABI:  factory,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *PairDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent. Addresses in the output are
// lowercase hex so they match entity ids.
func (d *PairDecoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid contract address: %s", log.Address)
	}

	var (
		decoded interface{}
		err     error
	)
	switch name {
	case model.EventPairCreated:
		decoded, err = d.decodePairCreated(log)
	case model.EventSync:
		decoded, err = d.decodeSync(log)
	case model.EventSwap:
		decoded, err = d.decodeSwap(log)
	case model.EventMint:
		decoded, err = d.decodeMint(log)
	case model.EventBurn:
		decoded, err = d.decodeBurn(log)
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &model.TypedEvent{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     lowerHex(common.HexToAddress(log.Address)),
		EventName:   name,
		Timestamp:   log.Timestamp,
		Decoded:     decoded,
		Raw:         &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func (d *PairDecoder) decodePairCreated(log model.LogRecord) (model.PairCreatedEventData, error) {
	event := d.factoryABI.Events[model.EventPairCreated]
	var indexed struct {
		Token0 common.Address
		Token1 common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.PairCreatedEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data, 2)
	if err != nil {
		return model.PairCreatedEventData{}, err
	}
	pair, err := asAddress(values[0])
	if err != nil {
		return model.PairCreatedEventData{}, err
	}
	index, err := asBigInt(values[1])
	if err != nil {
		return model.PairCreatedEventData{}, err
	}

	return model.PairCreatedEventData{
		Token0: lowerHex(indexed.Token0),
		Token1: lowerHex(indexed.Token1),
		Pair:   lowerHex(pair),
		Index:  index.String(),
	}, nil
}

func (d *PairDecoder) decodeSync(log model.LogRecord) (model.SyncEventData, error) {
	event := d.pairABI.Events[model.EventSync]
	if len(log.Topics) != 1 {
		return model.SyncEventData{}, fmt.Errorf("expected 1 topic, got %d", len(log.Topics))
	}
	amounts, err := unpackAmounts(event, log.Data, 2)
	if err != nil {
		return model.SyncEventData{}, err
	}
	return model.SyncEventData{
		Reserve0: amounts[0].String(),
		Reserve1: amounts[1].String(),
	}, nil
}

func (d *PairDecoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.pairABI.Events[model.EventSwap]
	var indexed struct {
		Sender common.Address
		To     common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.SwapEventData{}, err
	}
	amounts, err := unpackAmounts(event, log.Data, 4)
	if err != nil {
		return model.SwapEventData{}, err
	}
	return model.SwapEventData{
		Sender:     lowerHex(indexed.Sender),
		To:         lowerHex(indexed.To),
		Amount0In:  amounts[0].String(),
		Amount1In:  amounts[1].String(),
		Amount0Out: amounts[2].String(),
		Amount1Out: amounts[3].String(),
	}, nil
}

func (d *PairDecoder) decodeMint(log model.LogRecord) (model.MintEventData, error) {
	event := d.pairABI.Events[model.EventMint]
	var indexed struct {
		Sender common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.MintEventData{}, err
	}
	amounts, err := unpackAmounts(event, log.Data, 2)
	if err != nil {
		return model.MintEventData{}, err
	}
	return model.MintEventData{
		Sender:  lowerHex(indexed.Sender),
		Amount0: amounts[0].String(),
		Amount1: amounts[1].String(),
	}, nil
}

func (d *PairDecoder) decodeBurn(log model.LogRecord) (model.BurnEventData, error) {
	event := d.pairABI.Events[model.EventBurn]
	var indexed struct {
		Sender common.Address
		To     common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.BurnEventData{}, err
	}
	amounts, err := unpackAmounts(event, log.Data, 2)
	if err != nil {
		return model.BurnEventData{}, err
	}
	return model.BurnEventData{
		Sender:  lowerHex(indexed.Sender),
		To:      lowerHex(indexed.To),
		Amount0: amounts[0].String(),
		Amount1: amounts[1].String(),
	}, nil
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "paircreated":
		return model.EventPairCreated
	case "sync":
		return model.EventSync
	case "swap":
		return model.EventSwap
	case "mint":
		return model.EventMint
	case "burn":
		return model.EventBurn
	default:
		return ""
	}
}

func parseIndexed(event abi.Event, topics []string, out interface{}) error {
	indexedArgs := indexedArguments(event.Inputs)
	if len(topics) != len(indexedArgs)+1 {
		return fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(topics))
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return err
	}
	if err := abi.ParseTopics(out, indexedArgs, hashes); err != nil {
		return fmt.Errorf("parse topics: %w", err)
	}
	return nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string, want int) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != want {
		return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}
	return values, nil
}

func unpackAmounts(event abi.Event, dataHex string, want int) ([]*big.Int, error) {
	values, err := unpackNonIndexed(event, dataHex, want)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(values))
	for i, value := range values {
		out[i], err = asBigInt(value)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func topicKey(hash common.Hash) string {
	return strings.ToLower(hash.Hex())
}

func lowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
