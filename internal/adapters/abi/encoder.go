package abi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// InitializerEncoder packs loosely typed arguments (strings, JSON lists,
// addresses, numbers) into initializer calldata.
type InitializerEncoder struct{}

// NewInitializerEncoder creates a new initializer encoder
func NewInitializerEncoder() *InitializerEncoder {
	return &InitializerEncoder{}
}

// FindInitializeMethod finds an initializer method in the ABI
func FindInitializeMethod(contractABI *abi.ABI) *abi.Method {
	if contractABI == nil {
		return nil
	}
	if method, ok := contractABI.Methods[models.InitializerMethod]; ok {
		return &method
	}

	for _, name := range []string{"init", "initializer"} {
		for _, method := range contractABI.Methods {
			if strings.EqualFold(method.Name, name) {
				return &method
			}
		}
	}
	return nil
}

// EncodeInitializer returns selector plus packed args for the blueprint's
// initializer. A contract without an initializer and no args encodes to nil.
func (e *InitializerEncoder) EncodeInitializer(blueprint *models.Blueprint, args []any) ([]byte, error) {
	method := FindInitializeMethod(&blueprint.ABI)
	if method == nil {
		if len(args) == 0 {
			return nil, nil
		}
		return nil, domain.NewConfigurationError("init_args", domain.ErrInitializerMismatch,
			fmt.Sprintf("%s has no initializer but %d arguments were given", blueprint.Name, len(args)))
	}

	if len(args) != len(method.Inputs) {
		return nil, domain.NewConfigurationError("init_args", domain.ErrInitializerMismatch,
			fmt.Sprintf("%s expects %d arguments, got %d", method.Sig, len(method.Inputs), len(args)))
	}

	values := make([]any, len(args))
	for i, input := range method.Inputs {
		value, err := coerce(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, domain.NewConfigurationError("init_args", domain.ErrInitializerMismatch,
				fmt.Sprintf("argument %s (%s): %v", name, input.Type.String(), err))
		}
		values[i] = value
	}

	packed, err := method.Inputs.Pack(values...)
	if err != nil {
		return nil, domain.NewConfigurationError("init_args", domain.ErrInitializerMismatch, err.Error())
	}

	return append(append([]byte{}, method.ID...), packed...), nil
}

// coerce converts v into the Go type go-ethereum packs for typ
func coerce(typ abi.Type, v any) (any, error) {
	switch typ.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.BoolTy:
		return toBool(v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case abi.IntTy, abi.UintTy:
		return toInteger(typ, v)
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		raw, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(raw) > typ.Size {
			return nil, fmt.Errorf("value has %d bytes, type holds %d", len(raw), typ.Size)
		}
		arr := reflect.New(typ.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return toList(typ, v)
	default:
		return nil, fmt.Errorf("unsupported type %s", typ.String())
	}
}

func toAddress(v any) (common.Address, error) {
	switch val := v.(type) {
	case common.Address:
		return val, nil
	case *common.Address:
		if val == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *val, nil
	case string:
		val = strings.TrimSpace(val)
		if !common.IsHexAddress(val) {
			return common.Address{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, val)
		}
		return common.HexToAddress(val), nil
	default:
		return common.Address{}, fmt.Errorf("expected address, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("expected bool, got %v", v)
}

func toBytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		if val == "" || val == "0x" {
			return []byte{}, nil
		}
		return hexutil.Decode(val)
	case common.Hash:
		return val.Bytes(), nil
	default:
		return nil, fmt.Errorf("expected hex bytes, got %T", v)
	}
}

func toInteger(typ abi.Type, v any) (any, error) {
	var n *big.Int
	switch val := v.(type) {
	case *big.Int:
		n = new(big.Int).Set(val)
	case int:
		n = big.NewInt(int64(val))
	case int64:
		n = big.NewInt(val)
	case uint64:
		n = new(big.Int).SetUint64(val)
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("%v is not an integer", val)
		}
		n = big.NewInt(int64(val))
	case json.Number:
		parsed, ok := math.ParseBig256(val.String())
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", val)
		}
		n = parsed
	case string:
		parsed, ok := math.ParseBig256(strings.TrimSpace(val))
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", val)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}

	if typ.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value for %s", typ.String())
	}
	bits := typ.Size
	if typ.T == abi.IntTy {
		bits--
	}
	if n.BitLen() > bits {
		return nil, fmt.Errorf("value overflows %s", typ.String())
	}

	target := typ.GetType()
	if target == bigIntType {
		return n, nil
	}
	if typ.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(target).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(target).Interface(), nil
}

// toList accepts a Go slice, a JSON array string or an empty string
func toList(typ abi.Type, v any) (any, error) {
	items, err := listItems(v)
	if err != nil {
		return nil, err
	}

	if typ.T == abi.ArrayTy && len(items) != typ.Size {
		return nil, fmt.Errorf("expected %d elements, got %d", typ.Size, len(items))
	}

	var out reflect.Value
	if typ.T == abi.ArrayTy {
		out = reflect.New(typ.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(typ.GetType(), len(items), len(items))
	}

	for i, item := range items {
		value, err := coerce(*typ.Elem, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(value))
	}
	return out.Interface(), nil
}

func listItems(v any) ([]any, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		var items []any
		if err := json.Unmarshal([]byte(s), &items); err != nil {
			return nil, fmt.Errorf("expected JSON array: %w", err)
		}
		return items, nil
	}

	rv := reflect.ValueOf(v)
	if v == nil {
		return nil, nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, fmt.Errorf("expected list, got bytes")
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}
