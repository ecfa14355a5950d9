package coreaudio

import (
	"encoding/binary"
	"fmt"
)

// GetPropertySize reports the byte size of a variable-length property.
func GetPropertySize(hal HAL, obj ObjectID, addr PropertyAddress) (uint32, error) {
	size, status := hal.PropertyDataSize(obj, addr)
	if err := checkStatus("get size of", obj, addr, status); err != nil {
		return 0, err
	}
	return size, nil
}

// GetProperty reads a fixed-size property. T must be a fixed-size value
// (numbers, arrays and structs of them) laid out like the platform type.
func GetProperty[T any](hal HAL, obj ObjectID, addr PropertyAddress) (T, error) {
	var v T
	size := binary.Size(v)
	if size <= 0 {
		return v, fmt.Errorf("coreaudio: %T is not a fixed-size property type", v)
	}
	buf := make([]byte, size)
	n, status := hal.PropertyData(obj, addr, buf)
	if err := checkStatus("get", obj, addr, status); err != nil {
		return v, err
	}
	if int(n) < size {
		return v, &StatusError{Op: "get", Object: obj, Address: addr, Status: StatusBadPropertySize}
	}
	if _, err := binary.Decode(buf, binary.NativeEndian, &v); err != nil {
		return v, fmt.Errorf("coreaudio: decode %s: %w", addr, err)
	}
	return v, nil
}

// GetPropertyList reads a variable-length array property: it queries the
// size, allocates exactly that much, fetches, and trusts the byte count the
// platform reports for the final length.
func GetPropertyList[T any](hal HAL, obj ObjectID, addr PropertyAddress) ([]T, error) {
	var zero T
	elem := binary.Size(zero)
	if elem <= 0 {
		return nil, fmt.Errorf("coreaudio: %T is not a fixed-size property type", zero)
	}

	size, err := GetPropertySize(hal, obj, addr)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return []T{}, nil
	}

	buf := make([]byte, size)
	n, status := hal.PropertyData(obj, addr, buf)
	if err := checkStatus("get", obj, addr, status); err != nil {
		return nil, err
	}

	count := int(n) / elem
	out := make([]T, count)
	if count == 0 {
		return out, nil
	}
	if _, err := binary.Decode(buf[:count*elem], binary.NativeEndian, out); err != nil {
		return nil, fmt.Errorf("coreaudio: decode %s: %w", addr, err)
	}
	return out, nil
}

// SetProperty writes a fixed-size property.
func SetProperty[T any](hal HAL, obj ObjectID, addr PropertyAddress, value T) error {
	data, err := binary.Append(nil, binary.NativeEndian, value)
	if err != nil {
		return fmt.Errorf("coreaudio: encode %s: %w", addr, err)
	}
	return checkStatus("set", obj, addr, hal.SetPropertyData(obj, addr, data))
}
